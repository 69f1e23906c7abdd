// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/flowrx/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ro

// Blocking bridges (spec §4.14) block the calling goroutine until the
// upstream delivers the required notification. Each creates a fresh
// subscription and never runs on the Inline/Trampoline scheduler in a way
// that could deadlock the caller: the wait itself is a plain channel
// receive, independent of whatever scheduler the source uses internally.

// BlockingFirst blocks until source emits its first value (which it then
// returns, unsubscribing once it has been received) or terminates without
// one. If source errors before emitting, BlockingFirst returns that error;
// if it completes before emitting, it returns NoSuchElementError unless a
// default has been supplied via withDefault.
func BlockingFirst[T any](source Observable[T], withDefault ...T) (T, error) {
	result := make(chan blockingResult[T], 1)
	send := func(r blockingResult[T]) {
		select {
		case result <- r:
		default:
		}
	}

	sub := source.Subscribe(NewObserver(
		func(value T) { send(blockingResult[T]{value: value, ok: true}) },
		func(err error) { send(blockingResult[T]{err: err}) },
		func() { send(blockingResult[T]{}) },
	))

	r := <-result
	sub.Unsubscribe()
	return resolveBlockingResult(r, withDefault...)
}

// BlockingLast blocks until source completes, returning the last value
// emitted (or a default / NoSuchElementError if none was emitted).
func BlockingLast[T any](source Observable[T], withDefault ...T) (T, error) {
	result := make(chan blockingResult[T], 1)

	var last T
	hasLast := false

	source.Subscribe(NewObserver(
		func(value T) { last = value; hasLast = true },
		func(err error) { result <- blockingResult[T]{err: err} },
		func() { result <- blockingResult[T]{value: last, ok: hasLast} },
	))

	r := <-result
	return resolveBlockingResult(r, withDefault...)
}

// BlockingIterable subscribes source and returns a channel of values
// followed by closure, plus a channel receiving at most one terminal
// error (nil if source completed normally). The caller drains values by
// ranging over the first channel.
func BlockingIterable[T any](source Observable[T]) (values <-chan T, errs <-chan error) {
	valuesCh := make(chan T)
	errCh := make(chan error, 1)

	go func() {
		done := make(chan struct{})
		source.Subscribe(NewObserver(
			func(value T) { valuesCh <- value },
			func(err error) { errCh <- err; close(done) },
			func() { errCh <- nil; close(done) },
		))
		<-done
		close(valuesCh)
	}()

	return valuesCh, errCh
}

// ToFuture blocks until source's first value (or its terminal, if it has
// none) arrives, exactly like BlockingFirst; it does not wait for
// completion after the first value. It is named for call sites bridging
// into synchronous, future-returning code (spec §4.14).
func ToFuture[T any](source Observable[T], withDefault ...T) (T, error) {
	return BlockingFirst(source, withDefault...)
}

type blockingResult[T any] struct {
	value T
	err   error
	ok    bool
}

func resolveBlockingResult[T any](r blockingResult[T], withDefault ...T) (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	if r.ok {
		return r.value, nil
	}
	if len(withDefault) > 0 {
		return withDefault[0], nil
	}
	var zero T
	return zero, newNoSuchElementError()
}
