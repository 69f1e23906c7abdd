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

import "context"

// OnErrorReturn recovers an Errored notification by emitting f(err) then
// Completed, rather than propagating the error downstream (spec §4.11).
func OnErrorReturn[T any](f func(err error) T) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				destination.NextWithContext,
				func(ctx context.Context, err error) {
					value, invokeErr := invokeErrorReturn(f, err)
					if invokeErr != nil {
						destination.ErrorWithContext(ctx, invokeErr)
						return
					}
					destination.NextWithContext(ctx, value)
					destination.CompleteWithContext(ctx)
				},
				destination.CompleteWithContext,
			))
			return sub.Unsubscribe
		})
	}
}

// OnErrorComplete recovers an Errored notification by emitting Completed
// with no value, discarding the error entirely (spec §4.11, "Propagation
// policy").
func OnErrorComplete[T any]() func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				destination.NextWithContext,
				func(ctx context.Context, _ error) { destination.CompleteWithContext(ctx) },
				destination.CompleteWithContext,
			))
			return sub.Unsubscribe
		})
	}
}

// OnErrorResumeNext recovers an Errored notification by subscribing to
// f(err) and forwarding its notifications in place of the original
// upstream (spec §4.11).
func OnErrorResumeNext[T any](f func(err error) Observable[T]) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			var active Subscription

			active = source.SubscribeWithContext(ctx, NewObserverWithContext(
				destination.NextWithContext,
				func(ctx context.Context, err error) {
					fallback, invokeErr := invokeResumeNext(f, err)
					if invokeErr != nil {
						destination.ErrorWithContext(ctx, invokeErr)
						return
					}
					active = fallback.SubscribeWithContext(ctx, NewObserverWithContext(
						destination.NextWithContext,
						destination.ErrorWithContext,
						destination.CompleteWithContext,
					))
				},
				destination.CompleteWithContext,
			))

			return func() { active.Unsubscribe() }
		})
	}
}

// Retry resubscribes upstream on Errored up to n times after the first
// attempt (n+1 subscriptions in all), and forwards the error once the
// retries are used up (spec §4.11). Each resubscription starts from inside
// the failed attempt's Errored callback, so a source that fails
// synchronously adds one level of call depth per retry.
func Retry[T any](n int) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			rm := &retryMachine[T]{ctx: ctx, source: source, destination: destination, remaining: n}
			rm.subscribeNext()
			return rm.cancel
		})
	}
}

type retryMachine[T any] struct {
	ctx         context.Context
	source      Observable[T]
	destination Observer[T]
	remaining   int
	current     Subscription
}

func (rm *retryMachine[T]) subscribeNext() {
	rm.current = rm.source.SubscribeWithContext(rm.ctx, NewObserverWithContext(
		rm.destination.NextWithContext,
		func(ctx context.Context, err error) {
			if rm.remaining <= 0 {
				rm.destination.ErrorWithContext(ctx, err)
				return
			}
			rm.remaining--
			rm.subscribeNext()
		},
		rm.destination.CompleteWithContext,
	))
}

func (rm *retryMachine[T]) cancel() {
	if rm.current != nil {
		rm.current.Unsubscribe()
	}
}

// RetryWhen pipes every Errored notification into a Subject and hands the
// resulting Observable[error] to handler; each value handler's result
// emits re-subscribes upstream, a Completed from handler's result ends the
// stream (with Completed), and an Errored from handler's result forwards
// (spec §4.11).
func RetryWhen[T any](handler func(errors Observable[error]) Observable[struct{}]) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			errors := NewPublishSubject[error]()
			notifier := handler(errors.AsObservable())

			rw := &retryWhenMachine[T]{ctx: ctx, source: source, destination: destination, errors: errors}

			rw.notifierSub = notifier.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, _ struct{}) { rw.subscribeNext() },
				func(ctx context.Context, err error) { rw.destination.ErrorWithContext(ctx, err) },
				func(ctx context.Context) { rw.destination.CompleteWithContext(ctx) },
			))

			rw.subscribeNext()

			return rw.cancel
		})
	}
}

type retryWhenMachine[T any] struct {
	ctx         context.Context
	source      Observable[T]
	destination Observer[T]
	errors      Subject[error]

	current     Subscription
	notifierSub Subscription
}

func (rw *retryWhenMachine[T]) subscribeNext() {
	rw.current = rw.source.SubscribeWithContext(rw.ctx, NewObserverWithContext(
		rw.destination.NextWithContext,
		func(ctx context.Context, err error) { rw.errors.NextWithContext(ctx, err) },
		rw.destination.CompleteWithContext,
	))
}

func (rw *retryWhenMachine[T]) cancel() {
	if rw.current != nil {
		rw.current.Unsubscribe()
	}
	if rw.notifierSub != nil {
		rw.notifierSub.Unsubscribe()
	}
}

// invokeErrorReturn guards the user-supplied f(err) call made by
// OnErrorReturn, wrapping any panic as a UserError (spec §7).
func invokeErrorReturn[T any](f func(err error) T, err error) (result T, invokeErr error) {
	defer func() {
		if r := recover(); r != nil {
			invokeErr = newUserError(recoverValueToError(r))
		}
	}()
	return f(err), nil
}

// invokeResumeNext guards the user-supplied f(err) call made by
// OnErrorResumeNext, wrapping any panic as a UserError (spec §7).
func invokeResumeNext[T any](f func(err error) Observable[T], err error) (result Observable[T], invokeErr error) {
	defer func() {
		if r := recover(); r != nil {
			invokeErr = newUserError(recoverValueToError(r))
		}
	}()
	return f(err), nil
}
