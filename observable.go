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

// Observable is a cold, push-based source of T values. Subscribing to an
// Observable re-runs its production recipe independently for every
// subscriber (unless the Observable is a Subject, see subject_registry.go). The
// returned Subscription cancels the subscription and releases any
// resource the producer acquired.
type Observable[T any] interface {
	// Subscribe starts emission for the given Observer using a
	// background context.
	Subscribe(destination Observer[T]) Subscription
	// SubscribeWithContext starts emission for the given Observer, using
	// the provided context for every notification and for the teardown
	// callback the producer registers.
	SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription
}

// producerFunc is the shape every creation factory and operator ultimately
// builds: given a context and the downstream Observer (already wrapped as
// a Subscriber by the constructors below), run the production recipe and
// return a Teardown that releases any acquired resource.
type producerFunc[T any] func(ctx context.Context, destination Observer[T]) Teardown

var _ Observable[int] = (*observableImpl[int])(nil)

type observableImpl[T any] struct {
	mode    ConcurrencyMode
	produce producerFunc[T]
}

// NewObservable creates a safe (ConcurrencyModeSafe) Observable from a
// production function that receives an already-subscribed Observer and
// returns a Teardown.
func NewObservable[T any](produce func(destination Observer[T]) Teardown) Observable[T] {
	return NewObservableWithContext(func(_ context.Context, destination Observer[T]) Teardown {
		return produce(destination)
	})
}

// NewObservableWithContext is the context-aware variant of NewObservable.
func NewObservableWithContext[T any](produce producerFunc[T]) Observable[T] {
	return &observableImpl[T]{mode: ConcurrencyModeSafe, produce: produce}
}

// NewUnsafeObservable creates an Observable whose Subscriber performs no
// synchronization (ConcurrencyModeUnsafe). Use only when the production
// function is known to emit synchronously and from a single goroutine, as
// the single-upstream operators in operator_*.go do internally.
func NewUnsafeObservable[T any](produce func(destination Observer[T]) Teardown) Observable[T] {
	return NewUnsafeObservableWithContext(func(_ context.Context, destination Observer[T]) Teardown {
		return produce(destination)
	})
}

// NewUnsafeObservableWithContext is the context-aware variant of
// NewUnsafeObservable.
func NewUnsafeObservableWithContext[T any](produce producerFunc[T]) Observable[T] {
	return &observableImpl[T]{mode: ConcurrencyModeUnsafe, produce: produce}
}

// NewEventuallySafeObservable creates an Observable whose Subscriber
// serializes with a real mutex but drops a Next notification instead of
// blocking when the lock is contended (ConcurrencyModeEventuallySafe).
func NewEventuallySafeObservable[T any](produce func(destination Observer[T]) Teardown) Observable[T] {
	return NewEventuallySafeObservableWithContext(func(_ context.Context, destination Observer[T]) Teardown {
		return produce(destination)
	})
}

// NewEventuallySafeObservableWithContext is the context-aware variant of
// NewEventuallySafeObservable.
func NewEventuallySafeObservableWithContext[T any](produce producerFunc[T]) Observable[T] {
	return &observableImpl[T]{mode: ConcurrencyModeEventuallySafe, produce: produce}
}

// NewSingleProducerObservable creates an Observable optimized for a
// single, known-sequential producer (ConcurrencyModeSingleProducer): no
// mutex, only atomic status checks.
func NewSingleProducerObservable[T any](produce func(destination Observer[T]) Teardown) Observable[T] {
	return NewSingleProducerObservableWithContext(func(_ context.Context, destination Observer[T]) Teardown {
		return produce(destination)
	})
}

// NewSingleProducerObservableWithContext is the context-aware variant of
// NewSingleProducerObservable.
func NewSingleProducerObservableWithContext[T any](produce producerFunc[T]) Observable[T] {
	return &observableImpl[T]{mode: ConcurrencyModeSingleProducer, produce: produce}
}

// Implements Observable.
func (o *observableImpl[T]) Subscribe(destination Observer[T]) Subscription {
	return o.SubscribeWithContext(context.Background(), destination)
}

// Implements Observable.
func (o *observableImpl[T]) SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriberWithConcurrencyMode(destination, o.mode)

	if impl, ok := subscriber.(*subscriberImpl[T]); ok {
		impl.setDirectors(destination, !isObserverPanicCaptureDisabled(ctx))
	}

	teardown := o.produce(ctx, subscriber)
	subscriber.Add(teardown)

	return subscriber
}

// Pipe1 applies a single operator to source. It exists mainly so call
// sites read the same whether one or nine operators are chained.
func Pipe1[A, B any](source Observable[A], op1 func(Observable[A]) Observable[B]) Observable[B] {
	return op1(source)
}

// Pipe2 applies two operators in sequence.
func Pipe2[A, B, C any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C]) Observable[C] {
	return op2(op1(source))
}

// Pipe3 applies three operators in sequence.
func Pipe3[A, B, C, D any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D]) Observable[D] {
	return op3(op2(op1(source)))
}

// Pipe4 applies four operators in sequence.
func Pipe4[A, B, C, D, E any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E]) Observable[E] {
	return op4(op3(op2(op1(source))))
}

// Pipe5 applies five operators in sequence.
func Pipe5[A, B, C, D, E, F any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E], op5 func(Observable[E]) Observable[F]) Observable[F] {
	return op5(op4(op3(op2(op1(source)))))
}

// Pipe6 applies six operators in sequence.
func Pipe6[A, B, C, D, E, F, G any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E], op5 func(Observable[E]) Observable[F], op6 func(Observable[F]) Observable[G]) Observable[G] {
	return op6(op5(op4(op3(op2(op1(source))))))
}

// Pipe7 applies seven operators in sequence.
func Pipe7[A, B, C, D, E, F, G, H any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E], op5 func(Observable[E]) Observable[F], op6 func(Observable[F]) Observable[G], op7 func(Observable[G]) Observable[H]) Observable[H] {
	return op7(op6(op5(op4(op3(op2(op1(source)))))))
}

// Pipe8 applies eight operators in sequence.
func Pipe8[A, B, C, D, E, F, G, H, I any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E], op5 func(Observable[E]) Observable[F], op6 func(Observable[F]) Observable[G], op7 func(Observable[G]) Observable[H], op8 func(Observable[H]) Observable[I]) Observable[I] {
	return op8(op7(op6(op5(op4(op3(op2(op1(source))))))))
}

// Pipe9 applies nine operators in sequence.
func Pipe9[A, B, C, D, E, F, G, H, I, J any](source Observable[A], op1 func(Observable[A]) Observable[B], op2 func(Observable[B]) Observable[C], op3 func(Observable[C]) Observable[D], op4 func(Observable[D]) Observable[E], op5 func(Observable[E]) Observable[F], op6 func(Observable[F]) Observable[G], op7 func(Observable[G]) Observable[H], op8 func(Observable[H]) Observable[I], op9 func(Observable[I]) Observable[J]) Observable[J] {
	return op9(op8(op7(op6(op5(op4(op3(op2(op1(source)))))))))
}
