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

import (
	"context"
	"sync/atomic"
)

// terminalTracker implements Observer[T]'s IsClosed/HasThrown/IsCompleted
// trio for the small bridging adapters below, which otherwise only care
// about forwarding Next/Error/Complete to a narrower shape's callbacks.
type terminalTracker struct {
	status int32 // 0 - open, 1 - errored, 2 - completed
}

func (t *terminalTracker) markError()    { atomic.CompareAndSwapInt32(&t.status, 0, 1) }
func (t *terminalTracker) markComplete() { atomic.CompareAndSwapInt32(&t.status, 0, 2) }
func (t *terminalTracker) IsClosed() bool    { return atomic.LoadInt32(&t.status) != 0 }
func (t *terminalTracker) HasThrown() bool   { return atomic.LoadInt32(&t.status) == 1 }
func (t *terminalTracker) IsCompleted() bool { return atomic.LoadInt32(&t.status) == 2 }

// One, ZeroOrOne and Signal narrow Observable's "0..N values, then a
// terminal" shape down to the three other reactive cardinalities (spec
// §3's shape table). All three are adapters over an ordinary
// Observable[T]/Observable[struct{}] pipeline: the wider Stream machinery
// (operators, schedulers, subjects) stays usable underneath, and these
// types only add the narrower observer contract and cardinality
// enforcement on top at the subscribe boundary.

// SignalObserver receives exactly one terminal and no value.
type SignalObserver interface {
	OnComplete()
	OnError(err error)
}

// Signal is a source whose only possible notifications are Completed or
// Errored.
type Signal interface {
	Subscribe(observer SignalObserver) Subscription
	SubscribeWithContext(ctx context.Context, observer SignalObserver) Subscription
}

type signalImpl struct {
	source Observable[struct{}]
}

// NewSignal builds a Signal whose production recipe runs on subscribe. The
// callback must call either complete() or fail(err), and never both.
func NewSignal(produce func(complete func(), fail func(error)) Teardown) Signal {
	return &signalImpl{
		source: NewObservableWithContext(func(ctx context.Context, destination Observer[struct{}]) Teardown {
			return produce(
				func() { destination.CompleteWithContext(ctx) },
				func(err error) { destination.ErrorWithContext(ctx, err) },
			)
		}),
	}
}

// EmptySignal completes synchronously on subscribe.
func EmptySignal() Signal {
	return NewSignal(func(complete func(), fail func(error)) Teardown {
		complete()
		return nil
	})
}

// ErroredSignal fails synchronously on subscribe with err.
func ErroredSignal(err error) Signal {
	return NewSignal(func(complete func(), fail func(error)) Teardown {
		fail(err)
		return nil
	})
}

func (s *signalImpl) Subscribe(observer SignalObserver) Subscription {
	return s.SubscribeWithContext(context.Background(), observer)
}

func (s *signalImpl) SubscribeWithContext(ctx context.Context, observer SignalObserver) Subscription {
	return s.source.SubscribeWithContext(ctx, &signalObserverAdapter{observer: observer})
}

type signalObserverAdapter struct {
	terminalTracker
	observer SignalObserver
}

func (a *signalObserverAdapter) Next(struct{})                            {}
func (a *signalObserverAdapter) NextWithContext(context.Context, struct{}) {}
func (a *signalObserverAdapter) Error(err error)                          { a.ErrorWithContext(context.Background(), err) }
func (a *signalObserverAdapter) ErrorWithContext(_ context.Context, err error) {
	a.markError()
	a.observer.OnError(err)
}
func (a *signalObserverAdapter) Complete() { a.CompleteWithContext(context.Background()) }
func (a *signalObserverAdapter) CompleteWithContext(context.Context) {
	a.markComplete()
	a.observer.OnComplete()
}

// OneObserver receives exactly one value, or an error — never both, never
// neither.
type OneObserver[T any] interface {
	OnSuccess(value T)
	OnError(err error)
}

// One is a source that delivers exactly one value or one error.
type One[T any] interface {
	Subscribe(observer OneObserver[T]) Subscription
	SubscribeWithContext(ctx context.Context, observer OneObserver[T]) Subscription
}

type oneImpl[T any] struct {
	source Observable[T]
}

// NewOne builds a One whose production recipe runs on subscribe. The
// callback must call exactly one of succeed(value) or fail(err).
func NewOne[T any](produce func(succeed func(T), fail func(error)) Teardown) One[T] {
	return &oneImpl[T]{
		source: NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			return produce(
				func(v T) {
					destination.NextWithContext(ctx, v)
					destination.CompleteWithContext(ctx)
				},
				func(err error) { destination.ErrorWithContext(ctx, err) },
			)
		}),
	}
}

// OneFromStream adapts a Stream into a One: the first value wins (upstream
// is then cancelled), an upstream error is forwarded, and a Complete with
// no prior value is reported as NoSuchElementError (spec §7,
// "One.from(Stream) on empty").
func OneFromStream[T any](source Observable[T]) One[T] {
	return &oneImpl[T]{
		source: NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			adapter := &firstOrErrorObserver[T]{destination: destination}
			subscription := source.SubscribeWithContext(ctx, adapter)
			adapter.upstream = subscription
			return subscription.Unsubscribe
		}),
	}
}

type firstOrErrorObserver[T any] struct {
	terminalTracker
	destination Observer[T]
	upstream    Subscription
	delivered   bool
}

func (o *firstOrErrorObserver[T]) Next(v T) { o.NextWithContext(context.Background(), v) }
func (o *firstOrErrorObserver[T]) NextWithContext(ctx context.Context, v T) {
	if o.delivered {
		return
	}
	o.delivered = true
	o.markComplete()
	o.destination.NextWithContext(ctx, v)
	o.destination.CompleteWithContext(ctx)
	if o.upstream != nil {
		o.upstream.Unsubscribe()
	}
}
func (o *firstOrErrorObserver[T]) Error(err error) { o.ErrorWithContext(context.Background(), err) }
func (o *firstOrErrorObserver[T]) ErrorWithContext(ctx context.Context, err error) {
	o.markError()
	o.destination.ErrorWithContext(ctx, err)
}
func (o *firstOrErrorObserver[T]) Complete() { o.CompleteWithContext(context.Background()) }
func (o *firstOrErrorObserver[T]) CompleteWithContext(ctx context.Context) {
	if o.delivered {
		return
	}
	o.markError()
	o.destination.ErrorWithContext(ctx, newNoSuchElementError())
}

func (o *oneImpl[T]) Subscribe(observer OneObserver[T]) Subscription {
	return o.SubscribeWithContext(context.Background(), observer)
}

func (o *oneImpl[T]) SubscribeWithContext(ctx context.Context, observer OneObserver[T]) Subscription {
	return o.source.SubscribeWithContext(ctx, &oneObserverAdapter[T]{observer: observer})
}

type oneObserverAdapter[T any] struct {
	terminalTracker
	observer  OneObserver[T]
	delivered bool
}

func (a *oneObserverAdapter[T]) Next(v T) { a.NextWithContext(context.Background(), v) }
func (a *oneObserverAdapter[T]) NextWithContext(_ context.Context, v T) {
	if !a.delivered {
		a.delivered = true
		a.markComplete()
		a.observer.OnSuccess(v)
	}
}
func (a *oneObserverAdapter[T]) Error(err error) { a.ErrorWithContext(context.Background(), err) }
func (a *oneObserverAdapter[T]) ErrorWithContext(_ context.Context, err error) {
	a.markError()
	a.observer.OnError(err)
}
func (a *oneObserverAdapter[T]) Complete()                         {}
func (a *oneObserverAdapter[T]) CompleteWithContext(context.Context) {}

// ZeroOrOneObserver receives at most one value, then exactly one terminal.
type ZeroOrOneObserver[T any] interface {
	OnSuccess(value T)
	OnComplete()
	OnError(err error)
}

// ZeroOrOne is a source that delivers zero or one value, then a terminal.
type ZeroOrOne[T any] interface {
	Subscribe(observer ZeroOrOneObserver[T]) Subscription
	SubscribeWithContext(ctx context.Context, observer ZeroOrOneObserver[T]) Subscription
}

type zeroOrOneImpl[T any] struct {
	source Observable[T]
}

// NewZeroOrOne builds a ZeroOrOne whose production recipe runs on
// subscribe. The callback may call succeed(value) at most once, and must
// eventually call either complete() or fail(err).
func NewZeroOrOne[T any](produce func(succeed func(T), complete func(), fail func(error)) Teardown) ZeroOrOne[T] {
	return &zeroOrOneImpl[T]{
		source: NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			return produce(
				func(v T) { destination.NextWithContext(ctx, v) },
				func() { destination.CompleteWithContext(ctx) },
				func(err error) { destination.ErrorWithContext(ctx, err) },
			)
		}),
	}
}

// ZeroOrOneFromStream adapts a Stream into a ZeroOrOne: the first value
// wins (upstream is then cancelled), an upstream error is forwarded, and a
// Complete with no prior value is reported as an empty ZeroOrOne (never as
// an error, unlike OneFromStream).
func ZeroOrOneFromStream[T any](source Observable[T]) ZeroOrOne[T] {
	return NewZeroOrOne(func(succeed func(T), complete func(), fail func(error)) Teardown {
		delivered := false
		sub := source.Subscribe(NewObserver(
			func(v T) {
				if !delivered {
					delivered = true
					succeed(v)
					complete()
				}
			},
			fail,
			complete,
		))
		return sub.Unsubscribe
	})
}

// ZeroOrOneToOne narrows a ZeroOrOne down to a One: an empty ZeroOrOne
// (Completed with no value) becomes NoSuchElementError (spec §7,
// "ZeroOrOne.to(One) on empty").
func ZeroOrOneToOne[T any](source ZeroOrOne[T]) One[T] {
	return NewOne(func(succeed func(T), fail func(error)) Teardown {
		subscription := source.SubscribeWithContext(context.Background(), &zeroOrOneToOneAdapter[T]{
			succeed: succeed,
			fail:    fail,
		})
		return subscription.Unsubscribe
	})
}

type zeroOrOneToOneAdapter[T any] struct {
	succeed   func(T)
	fail      func(error)
	delivered bool
}

func (a *zeroOrOneToOneAdapter[T]) OnSuccess(value T) {
	a.delivered = true
	a.succeed(value)
}
func (a *zeroOrOneToOneAdapter[T]) OnComplete() {
	if !a.delivered {
		a.fail(newNoSuchElementError())
	}
}
func (a *zeroOrOneToOneAdapter[T]) OnError(err error) { a.fail(err) }

func (z *zeroOrOneImpl[T]) Subscribe(observer ZeroOrOneObserver[T]) Subscription {
	return z.SubscribeWithContext(context.Background(), observer)
}

func (z *zeroOrOneImpl[T]) SubscribeWithContext(ctx context.Context, observer ZeroOrOneObserver[T]) Subscription {
	return z.source.SubscribeWithContext(ctx, &zeroOrOneObserverAdapter[T]{observer: observer})
}

type zeroOrOneObserverAdapter[T any] struct {
	terminalTracker
	observer  ZeroOrOneObserver[T]
	delivered bool
}

func (a *zeroOrOneObserverAdapter[T]) Next(v T) { a.NextWithContext(context.Background(), v) }
func (a *zeroOrOneObserverAdapter[T]) NextWithContext(_ context.Context, v T) {
	a.delivered = true
	a.observer.OnSuccess(v)
}
func (a *zeroOrOneObserverAdapter[T]) Error(err error) { a.ErrorWithContext(context.Background(), err) }
func (a *zeroOrOneObserverAdapter[T]) ErrorWithContext(_ context.Context, err error) {
	a.markError()
	a.observer.OnError(err)
}
func (a *zeroOrOneObserverAdapter[T]) Complete() { a.CompleteWithContext(context.Background()) }
func (a *zeroOrOneObserverAdapter[T]) CompleteWithContext(context.Context) {
	a.markComplete()
	a.observer.OnComplete()
}
