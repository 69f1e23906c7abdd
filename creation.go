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
	"time"
)

// Of emits the given values, in order, then completes.
// Play: https://go.dev/play/p/5HNnbhbgIlB
func Of[T any](values ...T) Observable[T] {
	return FromSlice(values)
}

// Just is an alias for Of, kept for callers migrating from the variadic
// constructor name used throughout the kept test suite.
func Just[T any](values ...T) Observable[T] {
	return Of(values...)
}

// FromSlice emits every element of values, in order, then completes.
func FromSlice[T any](values []T) Observable[T] {
	return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		for _, v := range values {
			if destination.IsClosed() {
				break
			}
			destination.NextWithContext(ctx, v)
		}

		if !destination.IsClosed() {
			destination.CompleteWithContext(ctx)
		}

		return nil
	})
}

// FromIterable emits every element an iterator function yields, in order,
// then completes. next returns (value, true) while there is a value left,
// and (_, false) once exhausted.
func FromIterable[T any](next func() (T, bool)) Observable[T] {
	return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		for {
			if destination.IsClosed() {
				break
			}

			v, ok := next()
			if !ok {
				break
			}

			destination.NextWithContext(ctx, v)
		}

		if !destination.IsClosed() {
			destination.CompleteWithContext(ctx)
		}

		return nil
	})
}

// FromCallable emits the single value returned by fn, or the error fn
// returns, then completes.
func FromCallable[T any](fn func() (T, error)) Observable[T] {
	return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		value, err := fn()
		if err != nil {
			destination.ErrorWithContext(ctx, err)
			return nil
		}

		destination.NextWithContext(ctx, value)
		destination.CompleteWithContext(ctx)
		return nil
	})
}

// Defer builds a fresh Observable for every subscriber by calling factory at
// subscribe time, instead of sharing one recipe built eagerly.
func Defer[T any](factory func() Observable[T]) Observable[T] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		sub := factory().SubscribeWithContext(ctx, destination)
		return sub.Unsubscribe
	})
}

// Empty completes immediately on subscribe without emitting any value.
func Empty[T any]() Observable[T] {
	return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		destination.CompleteWithContext(ctx)
		return nil
	})
}

// Never never emits any notification and never terminates.
func Never[T any]() Observable[T] {
	return NewUnsafeObservableWithContext(func(_ context.Context, _ Observer[T]) Teardown {
		return nil
	})
}

// Error fails immediately on subscribe with err.
func Error[T any](err error) Observable[T] {
	return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		destination.ErrorWithContext(ctx, err)
		return nil
	})
}

// Throw is an alias for Error, kept for callers migrating from that name
// used throughout the kept test suite.
func Throw[T any](err error) Observable[T] {
	return Error[T](err)
}

// Range emits the count consecutive int64 values starting at start, then
// completes. It uses the lockless single-producer Subscriber fast path,
// matching the teacher benchmark's "single-producer" baseline.
func Range(start, count int64) Observable[int64] {
	return RangeWithMode(start, count, ConcurrencyModeSingleProducer)
}

// RangeWithMode is Range with an explicit ConcurrencyMode, so callers (and
// benchmarks) can measure the cost of each Subscriber synchronization
// strategy against the same workload.
func RangeWithMode(start, count int64, mode ConcurrencyMode) Observable[int64] {
	produce := func(ctx context.Context, destination Observer[int64]) Teardown {
		for i := int64(0); i < count; i++ {
			if destination.IsClosed() {
				break
			}
			destination.NextWithContext(ctx, start+i)
		}

		if !destination.IsClosed() {
			destination.CompleteWithContext(ctx)
		}

		return nil
	}

	switch mode {
	case ConcurrencyModeUnsafe:
		return NewUnsafeObservableWithContext(produce)
	case ConcurrencyModeEventuallySafe:
		return NewEventuallySafeObservableWithContext(produce)
	case ConcurrencyModeSingleProducer:
		return NewSingleProducerObservableWithContext(produce)
	default:
		return NewObservableWithContext(produce)
	}
}

// Interval emits a monotonically increasing int64 counter, starting at 0,
// every period on the given Scheduler, until cancelled.
func Interval(period time.Duration, scheduler Scheduler) Observable[int64] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[int64]) Teardown {
		worker := scheduler.CreateWorker()

		var n int64
		worker.SchedulePeriodic(func() {
			destination.NextWithContext(ctx, n)
			n++
		}, period, period)

		return worker.Cancel
	})
}

// Timer emits a single value of 0, after delay, on the given Scheduler, then
// completes.
func Timer(delay time.Duration, scheduler Scheduler) Observable[int64] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[int64]) Teardown {
		worker := scheduler.CreateWorker()

		worker.ScheduleDirectDelayed(func() {
			destination.NextWithContext(ctx, 0)
			destination.CompleteWithContext(ctx)
		}, delay)

		return worker.Cancel
	})
}

// Create builds a Stream from an imperative emitter function, honoring the
// given BackpressurePolicy for downstream that cannot keep up. emit must be
// called only from a single producer goroutine at a time. capacity bounds
// the DropLatest/DropOldest/Error queue; capacity <= 0 falls back to
// defaultBackpressureCapacity.
func Create[T any](policy BackpressurePolicy, capacity int, produce func(emit FlowableEmitter[T]) Teardown) Observable[T] {
	return NewCreateFlowable(policy, capacity, produce).AsObservable()
}
