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
	"sync"
	"sync/atomic"
)

// Merge subscribes to every source concurrently and interleaves their
// values in arrival order. It completes once every source has completed;
// the first Errored from any source cancels the rest (spec §4.9, §7
// "First-error-wins").
func Merge[T any](sources ...Observable[T]) Observable[T] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		state := &flattenState[T]{}

		// Count every source up front, so a source that completes
		// synchronously cannot bring the counter to zero early.
		state.active.Add(int64(len(sources)))
		for _, source := range sources {
			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) { destination.NextWithContext(ctx, v) },
				func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
				func(ctx context.Context) { state.innerDone(ctx, destination) },
			))
			state.track(sub)
		}

		if len(sources) == 0 {
			destination.CompleteWithContext(ctx)
		}

		return func() { state.cancelAll(nil) }
	})
}

// zipQueues[A, B] holds the per-source FIFO buffers shared by Zip2.
type zipQueues[A, B any] struct {
	mu        sync.Mutex
	qa        []A
	qb        []B
	aDone     bool
	bDone     bool
	completed bool
}

// Zip2 pairs values positionally: the nth value from a is paired with the
// nth value from b, in arrival order, via a per-source FIFO queue (spec
// §4.9). It completes once either queue is drained and that source has
// completed.
func Zip2[A, B, R any](a Observable[A], b Observable[B], zipper func(A, B) R) Observable[R] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[R]) Teardown {
		state := &zipState[R]{}
		queues := &zipQueues[A, B]{}

		drain := func(ctx context.Context) {
			queues.mu.Lock()
			defer queues.mu.Unlock()

			for len(queues.qa) > 0 && len(queues.qb) > 0 {
				va, vb := queues.qa[0], queues.qb[0]
				queues.qa = queues.qa[1:]
				queues.qb = queues.qb[1:]

				result, err := invokeZipper(zipper, va, vb)
				if err != nil {
					state.fail(ctx, destination, err)
					return
				}

				destination.NextWithContext(ctx, result)
			}

			if !queues.completed && ((len(queues.qa) == 0 && queues.aDone) || (len(queues.qb) == 0 && queues.bDone)) {
				queues.completed = true
				state.complete(ctx, destination)
			}
		}

		subA := a.SubscribeWithContext(ctx, NewObserverWithContext(
			func(ctx context.Context, v A) {
				queues.mu.Lock()
				queues.qa = append(queues.qa, v)
				queues.mu.Unlock()
				drain(ctx)
			},
			func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
			func(ctx context.Context) {
				queues.mu.Lock()
				queues.aDone = true
				queues.mu.Unlock()
				drain(ctx)
			},
		))

		subB := b.SubscribeWithContext(ctx, NewObserverWithContext(
			func(ctx context.Context, v B) {
				queues.mu.Lock()
				queues.qb = append(queues.qb, v)
				queues.mu.Unlock()
				drain(ctx)
			},
			func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
			func(ctx context.Context) {
				queues.mu.Lock()
				queues.bDone = true
				queues.mu.Unlock()
				drain(ctx)
			},
		))

		return func() {
			subA.Unsubscribe()
			subB.Unsubscribe()
		}
	})
}

// Zip pairs the nth value of every source positionally into a slice,
// completing once any source's queue is drained and that source has
// completed (spec §4.9's zip generalized to N same-typed sources).
func Zip[T any](sources ...Observable[T]) Observable[[]T] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[[]T]) Teardown {
		if len(sources) == 0 {
			destination.CompleteWithContext(ctx)
			return nil
		}

		state := &zipState[[]T]{}

		var mu sync.Mutex
		queues := make([][]T, len(sources))
		done := make([]bool, len(sources))

		drain := func(ctx context.Context) {
			mu.Lock()
			defer mu.Unlock()

			for {
				ready := true
				for _, q := range queues {
					if len(q) == 0 {
						ready = false
						break
					}
				}
				if !ready {
					break
				}

				tuple := make([]T, len(sources))
				for i := range queues {
					tuple[i] = queues[i][0]
					queues[i] = queues[i][1:]
				}

				destination.NextWithContext(ctx, tuple)
			}

			for i := range queues {
				if len(queues[i]) == 0 && done[i] {
					state.complete(ctx, destination)
					return
				}
			}
		}

		subs := make([]Subscription, len(sources))
		for i, source := range sources {
			i := i
			subs[i] = source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					mu.Lock()
					queues[i] = append(queues[i], v)
					mu.Unlock()
					drain(ctx)
				},
				func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
				func(ctx context.Context) {
					mu.Lock()
					done[i] = true
					mu.Unlock()
					drain(ctx)
				},
			))
		}

		return func() {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
		}
	})
}

// zipState is the single-winner termination guard shared by Zip2/Zip/
// CombineLatest2/CombineLatest.
type zipState[R any] struct {
	terminated atomic.Bool
}

func (s *zipState[R]) fail(ctx context.Context, destination Observer[R], err error) {
	if s.terminated.CompareAndSwap(false, true) {
		destination.ErrorWithContext(ctx, err)
	}
}

func (s *zipState[R]) complete(ctx context.Context, destination Observer[R]) {
	if s.terminated.CompareAndSwap(false, true) {
		destination.CompleteWithContext(ctx)
	}
}

// CombineLatest2 emits combiner(latest_a, latest_b) on every new value from
// either source, once both have produced at least one value (spec §4.9). It
// completes when the last source completes.
func CombineLatest2[A, B, R any](a Observable[A], b Observable[B], combiner func(A, B) R) Observable[R] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[R]) Teardown {
		state := &zipState[R]{}

		var mu sync.Mutex
		var latestA A
		var latestB B
		hasA, hasB := false, false
		aDone, bDone := false, false

		emit := func(ctx context.Context) {
			mu.Lock()
			if !hasA || !hasB {
				mu.Unlock()
				return
			}
			va, vb := latestA, latestB
			mu.Unlock()

			result, err := invokeZipper(combiner, va, vb)
			if err != nil {
				state.fail(ctx, destination, err)
				return
			}

			destination.NextWithContext(ctx, result)
		}

		subA := a.SubscribeWithContext(ctx, NewObserverWithContext(
			func(ctx context.Context, v A) {
				mu.Lock()
				latestA = v
				hasA = true
				mu.Unlock()
				emit(ctx)
			},
			func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
			func(ctx context.Context) {
				mu.Lock()
				aDone = true
				done := bDone
				mu.Unlock()
				if done {
					state.complete(ctx, destination)
				}
			},
		))

		subB := b.SubscribeWithContext(ctx, NewObserverWithContext(
			func(ctx context.Context, v B) {
				mu.Lock()
				latestB = v
				hasB = true
				mu.Unlock()
				emit(ctx)
			},
			func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
			func(ctx context.Context) {
				mu.Lock()
				bDone = true
				done := aDone
				mu.Unlock()
				if done {
					state.complete(ctx, destination)
				}
			},
		))

		return func() {
			subA.Unsubscribe()
			subB.Unsubscribe()
		}
	})
}

// CombineLatest emits a slice of every source's latest value whenever any
// source emits, once every source has produced at least one value (spec
// §4.9's combine_latest generalized to N same-typed sources).
func CombineLatest[T any](sources ...Observable[T]) Observable[[]T] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[[]T]) Teardown {
		if len(sources) == 0 {
			destination.CompleteWithContext(ctx)
			return nil
		}

		state := &zipState[[]T]{}

		var mu sync.Mutex
		latest := make([]T, len(sources))
		has := make([]bool, len(sources))
		done := make([]bool, len(sources))

		allReady := func() bool {
			for _, v := range has {
				if !v {
					return false
				}
			}
			return true
		}

		emit := func(ctx context.Context) {
			mu.Lock()
			if !allReady() {
				mu.Unlock()
				return
			}
			tuple := append([]T(nil), latest...)
			mu.Unlock()

			destination.NextWithContext(ctx, tuple)
		}

		subs := make([]Subscription, len(sources))
		for i, source := range sources {
			i := i
			subs[i] = source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					mu.Lock()
					latest[i] = v
					has[i] = true
					mu.Unlock()
					emit(ctx)
				},
				func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
				func(ctx context.Context) {
					mu.Lock()
					done[i] = true
					allDone := true
					for _, d := range done {
						if !d {
							allDone = false
							break
						}
					}
					mu.Unlock()
					if allDone {
						state.complete(ctx, destination)
					}
				},
			))
		}

		return func() {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
		}
	})
}

// WithLatestFrom drives emissions from this; on each of this's values it
// attaches other's latest value via combiner, emitting only once other has
// produced at least one value (spec §4.9).
func WithLatestFrom[A, B, R any](other Observable[B], combiner func(A, B) R) func(Observable[A]) Observable[R] {
	return func(source Observable[A]) Observable[R] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[R]) Teardown {
			var mu sync.Mutex
			var latestB B
			hasB := false

			otherSub := other.SubscribeWithContext(ctx, NewObserverWithContext(
				func(_ context.Context, v B) {
					mu.Lock()
					latestB = v
					hasB = true
					mu.Unlock()
				},
				func(ctx context.Context, err error) { destination.ErrorWithContext(ctx, err) },
				func(context.Context) {},
			))

			mainSub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v A) {
					mu.Lock()
					vb, ok := latestB, hasB
					mu.Unlock()

					if !ok {
						return
					}

					result, err := invokeZipper(combiner, v, vb)
					if err != nil {
						destination.ErrorWithContext(ctx, err)
						return
					}

					destination.NextWithContext(ctx, result)
				},
				destination.ErrorWithContext,
				destination.CompleteWithContext,
			))

			return func() {
				mainSub.Unsubscribe()
				otherSub.Unsubscribe()
			}
		})
	}
}

// StartWith prepends values, synchronously, before forwarding the source's
// own emissions (spec §4.9).
func StartWith[T any](values ...T) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			for _, v := range values {
				if destination.IsClosed() {
					return nil
				}
				destination.NextWithContext(ctx, v)
			}

			sub := source.SubscribeWithContext(ctx, destination)
			return sub.Unsubscribe
		})
	}
}

// StartWithObservable prepends another source's emissions, awaiting its
// Completed before forwarding this source's own emissions (spec §4.9).
func StartWithObservable[T any](other Observable[T]) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			var currentSub atomic.Pointer[Subscription]

			otherSub := other.SubscribeWithContext(ctx, NewObserverWithContext(
				destination.NextWithContext,
				destination.ErrorWithContext,
				func(ctx context.Context) {
					sub := source.SubscribeWithContext(ctx, destination)
					currentSub.Store(&sub)
				},
			))
			currentSub.Store(&otherSub)

			return func() {
				if sub := currentSub.Load(); sub != nil {
					(*sub).Unsubscribe()
				}
			}
		})
	}
}

// SequenceEqual collects both sources fully, then emits a single boolean:
// whether they produced the same values in the same order (spec §4.9).
func SequenceEqual[T comparable](a, b Observable[T]) Observable[bool] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[bool]) Teardown {
		var mu sync.Mutex
		var va, vb []T
		aDone, bDone := false, false
		terminated := false

		finish := func(ctx context.Context) {
			if terminated {
				return
			}

			if !aDone || !bDone {
				return
			}

			terminated = true

			equal := len(va) == len(vb)
			if equal {
				for i := range va {
					if va[i] != vb[i] {
						equal = false
						break
					}
				}
			}

			destination.NextWithContext(ctx, equal)
			destination.CompleteWithContext(ctx)
		}

		subA := a.SubscribeWithContext(ctx, NewObserverWithContext(
			func(_ context.Context, v T) {
				mu.Lock()
				va = append(va, v)
				mu.Unlock()
			},
			func(ctx context.Context, err error) {
				mu.Lock()
				defer mu.Unlock()
				if !terminated {
					terminated = true
					destination.ErrorWithContext(ctx, err)
				}
			},
			func(ctx context.Context) {
				mu.Lock()
				defer mu.Unlock()
				aDone = true
				finish(ctx)
			},
		))

		subB := b.SubscribeWithContext(ctx, NewObserverWithContext(
			func(_ context.Context, v T) {
				mu.Lock()
				vb = append(vb, v)
				mu.Unlock()
			},
			func(ctx context.Context, err error) {
				mu.Lock()
				defer mu.Unlock()
				if !terminated {
					terminated = true
					destination.ErrorWithContext(ctx, err)
				}
			},
			func(ctx context.Context) {
				mu.Lock()
				defer mu.Unlock()
				bDone = true
				finish(ctx)
			},
		))

		return func() {
			subA.Unsubscribe()
			subB.Unsubscribe()
		}
	})
}

func invokeZipper[A, B, R any](zipper func(A, B) R, a A, b B) (result R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return zipper(a, b), nil
}
