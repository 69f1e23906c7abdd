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

// Map transforms every value emitted by the source Observable with project.
// A panic recovered from project surfaces downstream as UserError (spec §7).
func Map[T, R any](project func(value T) R) func(Observable[T]) Observable[R] {
	return MapIWithContext(func(_ context.Context, value T, _ int64) R {
		return project(value)
	})
}

// MapIWithContext is Map with the element index and the notification's
// context made available to project.
func MapIWithContext[T, R any](project func(ctx context.Context, value T, index int64) R) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			index := int64(0)

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						mapped, err := invokeProject(project, ctx, value, index)
						index++

						if err != nil {
							destination.ErrorWithContext(ctx, err)
							return
						}

						destination.NextWithContext(ctx, mapped)
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}

// invokeProject calls project and converts a recovered panic into a
// UserError, matching the teacher's panic-to-error convention at operator
// boundaries (see observer.go's onNext recovery).
func invokeProject[T, R any](project func(ctx context.Context, value T, index int64) R, ctx context.Context, value T, index int64) (result R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return project(ctx, value, index), nil
}

// Filter keeps only the values for which predicate returns true.
func Filter[T any](predicate func(value T) bool) func(Observable[T]) Observable[T] {
	return FilterIWithContext(func(_ context.Context, value T, _ int64) bool {
		return predicate(value)
	})
}

// FilterIWithContext is Filter with the element index and the notification's
// context made available to predicate.
func FilterIWithContext[T any](predicate func(ctx context.Context, value T, index int64) bool) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[T]) Teardown {
			index := int64(0)

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						keep, err := invokePredicate(predicate, ctx, value, index)
						index++

						if err != nil {
							destination.ErrorWithContext(ctx, err)
							return
						}

						if keep {
							destination.NextWithContext(ctx, value)
						}
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}

func invokePredicate[T any](predicate func(ctx context.Context, value T, index int64) bool, ctx context.Context, value T, index int64) (result bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return predicate(ctx, value, index), nil
}

// Scan folds every value through accumulator, emitting the running
// accumulated value after each one (unlike Reduce, which emits only once on
// completion).
func Scan[T, R any](accumulator func(agg R, item T) R, seed R) func(Observable[T]) Observable[R] {
	return ScanWithContext(func(ctx context.Context, agg R, item T) (context.Context, R) {
		return ctx, accumulator(agg, item)
	}, seed)
}

// ScanWithContext is Scan with the notification's context threaded through
// the accumulator.
func ScanWithContext[T, R any](accumulator func(ctx context.Context, agg R, item T) (context.Context, R), seed R) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			agg := seed

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						nextCtx, next, err := invokeAccumulator(accumulator, ctx, agg, value)
						if err != nil {
							destination.ErrorWithContext(ctx, err)
							return
						}

						agg = next
						destination.NextWithContext(nextCtx, agg)
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}

func invokeAccumulator[T, R any](accumulator func(ctx context.Context, agg R, item T) (context.Context, R), ctx context.Context, agg R, item T) (resultCtx context.Context, result R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	resultCtx, result = accumulator(ctx, agg, item)
	return resultCtx, result, nil
}

// ScanSeeded is Scan seeded by calling seed() at subscribe time, instead of
// sharing one seed value across every subscriber (mirrors Defer's per-
// subscriber factory pattern).
func ScanSeeded[T, R any](accumulator func(agg R, item T) R, seed func() R) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			agg := seed()

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						result, err := invokeScanSeeded(accumulator, agg, value)
						if err != nil {
							destination.ErrorWithContext(ctx, err)
							return
						}

						agg = result
						destination.NextWithContext(ctx, agg)
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}

func invokeScanSeeded[T, R any](accumulator func(agg R, item T) R, agg R, item T) (result R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return accumulator(agg, item), nil
}

// ToList collects every value emitted by the source into a slice, emitted
// once the source completes.
func ToList[T any]() func(Observable[T]) Observable[[]T] {
	return func(source Observable[T]) Observable[[]T] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[[]T]) Teardown {
			var list []T

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(_ context.Context, value T) {
						list = append(list, value)
					},
					destination.ErrorWithContext,
					func(ctx context.Context) {
						destination.NextWithContext(ctx, list)
						destination.CompleteWithContext(ctx)
					},
				),
			)

			return sub.Unsubscribe
		})
	}
}

// ToSet collects every distinct value emitted by the source into a set,
// emitted once the source completes.
func ToSet[T comparable]() func(Observable[T]) Observable[map[T]struct{}] {
	return func(source Observable[T]) Observable[map[T]struct{}] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[map[T]struct{}]) Teardown {
			set := map[T]struct{}{}

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(_ context.Context, value T) {
						set[value] = struct{}{}
					},
					destination.ErrorWithContext,
					func(ctx context.Context) {
						destination.NextWithContext(ctx, set)
						destination.CompleteWithContext(ctx)
					},
				),
			)

			return sub.Unsubscribe
		})
	}
}

// ToMap collects every value emitted by the source into a map keyed by
// keySelector, emitted once the source completes. A later value with a key
// already present overwrites the earlier one.
func ToMap[T any, K comparable](keySelector func(value T) K) func(Observable[T]) Observable[map[K]T] {
	return func(source Observable[T]) Observable[map[K]T] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[map[K]T]) Teardown {
			result := map[K]T{}

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						key, err := invokeKeySelector(keySelector, value)
						if err != nil {
							destination.ErrorWithContext(ctx, err)
							return
						}

						result[key] = value
					},
					destination.ErrorWithContext,
					func(ctx context.Context) {
						destination.NextWithContext(ctx, result)
						destination.CompleteWithContext(ctx)
					},
				),
			)

			return sub.Unsubscribe
		})
	}
}

func invokeKeySelector[T any, K comparable](keySelector func(value T) K, value T) (key K, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return keySelector(value), nil
}

// CollectInto folds every value into an accumulator obtained from supplier
// for this subscription, emitting it once on Completed (spec §4.7,
// "collect(supplier, accumulator)"). Unlike Scan/ScanSeeded it emits only
// the final container, never an intermediate one.
func CollectInto[T, A any](supplier func() A, accumulator func(acc A, value T) A) func(Observable[T]) Observable[A] {
	return func(source Observable[T]) Observable[A] {
		return NewUnsafeObservableWithContext(func(ctx context.Context, destination Observer[A]) Teardown {
			acc := supplier()

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, value T) {
					next, err := invokeCollectAccumulator(accumulator, acc, value)
					if err != nil {
						destination.ErrorWithContext(ctx, err)
						return
					}
					acc = next
				},
				destination.ErrorWithContext,
				func(ctx context.Context) {
					destination.NextWithContext(ctx, acc)
					destination.CompleteWithContext(ctx)
				},
			))

			return sub.Unsubscribe
		})
	}
}

func invokeCollectAccumulator[T, A any](accumulator func(acc A, value T) A, acc A, value T) (result A, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return accumulator(acc, value), nil
}

// Distinct emits only values never seen before on this subscription.
func Distinct[T comparable]() func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[T]) Teardown {
			seen := map[T]struct{}{}

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						if _, ok := seen[value]; ok {
							return
						}

						seen[value] = struct{}{}
						destination.NextWithContext(ctx, value)
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}

// DistinctUntilChanged emits a value only when it differs from the
// immediately preceding one.
func DistinctUntilChanged[T comparable]() func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewUnsafeObservableWithContext(func(subscriberCtx context.Context, destination Observer[T]) Teardown {
			var last T

			hasLast := false

			sub := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						if hasLast && last == value {
							return
						}

						hasLast = true
						last = value
						destination.NextWithContext(ctx, value)
					},
					destination.ErrorWithContext,
					destination.CompleteWithContext,
				),
			)

			return sub.Unsubscribe
		})
	}
}
