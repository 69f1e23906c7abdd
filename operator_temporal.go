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
	"time"
)

// Delay re-schedules every value (and the terminal) d later, preserving
// order, via the given Scheduler (spec §4.10). Tests drive it with
// TestScheduler so delays are deterministic.
func Delay[T any](d time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			worker := scheduler.CreateWorker()

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					worker.ScheduleDirectDelayed(func() { destination.NextWithContext(ctx, v) }, d)
				},
				func(ctx context.Context, err error) {
					worker.ScheduleDirectDelayed(func() { destination.ErrorWithContext(ctx, err) }, d)
				},
				func(ctx context.Context) {
					worker.ScheduleDirectDelayed(func() { destination.CompleteWithContext(ctx) }, d)
				},
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// Timeout starts a timer on subscribe, resetting it on every value; if the
// timer elapses before the next notification, it fires
// Errored(TimeoutSignal) and cancels upstream (spec §4.10).
func Timeout[T any](d time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			worker := scheduler.CreateWorker()

			var mu sync.Mutex
			var timerSub Subscription
			fired := false

			armTimer := func() {
				mu.Lock()
				if timerSub != nil {
					timerSub.Unsubscribe()
				}
				timerSub = worker.ScheduleDirectDelayed(func() {
					mu.Lock()
					if fired {
						mu.Unlock()
						return
					}
					fired = true
					mu.Unlock()

					destination.ErrorWithContext(ctx, newTimeoutError())
				}, d)
				mu.Unlock()
			}

			disarmTimer := func() bool {
				mu.Lock()
				defer mu.Unlock()
				if fired {
					return false
				}
				if timerSub != nil {
					timerSub.Unsubscribe()
				}
				return true
			}

			armTimer()

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					if disarmTimer() {
						destination.NextWithContext(ctx, v)
						armTimer()
					}
				},
				func(ctx context.Context, err error) {
					if disarmTimer() {
						destination.ErrorWithContext(ctx, err)
					}
				},
				func(ctx context.Context) {
					if disarmTimer() {
						destination.CompleteWithContext(ctx)
					}
				},
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// Debounce schedules the most recent value at now+d, cancelling any pending
// emission on arrival of a new one; on upstream Completed it emits the
// pending value (if any) then Completed (spec §4.10).
func Debounce[T any](d time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			worker := scheduler.CreateWorker()

			var mu sync.Mutex
			var pendingSub Subscription
			hasPending := false
			var pendingValue T

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					mu.Lock()
					if pendingSub != nil {
						pendingSub.Unsubscribe()
					}
					hasPending = true
					pendingValue = v
					pendingSub = worker.ScheduleDirectDelayed(func() {
						mu.Lock()
						hasPending = false
						v := pendingValue
						mu.Unlock()
						destination.NextWithContext(ctx, v)
					}, d)
					mu.Unlock()
				},
				destination.ErrorWithContext,
				func(ctx context.Context) {
					mu.Lock()
					if pendingSub != nil {
						pendingSub.Unsubscribe()
					}
					pending, v := hasPending, pendingValue
					hasPending = false
					mu.Unlock()

					if pending {
						destination.NextWithContext(ctx, v)
					}
					destination.CompleteWithContext(ctx)
				},
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// ThrottleFirst emits the value that arrives when no window is open, then
// opens a window of w during which subsequent values are dropped (spec
// §4.10).
func ThrottleFirst[T any](w time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			worker := scheduler.CreateWorker()

			var mu sync.Mutex
			windowOpen := false

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					mu.Lock()
					if windowOpen {
						mu.Unlock()
						return
					}
					windowOpen = true
					mu.Unlock()

					destination.NextWithContext(ctx, v)

					worker.ScheduleDirectDelayed(func() {
						mu.Lock()
						windowOpen = false
						mu.Unlock()
					}, w)
				},
				destination.ErrorWithContext,
				destination.CompleteWithContext,
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// ThrottleLast (a.k.a. Sample) ticks every p and emits the most recent
// upstream value since the previous tick, if any (spec §4.10).
func ThrottleLast[T any](p time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
			worker := scheduler.CreateWorker()

			var mu sync.Mutex
			hasValue := false
			var latest T

			worker.SchedulePeriodic(func() {
				mu.Lock()
				if !hasValue {
					mu.Unlock()
					return
				}
				v := latest
				hasValue = false
				mu.Unlock()

				destination.NextWithContext(ctx, v)
			}, p, p)

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(_ context.Context, v T) {
					mu.Lock()
					latest = v
					hasValue = true
					mu.Unlock()
				},
				destination.ErrorWithContext,
				destination.CompleteWithContext,
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// Sample is an alias for ThrottleLast, matching the name used in §4.10's
// "throttle_last / sample(p)".
func Sample[T any](p time.Duration, scheduler Scheduler) func(Observable[T]) Observable[T] {
	return ThrottleLast[T](p, scheduler)
}

// Window groups count consecutive values into an inner Observable, started
// every skip values; overlapping when skip < count, gapped when skip > count
// (spec §4.10). The count==1 ambiguity noted in spec §9 is resolved to the
// uniform rule: a window always opens every skip items and closes after
// count items, with no special-cased synchronous singleton window.
func Window[T any](count, skip int) func(Observable[T]) Observable[Observable[T]] {
	return func(source Observable[T]) Observable[Observable[T]] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[Observable[T]]) Teardown {
			wm := newWindowManager[T](count, skip, ctx, destination)

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				wm.onValue,
				wm.onError,
				wm.onComplete,
			))

			return sub.Unsubscribe
		})
	}
}

// windowManager opens an inner Subject every skip items, tracks every still
// open window's remaining count, and closes each after its count items.
type windowManager[T any] struct {
	count, skip int
	ctx         context.Context
	destination Observer[Observable[T]]

	mu        sync.Mutex
	index     int
	openWins  []*openWindow[T]
}

type openWindow[T any] struct {
	subject   Subject[T]
	remaining int
}

func newWindowManager[T any](count, skip int, ctx context.Context, destination Observer[Observable[T]]) *windowManager[T] {
	return &windowManager[T]{count: count, skip: skip, ctx: ctx, destination: destination}
}

func (wm *windowManager[T]) onValue(ctx context.Context, value T) {
	wm.mu.Lock()

	if wm.index%wm.skip == 0 {
		subject := NewPublishSubject[T]()
		wm.openWins = append(wm.openWins, &openWindow[T]{subject: subject, remaining: wm.count})
		wm.destination.NextWithContext(ctx, subject.AsObservable())
	}
	wm.index++

	live := wm.openWins[:0]
	for _, win := range wm.openWins {
		win.subject.NextWithContext(ctx, value)
		win.remaining--
		if win.remaining > 0 {
			live = append(live, win)
		} else {
			win.subject.CompleteWithContext(ctx)
		}
	}
	wm.openWins = live

	wm.mu.Unlock()
}

func (wm *windowManager[T]) onError(ctx context.Context, err error) {
	wm.mu.Lock()
	wins := wm.openWins
	wm.openWins = nil
	wm.mu.Unlock()

	for _, win := range wins {
		win.subject.ErrorWithContext(ctx, err)
	}
	wm.destination.ErrorWithContext(ctx, err)
}

func (wm *windowManager[T]) onComplete(ctx context.Context) {
	wm.mu.Lock()
	wins := wm.openWins
	wm.openWins = nil
	wm.mu.Unlock()

	for _, win := range wins {
		win.subject.CompleteWithContext(ctx)
	}
	wm.destination.CompleteWithContext(ctx)
}

// Buffer is Window with each inner Observable collected into a slice
// instead of forwarded live (spec §4.10).
func Buffer[T any](count, skip int) func(Observable[T]) Observable[[]T] {
	return func(source Observable[T]) Observable[[]T] {
		return Pipe1(Window[T](count, skip)(source), flattenWindowsToSlices[T]())
	}
}

func flattenWindowsToSlices[T any]() func(Observable[Observable[T]]) Observable[[]T] {
	return func(windows Observable[Observable[T]]) Observable[[]T] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[[]T]) Teardown {
			state := &flattenState[[]T]{}
			state.active.Add(1)

			outer := windows.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, inner Observable[T]) {
					state.active.Add(1)

					var buf []T
					innerSub := inner.SubscribeWithContext(ctx, NewObserverWithContext(
						func(_ context.Context, v T) { buf = append(buf, v) },
						func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
						func(ctx context.Context) {
							destination.NextWithContext(ctx, buf)
							state.innerDone(ctx, destination)
						},
					))
					state.track(innerSub)
				},
				func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
				func(ctx context.Context) { state.innerDone(ctx, destination) },
			))
			state.track(outer)

			return func() { state.cancelAll(nil) }
		})
	}
}

// WindowTime groups values arriving within each span duration into an
// inner Observable; a new window opens every span (spec §4.10's "window(t)",
// non-overlapping variant).
func WindowTime[T any](span time.Duration, scheduler Scheduler) func(Observable[T]) Observable[Observable[T]] {
	return func(source Observable[T]) Observable[Observable[T]] {
		return NewObservableWithContext(func(ctx context.Context, destination Observer[Observable[T]]) Teardown {
			worker := scheduler.CreateWorker()

			var mu sync.Mutex
			var current Subject[T]

			openWindow := func(ctx context.Context) {
				current = NewPublishSubject[T]()
				destination.NextWithContext(ctx, current.AsObservable())
			}

			mu.Lock()
			openWindow(ctx)
			mu.Unlock()

			worker.SchedulePeriodic(func() {
				mu.Lock()
				closing := current
				openWindow(ctx)
				mu.Unlock()
				closing.CompleteWithContext(ctx)
			}, span, span)

			sub := source.SubscribeWithContext(ctx, NewObserverWithContext(
				func(ctx context.Context, v T) {
					mu.Lock()
					w := current
					mu.Unlock()
					w.NextWithContext(ctx, v)
				},
				func(ctx context.Context, err error) {
					mu.Lock()
					w := current
					mu.Unlock()
					w.ErrorWithContext(ctx, err)
					destination.ErrorWithContext(ctx, err)
				},
				func(ctx context.Context) {
					mu.Lock()
					w := current
					mu.Unlock()
					w.CompleteWithContext(ctx)
					destination.CompleteWithContext(ctx)
				},
			))

			return func() {
				worker.Cancel()
				sub.Unsubscribe()
			}
		})
	}
}

// BufferTime is WindowTime with each inner Observable collected into a
// slice instead of forwarded live (spec §4.10).
func BufferTime[T any](span time.Duration, scheduler Scheduler) func(Observable[T]) Observable[[]T] {
	return func(source Observable[T]) Observable[[]T] {
		return Pipe1(WindowTime[T](span, scheduler)(source), flattenWindowsToSlices[T]())
	}
}
