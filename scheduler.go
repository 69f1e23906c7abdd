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
	"sync"
	"time"
)

// Scheduler mediates thread affinity for subscribeOn/observeOn boundaries
// (spec §4.3). Every method is safe for concurrent use.
type Scheduler interface {
	// ScheduleDirect runs task once, as soon as the scheduler can.
	ScheduleDirect(task func()) Subscription
	// ScheduleDirectDelayed runs task once, no sooner than delay from now.
	ScheduleDirectDelayed(task func(), delay time.Duration) Subscription
	// SchedulePeriodic runs task repeatedly: first after initialDelay, then
	// every period thereafter, until the returned Subscription is cancelled.
	SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription
	// CreateWorker returns a Worker bound to this scheduler that guarantees
	// sequential, non-overlapping execution of the tasks submitted to it.
	CreateWorker() Worker
	// Shutdown releases every resource held by the scheduler. Scheduled
	// tasks that have not started are discarded; tasks already running are
	// allowed to finish.
	Shutdown()
}

// Worker offers the same scheduling surface as Scheduler, scoped to a
// single sequential execution context (spec §4.3: "guarantees sequential,
// non-overlapping execution of its tasks").
type Worker interface {
	ScheduleDirect(task func()) Subscription
	ScheduleDirectDelayed(task func(), delay time.Duration) Subscription
	SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription
	// Cancel stops this worker: queued tasks are discarded and no further
	// task submitted to it will run.
	Cancel()
	IsCancelled() bool
}

// inlineScheduler runs every task synchronously on the calling goroutine.
// Tasks scheduled by a task that is itself running are queued FIFO and
// drained once the outer task returns (spec §4.3, "Inline/Trampoline").
// Delayed and periodic scheduling are not supported on this scheduler and
// panic, per the same section ("MUST fail loudly").
var _ Scheduler = (*inlineScheduler)(nil)

type inlineScheduler struct{}

// NewInlineScheduler returns the trampoline scheduler: every task runs on
// the calling goroutine, synchronously, with reentrant submissions queued
// FIFO behind the task currently running.
func NewInlineScheduler() Scheduler {
	return &inlineScheduler{}
}

func (s *inlineScheduler) ScheduleDirect(task func()) Subscription {
	return s.CreateWorker().ScheduleDirect(task)
}

func (s *inlineScheduler) ScheduleDirectDelayed(task func(), delay time.Duration) Subscription {
	panic("ro: inline scheduler does not support delayed scheduling")
}

func (s *inlineScheduler) SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription {
	panic("ro: inline scheduler does not support periodic scheduling")
}

func (s *inlineScheduler) CreateWorker() Worker {
	return newTrampolineWorker()
}

func (s *inlineScheduler) Shutdown() {}

// trampolineWorker is a single-goroutine FIFO queue: a task scheduled while
// another task from the same worker is already running is appended to the
// queue and drained by the outermost call instead of recursing.
type trampolineWorker struct {
	mu        sync.Mutex
	queue     []func()
	running   bool
	cancelled bool
}

func newTrampolineWorker() *trampolineWorker {
	return &trampolineWorker{}
}

func (w *trampolineWorker) ScheduleDirect(task func()) Subscription {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return NewSubscription(nil)
	}

	if w.running {
		w.queue = append(w.queue, task)
		w.mu.Unlock()
		return NewSubscription(nil)
	}

	w.running = true
	w.mu.Unlock()

	w.drain(task)

	return NewSubscription(nil)
}

func (w *trampolineWorker) drain(first func()) {
	first()

	for {
		w.mu.Lock()
		if w.cancelled || len(w.queue) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}

		next := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		next()
	}
}

func (w *trampolineWorker) ScheduleDirectDelayed(task func(), delay time.Duration) Subscription {
	panic("ro: inline scheduler does not support delayed scheduling")
}

func (w *trampolineWorker) SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription {
	panic("ro: inline scheduler does not support periodic scheduling")
}

func (w *trampolineWorker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelled = true
	w.queue = nil
}

func (w *trampolineWorker) IsCancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelled
}
