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
	"container/heap"
	"sync"
	"time"
)

// TestScheduler is a Scheduler with a manually advanced virtual clock,
// for deterministic tests of temporal operators (spec §4.4). Nothing
// submitted to it runs until Now() is advanced to (or past) its fire-time, via
// AdvanceTimeBy or TriggerActions.
type TestScheduler interface {
	Scheduler

	// Now returns the scheduler's current virtual time.
	Now() time.Duration
	// AdvanceTimeBy runs every due task in fire-time order, advancing Now
	// to each task's fire-time before running it, until the next pending
	// task's fire-time exceeds Now()+d; Now is then set to exactly
	// Now()+d (spec §4.4).
	AdvanceTimeBy(d time.Duration)
	// TriggerActions runs exactly one due task, if any, and jumps Now to
	// its fire-time (spec §4.4). It is a no-op if the queue is empty.
	TriggerActions()
}

type virtualTask struct {
	fireAt    time.Duration
	seq       uint64
	run       func()
	period    time.Duration // zero for one-shot tasks
	cancelled *bool
}

// virtualTaskHeap orders by (fireAt, seq) ascending, matching spec §4.4's
// tie-break: "two tasks with identical fire-time run in the order they
// were scheduled."
type virtualTaskHeap []*virtualTask

func (h virtualTaskHeap) Len() int { return len(h) }
func (h virtualTaskHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h virtualTaskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *virtualTaskHeap) Push(x any)   { *h = append(*h, x.(*virtualTask)) }
func (h *virtualTaskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ TestScheduler = (*testSchedulerImpl)(nil)

type testSchedulerImpl struct {
	mu       sync.Mutex
	now      time.Duration
	queue    virtualTaskHeap
	nextSeq  uint64
	shutdown bool
}

// NewTestScheduler returns a fresh TestScheduler with Now() == 0.
func NewTestScheduler() TestScheduler {
	s := &testSchedulerImpl{}
	heap.Init(&s.queue)
	return s
}

func (s *testSchedulerImpl) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *testSchedulerImpl) schedule(fireAt time.Duration, period time.Duration, run func()) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := false
	task := &virtualTask{
		fireAt:    fireAt,
		seq:       s.nextSeq,
		run:       run,
		period:    period,
		cancelled: &cancelled,
	}
	s.nextSeq++

	if !s.shutdown {
		heap.Push(&s.queue, task)
	}

	return NewSubscription(func() {
		s.mu.Lock()
		cancelled = true
		s.mu.Unlock()
	})
}

func (s *testSchedulerImpl) ScheduleDirect(task func()) Subscription {
	return s.ScheduleDirectDelayed(task, 0)
}

func (s *testSchedulerImpl) ScheduleDirectDelayed(task func(), delay time.Duration) Subscription {
	s.mu.Lock()
	fireAt := s.now + delay
	s.mu.Unlock()
	return s.schedule(fireAt, 0, task)
}

func (s *testSchedulerImpl) SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription {
	s.mu.Lock()
	fireAt := s.now + initialDelay
	s.mu.Unlock()
	return s.schedule(fireAt, period, task)
}

func (s *testSchedulerImpl) CreateWorker() Worker {
	return &testSchedulerWorker{scheduler: s}
}

func (s *testSchedulerImpl) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	s.queue = s.queue[:0]
}

// popDue pops and returns the single earliest task whose fire-time is <=
// deadline, or nil if none qualifies. Cancelled tasks are discarded and
// skipped transparently.
func (s *testSchedulerImpl) popDue(deadline time.Duration) *virtualTask {
	for s.queue.Len() > 0 {
		next := s.queue[0]

		if *next.cancelled {
			heap.Pop(&s.queue)
			continue
		}

		if next.fireAt > deadline {
			return nil
		}

		heap.Pop(&s.queue)
		return next
	}

	return nil
}

func (s *testSchedulerImpl) AdvanceTimeBy(d time.Duration) {
	s.mu.Lock()
	target := s.now + d

	for {
		task := s.popDue(target)
		if task == nil {
			break
		}

		s.now = task.fireAt
		s.mu.Unlock()

		task.run()

		s.mu.Lock()
		if task.period > 0 && !*task.cancelled && !s.shutdown {
			task.fireAt = s.now + task.period
			task.seq = s.nextSeq
			s.nextSeq++
			heap.Push(&s.queue, task)
		}
	}

	s.now = target
	s.mu.Unlock()
}

func (s *testSchedulerImpl) TriggerActions() {
	s.mu.Lock()

	task := s.popDue(maxDuration)
	if task == nil {
		s.mu.Unlock()
		return
	}

	s.now = task.fireAt
	s.mu.Unlock()

	task.run()

	s.mu.Lock()
	if task.period > 0 && !*task.cancelled && !s.shutdown {
		task.fireAt = s.now + task.period
		task.seq = s.nextSeq
		s.nextSeq++
		heap.Push(&s.queue, task)
	}
	s.mu.Unlock()
}

const maxDuration = time.Duration(1<<63 - 1)

type testSchedulerWorker struct {
	scheduler *testSchedulerImpl
	mu        sync.Mutex
	cancelled bool
	subs      []Subscription
}

func (w *testSchedulerWorker) guarded(sub Subscription) Subscription {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		sub.Unsubscribe()
		return sub
	}
	w.subs = append(w.subs, sub)
	w.mu.Unlock()
	return sub
}

func (w *testSchedulerWorker) ScheduleDirect(task func()) Subscription {
	return w.guarded(w.scheduler.ScheduleDirect(task))
}

func (w *testSchedulerWorker) ScheduleDirectDelayed(task func(), delay time.Duration) Subscription {
	return w.guarded(w.scheduler.ScheduleDirectDelayed(task, delay))
}

func (w *testSchedulerWorker) SchedulePeriodic(task func(), initialDelay, period time.Duration) Subscription {
	return w.guarded(w.scheduler.SchedulePeriodic(task, initialDelay, period))
}

func (w *testSchedulerWorker) Cancel() {
	w.mu.Lock()
	w.cancelled = true
	subs := w.subs
	w.subs = nil
	w.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (w *testSchedulerWorker) IsCancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelled
}

var _ Worker = (*testSchedulerWorker)(nil)
