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

// MergeMap subscribes to every inner Observable produced by project as soon
// as its outer value arrives, and interleaves their values arrival-order
// (spec §4.8: "concurrently on arrival"). It completes once the outer has
// completed and every inner has completed.
func MergeMap[T, R any](project func(value T) Observable[R]) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			state := &flattenState[R]{}
			state.active.Add(1) // the outer subscription itself counts as "active" until it completes

			outer := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) {
						inner, err := invokeFlattenProject(project, value)
						if err != nil {
							state.fail(ctx, destination, err)
							return
						}

						state.active.Add(1)
						innerSub := inner.SubscribeWithContext(ctx, NewObserverWithContext(
							func(ctx context.Context, v R) { destination.NextWithContext(ctx, v) },
							func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
							func(ctx context.Context) { state.innerDone(ctx, destination) },
						))
						state.track(innerSub)
					},
					func(ctx context.Context, err error) { state.fail(ctx, destination, err) },
					func(ctx context.Context) { state.innerDone(ctx, destination) },
				),
			)
			state.track(outer)

			return func() { state.cancelAll(nil) }
		})
	}
}

// ConcatMap subscribes to inner Observables strictly one at a time, waiting
// for each to complete before subscribing to the next, and never buffers
// pending outer values in a recursive call stack — it is an explicit state
// machine with a FIFO pending queue, per the design note in spec §9 ("must
// NOT buffer all inner sources eagerly... write this as a state machine").
func ConcatMap[T, R any](project func(value T) Observable[R]) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			machine := &concatMapMachine[T, R]{
				ctx:         subscriberCtx,
				destination: destination,
				project:     project,
			}

			outer := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) { machine.enqueue(ctx, value) },
					func(ctx context.Context, err error) { machine.failOnce(ctx, err) },
					func(ctx context.Context) { machine.outerComplete(ctx) },
				),
			)
			machine.outerSub = outer

			return machine.cancel
		})
	}
}

// concatMapMachine is the explicit state machine backing ConcatMap: exactly
// one inner subscription is active at a time, and outer values that arrive
// while an inner is running are appended to pending instead of recursing.
type concatMapMachine[T, R any] struct {
	ctx         context.Context
	destination Observer[R]
	project     func(value T) Observable[R]

	mu           sync.Mutex
	pending      []T
	innerRunning bool
	outerDone    bool
	terminated   bool

	outerSub   Subscription
	currentSub Subscription
}

func (m *concatMapMachine[T, R]) enqueue(ctx context.Context, value T) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}

	if m.innerRunning {
		m.pending = append(m.pending, value)
		m.mu.Unlock()
		return
	}

	m.innerRunning = true
	m.mu.Unlock()

	m.startInner(ctx, value)
}

func (m *concatMapMachine[T, R]) startInner(ctx context.Context, value T) {
	inner, err := invokeFlattenProject(m.project, value)
	if err != nil {
		m.failOnce(ctx, err)
		return
	}

	sub := inner.SubscribeWithContext(ctx, NewObserverWithContext(
		func(ctx context.Context, v R) { m.destination.NextWithContext(ctx, v) },
		func(ctx context.Context, err error) { m.failOnce(ctx, err) },
		func(ctx context.Context) { m.innerComplete(ctx) },
	))

	m.mu.Lock()
	m.currentSub = sub
	m.mu.Unlock()
}

func (m *concatMapMachine[T, R]) innerComplete(ctx context.Context) {
	m.mu.Lock()

	if m.terminated {
		m.mu.Unlock()
		return
	}

	if len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		m.startInner(ctx, next)
		return
	}

	m.innerRunning = false
	done := m.outerDone
	m.mu.Unlock()

	if done {
		m.terminate(func() { m.destination.CompleteWithContext(ctx) })
	}
}

func (m *concatMapMachine[T, R]) outerComplete(ctx context.Context) {
	m.mu.Lock()
	m.outerDone = true
	running := m.innerRunning
	m.mu.Unlock()

	if !running {
		m.terminate(func() { m.destination.CompleteWithContext(ctx) })
	}
}

func (m *concatMapMachine[T, R]) failOnce(ctx context.Context, err error) {
	m.terminate(func() { m.destination.ErrorWithContext(ctx, err) })
}

func (m *concatMapMachine[T, R]) terminate(deliver func()) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.mu.Unlock()

	deliver()
}

func (m *concatMapMachine[T, R]) cancel() {
	m.mu.Lock()
	m.terminated = true
	outer := m.outerSub
	current := m.currentSub
	m.mu.Unlock()

	if outer != nil {
		outer.Unsubscribe()
	}
	if current != nil {
		current.Unsubscribe()
	}
}

// SwitchMap subscribes to the inner Observable of the latest outer value,
// cancelling whatever inner was previously active (spec §4.8: "on new outer
// item, cancel previous inner"). Completion is resolved via a per-inner
// generation counter (Open Question, spec §9): downstream completes only
// when the outer has completed AND the most recently started inner has
// completed, so a late-arriving completion from an already-superseded inner
// can never race the rule.
func SwitchMap[T, R any](project func(value T) Observable[R]) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewObservableWithContext(func(subscriberCtx context.Context, destination Observer[R]) Teardown {
			machine := &switchMapMachine[T, R]{destination: destination, project: project}

			outer := source.SubscribeWithContext(
				subscriberCtx,
				NewObserverWithContext(
					func(ctx context.Context, value T) { machine.switchTo(ctx, value) },
					func(ctx context.Context, err error) { machine.failOnce(ctx, err) },
					func(ctx context.Context) { machine.outerComplete(ctx) },
				),
			)
			machine.outerSub = outer

			return machine.cancel
		})
	}
}

type switchMapMachine[T, R any] struct {
	destination Observer[R]
	project     func(value T) Observable[R]

	mu               sync.Mutex
	generation       uint64 // generation of the most recently started inner
	outerDone        bool
	terminated       bool
	outerSub         Subscription
	currentInnerSub  Subscription
	currentInnerDone bool
}

func (m *switchMapMachine[T, R]) switchTo(ctx context.Context, value T) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}

	m.generation++
	gen := m.generation
	previous := m.currentInnerSub
	m.currentInnerSub = nil
	m.currentInnerDone = false
	m.mu.Unlock()

	if previous != nil {
		previous.Unsubscribe()
	}

	inner, err := invokeFlattenProject(m.project, value)
	if err != nil {
		m.failOnce(ctx, err)
		return
	}

	sub := inner.SubscribeWithContext(ctx, NewObserverWithContext(
		func(ctx context.Context, v R) {
			if m.isCurrentGeneration(gen) {
				m.destination.NextWithContext(ctx, v)
			}
		},
		func(ctx context.Context, err error) { m.failOnce(ctx, err) },
		func(ctx context.Context) { m.innerComplete(ctx, gen) },
	))

	m.mu.Lock()
	if m.generation == gen && !m.terminated {
		m.currentInnerSub = sub
	} else {
		m.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	m.mu.Unlock()
}

func (m *switchMapMachine[T, R]) isCurrentGeneration(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == gen && !m.terminated
}

func (m *switchMapMachine[T, R]) innerComplete(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if m.terminated || m.generation != gen {
		m.mu.Unlock()
		return
	}

	m.currentInnerDone = true
	outerDone := m.outerDone
	m.mu.Unlock()

	if outerDone {
		m.terminate(func() { m.destination.CompleteWithContext(ctx) })
	}
}

// outerComplete implements the Open Question resolution from spec §9:
// "complete when outer completed AND the most recent inner completed" —
// tracked here via the per-inner generation counter (no inner ever started,
// or the inner tagged with the current generation has already completed).
func (m *switchMapMachine[T, R]) outerComplete(ctx context.Context) {
	m.mu.Lock()
	m.outerDone = true
	noInnerYet := m.generation == 0
	innerDone := m.currentInnerDone
	m.mu.Unlock()

	if noInnerYet || innerDone {
		m.terminate(func() { m.destination.CompleteWithContext(ctx) })
	}
}

func (m *switchMapMachine[T, R]) failOnce(ctx context.Context, err error) {
	m.terminate(func() { m.destination.ErrorWithContext(ctx, err) })
}

func (m *switchMapMachine[T, R]) terminate(deliver func()) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	inner := m.currentInnerSub
	m.currentInnerSub = nil
	m.mu.Unlock()

	if inner != nil {
		inner.Unsubscribe()
	}

	deliver()
}

func (m *switchMapMachine[T, R]) cancel() {
	m.mu.Lock()
	m.terminated = true
	outer := m.outerSub
	inner := m.currentInnerSub
	m.currentInnerSub = nil
	m.mu.Unlock()

	if outer != nil {
		outer.Unsubscribe()
	}
	if inner != nil {
		inner.Unsubscribe()
	}
}

// flattenState tracks first-error-wins termination across a concurrently
// subscribed set of inner Observables (MergeMap), per spec §7's "First-
// error-wins" rule for concurrent combiners.
type flattenState[R any] struct {
	active     atomic.Int64
	terminated atomic.Bool

	mu   sync.Mutex
	subs []Subscription
}

func (s *flattenState[R]) track(sub Subscription) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

func (s *flattenState[R]) innerDone(ctx context.Context, destination Observer[R]) {
	if s.active.Add(-1) == 0 && !s.terminated.Load() {
		if s.terminated.CompareAndSwap(false, true) {
			destination.CompleteWithContext(ctx)
		}
	}
}

func (s *flattenState[R]) fail(ctx context.Context, destination Observer[R], err error) {
	if s.terminated.CompareAndSwap(false, true) {
		destination.ErrorWithContext(ctx, err)
		s.cancelAll(nil)
	}
}

func (s *flattenState[R]) cancelAll(except Subscription) {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		if sub != except {
			sub.Unsubscribe()
		}
	}
}

func invokeFlattenProject[T, R any](project func(value T) Observable[R], value T) (result Observable[R], err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = newUserError(recoverValueToError(recovered))
		}
	}()

	return project(value), nil
}
