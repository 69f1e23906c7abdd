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
)

var _ Subject[int] = (*behaviorSubjectImpl[int])(nil)

// NewBehaviorSubject replays its single latest value to every new subscriber
// before any further Next, then behaves like a publish subject (spec §4.5,
// Behavior row). The seed value is delivered to subscribers that join before
// any Next call is ever made.
func NewBehaviorSubject[T any](seed T) Subject[T] {
	return &behaviorSubjectImpl[T]{
		registry: newSubjectRegistry[T](),
		value:    seed,
	}
}

type behaviorSubjectImpl[T any] struct {
	// mu serializes Next/Error/Complete against Subscribe so that the
	// replayed value and the registry membership observed by a new
	// subscriber are always mutually consistent.
	mu       sync.Mutex
	registry *subjectRegistry[T]
	value    T
}

// Implements Observable.
func (s *behaviorSubjectImpl[T]) Subscribe(destination Observer[T]) Subscription {
	return s.SubscribeWithContext(context.Background(), destination)
}

// Implements Observable.
func (s *behaviorSubjectImpl[T]) SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	s.mu.Lock()

	if s.registry.isTerminated() {
		s.mu.Unlock()
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	current := s.value
	entry, ok := s.registry.add(subscriber)
	s.mu.Unlock()

	if !ok {
		// Terminated between the check above and the CAS; replay the
		// recorded terminal instead of the stale value.
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	subscriber.NextWithContext(ctx, current)

	subscriber.Add(func() {
		s.registry.remove(entry)
	})

	return subscriber
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) Next(value T) {
	s.NextWithContext(context.Background(), value)
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) NextWithContext(ctx context.Context, value T) {
	s.mu.Lock()

	if s.registry.isTerminated() {
		s.mu.Unlock()
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	s.value = value
	snap := s.registry.load()
	s.mu.Unlock()

	for _, entry := range snap.entries {
		entry.subscriber.NextWithContext(ctx, value)
	}
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) Error(err error) {
	s.ErrorWithContext(context.Background(), err)
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) ErrorWithContext(ctx context.Context, err error) {
	s.mu.Lock()
	entries, ok := s.registry.terminate(err)
	s.mu.Unlock()

	if !ok {
		OnDroppedNotification(ctx, NewNotificationError[T](err))
		return
	}

	for _, entry := range entries {
		entry.subscriber.ErrorWithContext(ctx, err)
	}
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) Complete() {
	s.CompleteWithContext(context.Background())
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) CompleteWithContext(ctx context.Context) {
	s.mu.Lock()
	entries, ok := s.registry.terminate(nil)
	s.mu.Unlock()

	if !ok {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
		return
	}

	for _, entry := range entries {
		entry.subscriber.CompleteWithContext(ctx)
	}
}

func (s *behaviorSubjectImpl[T]) HasObserver() bool {
	return s.registry.countObservers() > 0
}

func (s *behaviorSubjectImpl[T]) CountObservers() int {
	return s.registry.countObservers()
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) IsClosed() bool {
	return s.registry.isTerminated()
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) HasThrown() bool {
	snap := s.registry.load()
	return snap.terminated && snap.isError
}

// Implements Observer.
func (s *behaviorSubjectImpl[T]) IsCompleted() bool {
	snap := s.registry.load()
	return snap.terminated && !snap.isError
}

// Value returns the most recently emitted value (or the seed, if Next was
// never called).
func (s *behaviorSubjectImpl[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *behaviorSubjectImpl[T]) AsObservable() Observable[T] {
	return s
}

func (s *behaviorSubjectImpl[T]) AsObserver() Observer[T] {
	return s
}
