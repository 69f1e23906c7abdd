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

var _ Subject[int] = (*asyncSubjectImpl[int])(nil)

// NewAsyncSubject stores the latest value and emits it, followed by
// Complete, only when Complete is itself called; an Error short-circuits
// delivery of any stored value (spec §4.5, Async row).
func NewAsyncSubject[T any]() Subject[T] {
	return &asyncSubjectImpl[T]{registry: newSubjectRegistry[T]()}
}

type asyncSubjectImpl[T any] struct {
	mu       sync.Mutex
	registry *subjectRegistry[T]
	hasValue bool
	value    T
}

// Implements Observable.
func (s *asyncSubjectImpl[T]) Subscribe(destination Observer[T]) Subscription {
	return s.SubscribeWithContext(context.Background(), destination)
}

// Implements Observable.
func (s *asyncSubjectImpl[T]) SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	s.mu.Lock()

	if s.registry.isTerminated() {
		hasValue, value := s.hasValue, s.value
		s.mu.Unlock()

		snap := s.registry.load()
		if !snap.isError && hasValue {
			subscriber.NextWithContext(ctx, value)
		}
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	entry, ok := s.registry.add(subscriber)
	hasValue, value := s.hasValue, s.value
	s.mu.Unlock()

	if !ok {
		snap := s.registry.load()
		if !snap.isError && hasValue {
			subscriber.NextWithContext(ctx, value)
		}
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	subscriber.Add(func() {
		s.registry.remove(entry)
	})

	return subscriber
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) Next(value T) {
	s.NextWithContext(context.Background(), value)
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) NextWithContext(ctx context.Context, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.isTerminated() {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	s.hasValue = true
	s.value = value
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) Error(err error) {
	s.ErrorWithContext(context.Background(), err)
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) ErrorWithContext(ctx context.Context, err error) {
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
func (s *asyncSubjectImpl[T]) Complete() {
	s.CompleteWithContext(context.Background())
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) CompleteWithContext(ctx context.Context) {
	s.mu.Lock()
	entries, ok := s.registry.terminate(nil)
	hasValue, value := s.hasValue, s.value
	s.mu.Unlock()

	if !ok {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
		return
	}

	for _, entry := range entries {
		if hasValue {
			entry.subscriber.NextWithContext(ctx, value)
		}
		entry.subscriber.CompleteWithContext(ctx)
	}
}

func (s *asyncSubjectImpl[T]) HasObserver() bool {
	return s.registry.countObservers() > 0
}

func (s *asyncSubjectImpl[T]) CountObservers() int {
	return s.registry.countObservers()
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) IsClosed() bool {
	return s.registry.isTerminated()
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) HasThrown() bool {
	snap := s.registry.load()
	return snap.terminated && snap.isError
}

// Implements Observer.
func (s *asyncSubjectImpl[T]) IsCompleted() bool {
	snap := s.registry.load()
	return snap.terminated && !snap.isError
}

func (s *asyncSubjectImpl[T]) AsObservable() Observable[T] {
	return s
}

func (s *asyncSubjectImpl[T]) AsObserver() Observer[T] {
	return s
}
