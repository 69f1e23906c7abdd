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

var _ Subject[int] = (*publishSubjectImpl[int])(nil)

// NewPublishSubject broadcasts a value to observers (fanout). Values
// emitted before a given subscription started are never delivered to it
// (spec §4.5, Publish row).
func NewPublishSubject[T any]() Subject[T] {
	return &publishSubjectImpl[T]{registry: newSubjectRegistry[T]()}
}

type publishSubjectImpl[T any] struct {
	registry *subjectRegistry[T]
}

// Implements Observable.
func (s *publishSubjectImpl[T]) Subscribe(destination Observer[T]) Subscription {
	return s.SubscribeWithContext(context.Background(), destination)
}

// Implements Observable.
func (s *publishSubjectImpl[T]) SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	entry, ok := s.registry.add(subscriber)
	if !ok {
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	subscriber.Add(func() {
		s.registry.remove(entry)
	})

	return subscriber
}

// Implements Observer.
func (s *publishSubjectImpl[T]) Next(value T) {
	s.NextWithContext(context.Background(), value)
}

// Implements Observer.
func (s *publishSubjectImpl[T]) NextWithContext(ctx context.Context, value T) {
	snap := s.registry.load()
	if snap.terminated {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	for _, entry := range snap.entries {
		entry.subscriber.NextWithContext(ctx, value)
	}
}

// Implements Observer.
func (s *publishSubjectImpl[T]) Error(err error) {
	s.ErrorWithContext(context.Background(), err)
}

// Implements Observer.
func (s *publishSubjectImpl[T]) ErrorWithContext(ctx context.Context, err error) {
	entries, ok := s.registry.terminate(err)
	if !ok {
		OnDroppedNotification(ctx, NewNotificationError[T](err))
		return
	}

	for _, entry := range entries {
		entry.subscriber.ErrorWithContext(ctx, err)
	}
}

// Implements Observer.
func (s *publishSubjectImpl[T]) Complete() {
	s.CompleteWithContext(context.Background())
}

// Implements Observer.
func (s *publishSubjectImpl[T]) CompleteWithContext(ctx context.Context) {
	entries, ok := s.registry.terminate(nil)
	if !ok {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
		return
	}

	for _, entry := range entries {
		entry.subscriber.CompleteWithContext(ctx)
	}
}

func (s *publishSubjectImpl[T]) HasObserver() bool {
	return s.registry.countObservers() > 0
}

func (s *publishSubjectImpl[T]) CountObservers() int {
	return s.registry.countObservers()
}

// Implements Observer.
func (s *publishSubjectImpl[T]) IsClosed() bool {
	return s.registry.isTerminated()
}

// Implements Observer.
func (s *publishSubjectImpl[T]) HasThrown() bool {
	snap := s.registry.load()
	return snap.terminated && snap.isError
}

// Implements Observer.
func (s *publishSubjectImpl[T]) IsCompleted() bool {
	snap := s.registry.load()
	return snap.terminated && !snap.isError
}

func (s *publishSubjectImpl[T]) AsObservable() Observable[T] {
	return s
}

func (s *publishSubjectImpl[T]) AsObserver() Observer[T] {
	return s
}
