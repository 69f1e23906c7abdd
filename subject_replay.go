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

// ReplaySubjectUnlimitedBufferSize disables the replay buffer's size cap.
const ReplaySubjectUnlimitedBufferSize = -1

var _ Subject[int] = (*replaySubjectImpl[int])(nil)

// NewReplaySubject replays up to bufferSize past values to every new
// subscriber, oldest first, then behaves like a publish subject (spec §4.5,
// Replay row). Pass ReplaySubjectUnlimitedBufferSize to keep every value
// ever emitted.
func NewReplaySubject[T any](bufferSize int) Subject[T] {
	return &replaySubjectImpl[T]{
		registry:   newSubjectRegistry[T](),
		bufferSize: bufferSize,
	}
}

type replaySubjectImpl[T any] struct {
	// mu serializes Next against Subscribe/buffer-trim so that the replayed
	// slice handed to a new subscriber is a consistent snapshot.
	mu         sync.Mutex
	registry   *subjectRegistry[T]
	values     []T
	bufferSize int
}

// Implements Observable.
func (s *replaySubjectImpl[T]) Subscribe(destination Observer[T]) Subscription {
	return s.SubscribeWithContext(context.Background(), destination)
}

// Implements Observable.
func (s *replaySubjectImpl[T]) SubscribeWithContext(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	s.mu.Lock()

	buffered := make([]T, len(s.values))
	copy(buffered, s.values)

	if s.registry.isTerminated() {
		s.mu.Unlock()
		for _, v := range buffered {
			subscriber.NextWithContext(ctx, v)
		}
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	entry, ok := s.registry.add(subscriber)
	s.mu.Unlock()

	if !ok {
		for _, v := range buffered {
			subscriber.NextWithContext(ctx, v)
		}
		s.registry.deliverRecordedTerminal(ctx, subscriber)
		return subscriber
	}

	for _, v := range buffered {
		subscriber.NextWithContext(ctx, v)
	}

	subscriber.Add(func() {
		s.registry.remove(entry)
	})

	return subscriber
}

// Implements Observer.
func (s *replaySubjectImpl[T]) Next(value T) {
	s.NextWithContext(context.Background(), value)
}

// Implements Observer.
func (s *replaySubjectImpl[T]) NextWithContext(ctx context.Context, value T) {
	s.mu.Lock()

	if s.registry.isTerminated() {
		s.mu.Unlock()
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	s.values = append(s.values, value)
	if s.bufferSize != ReplaySubjectUnlimitedBufferSize && len(s.values) > s.bufferSize {
		OnDroppedNotification(ctx, NewNotificationNext(s.values[0]))
		s.values = s.values[len(s.values)-s.bufferSize:]
	}

	snap := s.registry.load()
	s.mu.Unlock()

	for _, entry := range snap.entries {
		entry.subscriber.NextWithContext(ctx, value)
	}
}

// Implements Observer.
func (s *replaySubjectImpl[T]) Error(err error) {
	s.ErrorWithContext(context.Background(), err)
}

// Implements Observer.
func (s *replaySubjectImpl[T]) ErrorWithContext(ctx context.Context, err error) {
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
func (s *replaySubjectImpl[T]) Complete() {
	s.CompleteWithContext(context.Background())
}

// Implements Observer.
func (s *replaySubjectImpl[T]) CompleteWithContext(ctx context.Context) {
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

func (s *replaySubjectImpl[T]) HasObserver() bool {
	return s.registry.countObservers() > 0
}

func (s *replaySubjectImpl[T]) CountObservers() int {
	return s.registry.countObservers()
}

// Implements Observer.
func (s *replaySubjectImpl[T]) IsClosed() bool {
	return s.registry.isTerminated()
}

// Implements Observer.
func (s *replaySubjectImpl[T]) HasThrown() bool {
	snap := s.registry.load()
	return snap.terminated && snap.isError
}

// Implements Observer.
func (s *replaySubjectImpl[T]) IsCompleted() bool {
	snap := s.registry.load()
	return snap.terminated && !snap.isError
}

func (s *replaySubjectImpl[T]) AsObservable() Observable[T] {
	return s
}

func (s *replaySubjectImpl[T]) AsObserver() Observer[T] {
	return s
}
