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

// ConnectableObservable wraps a source behind a Subject so that multiple
// observers share a single upstream subscription, started explicitly by
// Connect rather than on first Subscribe (spec §4.12).
type ConnectableObservable[T any] interface {
	Observable[T]

	// Connect subscribes the underlying source to the internal Subject and
	// returns a Subscription that tears down that single shared
	// subscription. Calling Connect again after a full disconnect starts a
	// fresh one.
	Connect() Subscription
}

var _ ConnectableObservable[int] = (*connectableObservable[int])(nil)

type connectableObservable[T any] struct {
	source  Observable[T]
	subject Subject[T]

	mu      sync.Mutex
	running Subscription
}

// newConnectableObservable wires source to subject, the shared multicast
// sink every observer subscribed via Subscribe will actually see.
func newConnectableObservable[T any](source Observable[T], subject Subject[T]) *connectableObservable[T] {
	return &connectableObservable[T]{source: source, subject: subject}
}

func (c *connectableObservable[T]) Subscribe(observer Observer[T]) Subscription {
	return c.subject.Subscribe(observer)
}

func (c *connectableObservable[T]) SubscribeWithContext(ctx context.Context, observer Observer[T]) Subscription {
	return c.subject.SubscribeWithContext(ctx, observer)
}

func (c *connectableObservable[T]) Connect() Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil && !c.running.IsClosed() {
		return c.running
	}

	c.running = c.source.Subscribe(c.subject.AsObserver())
	return c.running
}

// Publish returns a ConnectableObservable backed by a PublishSubject: late
// subscribers only see values emitted after they subscribe (spec §4.12).
func Publish[T any](source Observable[T]) ConnectableObservable[T] {
	return newConnectableObservable[T](source, NewPublishSubject[T]())
}

// Replay returns a ConnectableObservable backed by an unbounded
// ReplaySubject: every subscriber, however late, sees every value replayed
// from the beginning (spec §4.12).
func Replay[T any](source Observable[T]) ConnectableObservable[T] {
	return newConnectableObservable[T](source, NewReplaySubject[T](ReplaySubjectUnlimitedBufferSize))
}

// ReplayWithSize is Replay bounded to the last bufferSize values (spec
// §4.12, "replay(n)").
func ReplayWithSize[T any](source Observable[T], bufferSize int) ConnectableObservable[T] {
	return newConnectableObservable[T](source, NewReplaySubject[T](bufferSize))
}

// RefCount wraps a ConnectableObservable so that the first subscriber
// triggers Connect, the last unsubscribe tears down the connection, and a
// subsequent subscription after full disconnect triggers a fresh Connect
// (spec §4.12). This is offered as a standalone operator over any
// ConnectableObservable — not fused only into Share — resolving spec §9's
// Open Question in favor of composability: `Pipe1(Publish(src), RefCount)`
// and `Share(src)` both go through the same code path.
func RefCount[T any](source ConnectableObservable[T]) Observable[T] {
	rc := &refCounted[T]{source: source}
	return NewUnsafeObservable(func(destination Observer[T]) Teardown {
		sub := source.Subscribe(destination)
		rc.acquire()
		return func() {
			sub.Unsubscribe()
			rc.release()
		}
	})
}

type refCounted[T any] struct {
	source ConnectableObservable[T]

	mu      sync.Mutex
	count   int
	connect Subscription
}

func (rc *refCounted[T]) acquire() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.count++
	if rc.count == 1 {
		rc.connect = rc.source.Connect()
	}
}

func (rc *refCounted[T]) release() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.count--
	if rc.count == 0 && rc.connect != nil {
		rc.connect.Unsubscribe()
		rc.connect = nil
	}
}

// Share is Publish().RefCount(): a multicast source that connects on first
// subscriber and disconnects on last unsubscribe (spec §4.12).
func Share[T any](source Observable[T]) Observable[T] {
	return RefCount[T](Publish[T](source))
}
