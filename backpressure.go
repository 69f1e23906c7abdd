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
	"math"
	"sync"
	"sync/atomic"
)

// BackpressurePolicy selects how a demand-aware source reacts when it wants
// to emit but downstream demand is exhausted (spec §4.13).
type BackpressurePolicy uint8

const (
	// BackpressureBuffer enqueues in an unbounded queue and drains once
	// demand arrives.
	BackpressureBuffer BackpressurePolicy = iota
	// BackpressureDropNoBuffer discards the arriving item with no buffer at
	// all.
	BackpressureDropNoBuffer
	// BackpressureDropLatest enqueues with a fixed bound; once full, the
	// arriving item is discarded.
	BackpressureDropLatest
	// BackpressureDropOldest enqueues with a fixed bound; once full, the
	// oldest queued item is evicted to make room for the arriving one.
	BackpressureDropOldest
	// BackpressureError enqueues with a fixed bound; once full, the
	// subscription is terminated with BackpressureSignal.
	BackpressureError
)

// defaultBackpressureCapacity is the queue bound used when a caller passes
// capacity <= 0 to NewCreateFlowable/ToFlowable, for the DropLatest,
// DropOldest, and Error policies (Buffer is deliberately unbounded and
// ignores capacity; spec §4.13).
const defaultBackpressureCapacity = 256

// demandUnbounded is the sentinel demand value meaning "no limit" (spec
// §4.13: "the special value MAX means unbounded").
const demandUnbounded = int64(math.MaxInt64)

// FlowableEmitter is the handle a demand-aware producer uses to push values
// (spec §4.13, "create(emit_fn, backpressure_policy)"). Next returns false
// once the subscription is cancelled or already terminated, as a hint that
// the producer should stop calling it.
type FlowableEmitter[T any] interface {
	Next(value T) bool
	Error(err error)
	Complete()
	IsCancelled() bool
}

// DemandSubscription is the subscription handle of a demand-aware source
// (spec §4.13 / §6 "Backpressure"). Request(n) with n <= 0 synthesizes
// ProtocolError(IllegalArgument) and terminates the subscription.
type DemandSubscription interface {
	Request(n int64)
	Cancel()
	IsCancelled() bool
}

// FlowableObserver is the demand-aware counterpart of Observer: it receives
// a DemandSubscription before any value, and must call Request to open
// demand.
type FlowableObserver[T any] interface {
	OnSubscribe(subscription DemandSubscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Flowable is a demand-aware Stream: emission only proceeds while demand is
// open (spec §4.13).
type Flowable[T any] interface {
	Subscribe(observer FlowableObserver[T]) DemandSubscription
	SubscribeWithContext(ctx context.Context, observer FlowableObserver[T]) DemandSubscription
	// AsObservable subscribes with unbounded demand, adapting the
	// demand-aware source back to an ordinary Stream.
	AsObservable() Observable[T]
}

var _ Flowable[int] = (*flowableImpl[int])(nil)

type flowableImpl[T any] struct {
	policy   BackpressurePolicy
	capacity int
	produce  func(emit FlowableEmitter[T]) Teardown
}

// NewCreateFlowable builds a Flowable from an imperative emitter function,
// honoring policy for downstream that falls behind (spec §4.13). capacity
// bounds the queue for the DropLatest, DropOldest, and Error policies
// (spec S8: "capacity 4 and policy Error"); capacity <= 0 falls back to
// defaultBackpressureCapacity. Buffer and DropNoBuffer ignore capacity.
func NewCreateFlowable[T any](policy BackpressurePolicy, capacity int, produce func(emit FlowableEmitter[T]) Teardown) Flowable[T] {
	if capacity <= 0 {
		capacity = defaultBackpressureCapacity
	}

	return &flowableImpl[T]{policy: policy, capacity: capacity, produce: produce}
}

func (f *flowableImpl[T]) Subscribe(observer FlowableObserver[T]) DemandSubscription {
	return f.SubscribeWithContext(context.Background(), observer)
}

func (f *flowableImpl[T]) SubscribeWithContext(ctx context.Context, observer FlowableObserver[T]) DemandSubscription {
	sub := newDemandSubscription(ctx, f.policy, f.capacity, observer)
	observer.OnSubscribe(sub)

	teardown := f.produce(sub.emitter())
	if teardown != nil {
		sub.onCancel(teardown)
	}

	return sub
}

func (f *flowableImpl[T]) AsObservable() Observable[T] {
	return NewObservableWithContext(func(ctx context.Context, destination Observer[T]) Teardown {
		bridge := &flowableObserverBridge[T]{ctx: ctx, destination: destination}
		sub := f.SubscribeWithContext(ctx, bridge)
		sub.Request(demandUnbounded)
		return sub.Cancel
	})
}

// flowableObserverBridge adapts a FlowableObserver call pattern back onto a
// plain Observer, for AsObservable and for FromDemandPublisher (interop.go).
type flowableObserverBridge[T any] struct {
	ctx         context.Context
	destination Observer[T]
}

func (b *flowableObserverBridge[T]) OnSubscribe(DemandSubscription) {}
func (b *flowableObserverBridge[T]) OnNext(value T) {
	b.destination.NextWithContext(b.ctx, value)
}
func (b *flowableObserverBridge[T]) OnError(err error) {
	b.destination.ErrorWithContext(b.ctx, err)
}
func (b *flowableObserverBridge[T]) OnComplete() {
	b.destination.CompleteWithContext(b.ctx)
}

// demandSubscription implements the credit-flow state machine of spec
// §4.13: a saturating demand counter, a queue sized per policy, and a
// work-in-progress guarded drain loop so that at most one goroutine ever
// drains a given subscription (grounded on the enter-once pattern the
// specification itself prescribes, and on subject_registry.go's CAS-loop
// idiom for the lock-free pieces of the state).
type demandSubscription[T any] struct {
	ctx      context.Context
	policy   BackpressurePolicy
	capacity int
	observer FlowableObserver[T]

	demand int64 // atomic, saturating; demandUnbounded means unlimited
	wip    int32 // atomic, enter-once drain guard

	mu        sync.Mutex
	queue     []T
	done      bool
	err       error
	cancelled int32 // atomic

	teardown Teardown
}

func newDemandSubscription[T any](ctx context.Context, policy BackpressurePolicy, capacity int, observer FlowableObserver[T]) *demandSubscription[T] {
	if capacity <= 0 {
		capacity = defaultBackpressureCapacity
	}

	return &demandSubscription[T]{ctx: ctx, policy: policy, capacity: capacity, observer: observer}
}

func (s *demandSubscription[T]) onCancel(teardown Teardown) {
	s.mu.Lock()
	already := atomic.LoadInt32(&s.cancelled) == 1
	if !already {
		s.teardown = teardown
	}
	s.mu.Unlock()

	if already {
		teardown()
	}
}

func (s *demandSubscription[T]) emitter() FlowableEmitter[T] {
	return (*demandEmitter[T])(s)
}

func (s *demandSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.terminateWithProtocolError()
		return
	}

	if atomic.LoadInt32(&s.cancelled) == 1 {
		return
	}

	for {
		current := atomic.LoadInt64(&s.demand)
		if current == demandUnbounded {
			return
		}

		next := current + n
		if next < current || n == demandUnbounded {
			next = demandUnbounded
		}

		if atomic.CompareAndSwapInt64(&s.demand, current, next) {
			break
		}
	}

	s.drain()
}

func (s *demandSubscription[T]) terminateWithProtocolError() {
	if !atomic.CompareAndSwapInt32(&s.cancelled, 0, 1) {
		return
	}

	s.runTeardown()
	s.observer.OnError(newProtocolError(ErrIllegalRequest))
}

func (s *demandSubscription[T]) Cancel() {
	if !atomic.CompareAndSwapInt32(&s.cancelled, 0, 1) {
		return
	}

	s.runTeardown()
}

func (s *demandSubscription[T]) runTeardown() {
	s.mu.Lock()
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	if teardown != nil {
		teardown()
	}
}

func (s *demandSubscription[T]) IsCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) == 1
}

// drain implements the work-in-progress enter-once loop: while demand > 0,
// queue non-empty, and not cancelled, pop and deliver one value, decrementing
// demand. On upstream done with an empty queue, deliver the recorded
// terminal.
func (s *demandSubscription[T]) drain() {
	if !atomic.CompareAndSwapInt32(&s.wip, 0, 1) {
		return
	}

	for {
		s.drainOnce()

		if atomic.AddInt32(&s.wip, -1) == 0 {
			return
		}
		atomic.StoreInt32(&s.wip, 1)
	}
}

func (s *demandSubscription[T]) drainOnce() {
	for {
		if atomic.LoadInt32(&s.cancelled) == 1 {
			return
		}

		s.mu.Lock()

		if len(s.queue) == 0 {
			terminal, err, done := s.done, s.err, s.done
			s.mu.Unlock()
			if terminal {
				s.deliverTerminal(done, err)
			}
			return
		}

		demand := atomic.LoadInt64(&s.demand)
		if demand <= 0 {
			s.mu.Unlock()
			return
		}

		value := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if demand != demandUnbounded {
			atomic.AddInt64(&s.demand, -1)
		}

		s.observer.OnNext(value)
	}
}

func (s *demandSubscription[T]) deliverTerminal(done bool, err error) {
	if !done {
		return
	}

	if !atomic.CompareAndSwapInt32(&s.cancelled, 0, 1) {
		return
	}

	s.runTeardown()

	if err != nil {
		s.observer.OnError(err)
	} else {
		s.observer.OnComplete()
	}
}

// demandEmitter is demandSubscription viewed through the FlowableEmitter
// facet; the identical memory layout lets it be produced with a plain type
// conversion instead of an extra allocation.
type demandEmitter[T any] demandSubscription[T]

func (e *demandEmitter[T]) sub() *demandSubscription[T] { return (*demandSubscription[T])(e) }

func (e *demandEmitter[T]) Next(value T) bool {
	s := e.sub()

	if atomic.LoadInt32(&s.cancelled) == 1 {
		return false
	}

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return false
	}

	demand := atomic.LoadInt64(&s.demand)
	if demand > 0 && len(s.queue) == 0 {
		s.mu.Unlock()
		atomic.AddInt64(&s.demand, boundedDecrement(demand))
		s.observer.OnNext(value)
		return true
	}

	switch s.policy {
	case BackpressureBuffer:
		s.queue = append(s.queue, value)
	case BackpressureDropNoBuffer:
		// discard silently: no buffer at all.
	case BackpressureDropLatest:
		if len(s.queue) < s.capacity {
			s.queue = append(s.queue, value)
		}
	case BackpressureDropOldest:
		if len(s.queue) >= s.capacity {
			s.queue = s.queue[1:]
		}
		s.queue = append(s.queue, value)
	case BackpressureError:
		if len(s.queue) >= s.capacity {
			// Overflow terminates at once: the queued values are discarded
			// so drain delivers the error without waiting for demand.
			s.queue = nil
			s.done = true
			s.err = newBackpressureError()
			s.mu.Unlock()
			s.drain()
			return false
		}
		s.queue = append(s.queue, value)
	}

	s.mu.Unlock()
	s.drain()
	return true
}

// boundedDecrement returns -1 unless demand is already unbounded, in which
// case it returns 0 so the atomic subtraction is a no-op.
func boundedDecrement(demand int64) int64 {
	if demand == demandUnbounded {
		return 0
	}
	return -1
}

func (e *demandEmitter[T]) Error(err error) {
	s := e.sub()

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.err = err
	s.mu.Unlock()

	s.drain()
}

func (e *demandEmitter[T]) Complete() {
	s := e.sub()

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	s.drain()
}

func (e *demandEmitter[T]) IsCancelled() bool {
	return e.sub().IsCancelled()
}

// ToFlowable adapts a plain Stream to a Flowable, applying policy to values
// that arrive while downstream demand is exhausted (spec §4.13, "A
// converter from a non-demand source applies the policy in an adapter").
// capacity bounds the DropLatest/DropOldest/Error queue; capacity <= 0
// falls back to defaultBackpressureCapacity.
func ToFlowable[T any](source Observable[T], policy BackpressurePolicy, capacity int) Flowable[T] {
	return NewCreateFlowable(policy, capacity, func(emit FlowableEmitter[T]) Teardown {
		sub := source.Subscribe(NewObserver(
			func(value T) {
				emit.Next(value)
			},
			func(err error) {
				emit.Error(err)
			},
			func() {
				emit.Complete()
			},
		))
		return sub.Unsubscribe
	})
}
