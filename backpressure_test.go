package ro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingFlowableObserver[T any] struct {
	sub        DemandSubscription
	values     []T
	err        error
	completed  bool
	subscribed bool
}

func (r *recordingFlowableObserver[T]) OnSubscribe(sub DemandSubscription) {
	r.subscribed = true
	r.sub = sub
}
func (r *recordingFlowableObserver[T]) OnNext(v T)      { r.values = append(r.values, v) }
func (r *recordingFlowableObserver[T]) OnError(e error)  { r.err = e }
func (r *recordingFlowableObserver[T]) OnComplete()      { r.completed = true }

func TestFlowable_queuesUntilDemandArrives(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var emit FlowableEmitter[int]
	flowable := NewCreateFlowable(BackpressureBuffer, 0, func(e FlowableEmitter[int]) Teardown {
		emit = e
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)
	is.True(observer.subscribed)

	emit.Next(1)
	emit.Next(2)
	is.Empty(observer.values)

	observer.sub.Request(1)
	is.Equal([]int{1}, observer.values)

	observer.sub.Request(1)
	is.Equal([]int{1, 2}, observer.values)
}

func TestFlowable_deliversTerminalAsSoonAsQueueDrains(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var emit FlowableEmitter[int]
	flowable := NewCreateFlowable(BackpressureBuffer, 0, func(e FlowableEmitter[int]) Teardown {
		emit = e
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	emit.Next(1)
	emit.Complete()
	is.Empty(observer.values)
	is.False(observer.completed)

	observer.sub.Request(1)
	is.Equal([]int{1}, observer.values)
	is.True(observer.completed)
}

func TestFlowable_requestWithNonPositiveNTerminatesWithProtocolError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	flowable := NewCreateFlowable(BackpressureBuffer, 0, func(e FlowableEmitter[int]) Teardown {
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	observer.sub.Request(0)

	is.ErrorIs(observer.err, ErrIllegalRequest)
	is.True(observer.sub.IsCancelled())
}

func TestFlowable_cancelRunsTeardown(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	torn := false
	flowable := NewCreateFlowable(BackpressureBuffer, 0, func(e FlowableEmitter[int]) Teardown {
		return func() { torn = true }
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	observer.sub.Cancel()
	is.True(torn)
	is.True(observer.sub.IsCancelled())
}

func TestFlowable_asObservableRequestsUnboundedDemand(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	flowable := NewCreateFlowable(BackpressureBuffer, 0, func(e FlowableEmitter[int]) Teardown {
		e.Next(1)
		e.Next(2)
		e.Complete()
		return nil
	})

	values, err := Collect(flowable.AsObservable())

	is.NoError(err)
	is.Equal([]int{1, 2}, values)
}

func TestToFlowable_dropNoBufferDiscardsEverythingUntilRequested(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	flowable := ToFlowable[int](Just(1, 2, 3), BackpressureDropNoBuffer, 0)

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	is.Empty(observer.values)
	is.True(observer.completed)
}

func TestToFlowable_bufferPolicyPreservesEveryValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	flowable := ToFlowable[int](Just(1, 2, 3), BackpressureBuffer, 0)

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)
	is.Empty(observer.values)

	observer.sub.Request(3)

	is.Equal([]int{1, 2, 3}, observer.values)
	is.True(observer.completed)
}

func TestToFlowable_propagatesSourceError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	flowable := ToFlowable[int](Throw[int](boom), BackpressureBuffer, 0)

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)
	observer.sub.Request(1)

	is.ErrorIs(observer.err, boom)
}

func TestFlowable_dropLatestDiscardsArrivalsOnceCapacityIsFull(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var emit FlowableEmitter[int]
	flowable := NewCreateFlowable(BackpressureDropLatest, 2, func(e FlowableEmitter[int]) Teardown {
		emit = e
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	// Capacity 2: the first two values fill the queue, the rest are
	// dropped since DropLatest discards newly arriving items once full.
	emit.Next(1)
	emit.Next(2)
	emit.Next(3)
	emit.Next(4)
	is.Empty(observer.values)

	observer.sub.Request(10)
	is.Equal([]int{1, 2}, observer.values)
}

func TestFlowable_dropOldestEvictsTheHeadOfTheQueueOnceCapacityIsFull(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var emit FlowableEmitter[int]
	flowable := NewCreateFlowable(BackpressureDropOldest, 2, func(e FlowableEmitter[int]) Teardown {
		emit = e
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	// Capacity 2: each arrival past the bound evicts the oldest queued
	// value, so only the two most recent values survive.
	emit.Next(1)
	emit.Next(2)
	emit.Next(3)
	emit.Next(4)
	is.Empty(observer.values)

	observer.sub.Request(10)
	is.Equal([]int{3, 4}, observer.values)
}

func TestFlowable_errorPolicyTerminatesWithBackpressureSignalOnceCapacityIsFull(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	// Matches the capacity-4/Error scenario: the subscriber requests 0,
	// the producer emits 5 values, and the subscriber receives
	// Errored(BackpressureSignal) with no values at all.
	var emit FlowableEmitter[int]
	flowable := NewCreateFlowable(BackpressureError, 4, func(e FlowableEmitter[int]) Teardown {
		emit = e
		return nil
	})

	observer := &recordingFlowableObserver[int]{}
	flowable.Subscribe(observer)

	emit.Next(1)
	emit.Next(2)
	emit.Next(3)
	emit.Next(4)
	emit.Next(5)

	is.Empty(observer.values)
	is.ErrorIs(observer.err, ErrBackpressure)
	is.True(observer.sub.IsCancelled())
}
