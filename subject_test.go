package ro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSubject_onlyDeliversValuesEmittedAfterSubscribe(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewPublishSubject[int]()

	subject.Next(1)

	var received []int
	sub := subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(err error) {},
		func() {},
	))
	defer sub.Unsubscribe()

	subject.Next(2)
	subject.Next(3)

	is.Equal([]int{2, 3}, received)
}

func TestPublishSubject_fansOutToEveryObserver(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewPublishSubject[int]()

	var a, b []int
	subA := subject.Subscribe(NewObserver(func(v int) { a = append(a, v) }, func(error) {}, func() {}))
	subB := subject.Subscribe(NewObserver(func(v int) { b = append(b, v) }, func(error) {}, func() {}))
	defer subA.Unsubscribe()
	defer subB.Unsubscribe()

	is.Equal(2, subject.CountObservers())
	is.True(subject.HasObserver())

	subject.Next(42)

	is.Equal([]int{42}, a)
	is.Equal([]int{42}, b)
}

func TestPublishSubject_lateSubscriberAfterCompleteReceivesComplete(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewPublishSubject[int]()
	subject.Complete()

	completed := false
	subject.Subscribe(NewObserver(func(int) {}, func(error) {}, func() { completed = true }))

	is.True(completed)
	is.True(subject.IsClosed())
	is.True(subject.IsCompleted())
	is.False(subject.HasThrown())
}

func TestPublishSubject_lateSubscriberAfterErrorReceivesError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewPublishSubject[int]()
	subject.Error(ErrTimeout)

	var got error
	subject.Subscribe(NewObserver(func(int) {}, func(err error) { got = err }, func() {}))

	is.Equal(ErrTimeout, got)
	is.True(subject.HasThrown())
}

func TestPublishSubject_unsubscribeRemovesFromRegistry(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewPublishSubject[int]()
	sub := subject.Subscribe(NewObserver(func(int) {}, func(error) {}, func() {}))

	is.Equal(1, subject.CountObservers())

	sub.Unsubscribe()

	is.Equal(0, subject.CountObservers())
	is.False(subject.HasObserver())
}

func TestBehaviorSubject_replaysLatestValueToNewSubscriber(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewBehaviorSubject(0)

	var first []int
	sub1 := subject.Subscribe(NewObserver(func(v int) { first = append(first, v) }, func(error) {}, func() {}))
	defer sub1.Unsubscribe()

	is.Equal([]int{0}, first)

	subject.Next(1)
	subject.Next(2)

	var second []int
	sub2 := subject.Subscribe(NewObserver(func(v int) { second = append(second, v) }, func(error) {}, func() {}))
	defer sub2.Unsubscribe()

	is.Equal([]int{2}, second)

	subject.Next(3)
	is.Equal([]int{0, 1, 2, 3}, first)
	is.Equal([]int{2, 3}, second)
}

func TestBehaviorSubject_lateSubscriberAfterErrorGetsErrorOnly(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewBehaviorSubject("seed")
	subject.Error(ErrTimeout)

	var next []string
	var got error
	subject.Subscribe(NewObserver(
		func(v string) { next = append(next, v) },
		func(err error) { got = err },
		func() {},
	))

	is.Empty(next)
	is.Equal(ErrTimeout, got)
}

func TestReplaySubject_unboundedReplaysEveryValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewReplaySubject[int](ReplaySubjectUnlimitedBufferSize)

	subject.Next(1)
	subject.Next(2)
	subject.Next(3)

	var received []int
	sub := subject.Subscribe(NewObserver(func(v int) { received = append(received, v) }, func(error) {}, func() {}))
	defer sub.Unsubscribe()

	is.Equal([]int{1, 2, 3}, received)
}

func TestReplaySubject_boundedKeepsOnlyLastNValues(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewReplaySubject[int](2)

	subject.Next(1)
	subject.Next(2)
	subject.Next(3)

	var received []int
	sub := subject.Subscribe(NewObserver(func(v int) { received = append(received, v) }, func(error) {}, func() {}))
	defer sub.Unsubscribe()

	is.Equal([]int{2, 3}, received)
}

func TestReplaySubject_lateSubscriberAfterTerminalGetsBufferThenTerminal(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewReplaySubject[int](ReplaySubjectUnlimitedBufferSize)
	subject.Next(1)
	subject.Next(2)
	subject.Complete()

	var received []int
	completed := false
	subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(error) {},
		func() { completed = true },
	))

	is.Equal([]int{1, 2}, received)
	is.True(completed)
}

func TestAsyncSubject_emitsOnlyLastValueOnComplete(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewAsyncSubject[int]()

	var received []int
	completed := false
	sub := subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(error) {},
		func() { completed = true },
	))
	defer sub.Unsubscribe()

	subject.Next(1)
	subject.Next(2)
	subject.Next(3)

	is.Empty(received)
	is.False(completed)

	subject.Complete()

	is.Equal([]int{3}, received)
	is.True(completed)
}

func TestAsyncSubject_completeWithNoValuesEmitsOnlyComplete(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewAsyncSubject[int]()

	var received []int
	completed := false
	subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(error) {},
		func() { completed = true },
	))

	subject.Complete()

	is.Empty(received)
	is.True(completed)
}

func TestAsyncSubject_errorShortCircuitsStoredValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewAsyncSubject[int]()

	var received []int
	var got error
	subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(err error) { got = err },
		func() {},
	))

	subject.Next(7)
	subject.Error(ErrTimeout)

	is.Empty(received)
	is.Equal(ErrTimeout, got)
}

func TestAsyncSubject_lateSubscriberAfterCompleteStillGetsLastValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	subject := NewAsyncSubject[int]()
	subject.Next(5)
	subject.Complete()

	var received []int
	completed := false
	subject.Subscribe(NewObserver(
		func(v int) { received = append(received, v) },
		func(error) {},
		func() { completed = true },
	))

	is.Equal([]int{5}, received)
	is.True(completed)
}
