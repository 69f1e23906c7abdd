package ro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_emptySignalCompletes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	completed := false
	EmptySignal().Subscribe(signalObserverFuncs{
		onComplete: func() { completed = true },
		onError:    func(error) {},
	})

	is.True(completed)
}

func TestSignal_erroredSignalFails(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	var got error
	ErroredSignal(boom).Subscribe(signalObserverFuncs{
		onComplete: func() {},
		onError:    func(err error) { got = err },
	})

	is.ErrorIs(got, boom)
}

func TestSignal_customProduceCallsExactlyOneTerminal(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	completed := false
	NewSignal(func(complete func(), fail func(error)) Teardown {
		complete()
		return nil
	}).Subscribe(signalObserverFuncs{
		onComplete: func() { completed = true },
		onError:    func(error) {},
	})

	is.True(completed)
}

type signalObserverFuncs struct {
	onComplete func()
	onError    func(error)
}

func (s signalObserverFuncs) OnComplete()     { s.onComplete() }
func (s signalObserverFuncs) OnError(e error) { s.onError(e) }

func TestOne_newOneDeliversExactlyOneSuccess(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got int
	NewOne(func(succeed func(int), fail func(error)) Teardown {
		succeed(42)
		return nil
	}).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(v int) { got = v },
		onError:   func(error) {},
	})

	is.Equal(42, got)
}

func TestOne_newOneDeliversError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	var got error
	NewOne(func(succeed func(int), fail func(error)) Teardown {
		fail(boom)
		return nil
	}).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(int) {},
		onError:   func(err error) { got = err },
	})

	is.ErrorIs(got, boom)
}

type oneObserverFuncs[T any] struct {
	onSuccess func(T)
	onError   func(error)
}

func (o oneObserverFuncs[T]) OnSuccess(v T)  { o.onSuccess(v) }
func (o oneObserverFuncs[T]) OnError(e error) { o.onError(e) }

func TestOneFromStream_firstValueWinsAndCancelsUpstream(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got int
	OneFromStream[int](Just(1, 2, 3)).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(v int) { got = v },
		onError:   func(error) {},
	})

	is.Equal(1, got)
}

func TestOneFromStream_emptySourceReportsNoSuchElement(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got error
	OneFromStream[int](Empty[int]()).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(int) {},
		onError:   func(err error) { got = err },
	})

	is.ErrorIs(got, ErrNoSuchElement)
}

func TestOneFromStream_propagatesSourceError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	var got error
	OneFromStream[int](Throw[int](boom)).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(int) {},
		onError:   func(err error) { got = err },
	})

	is.ErrorIs(got, boom)
}

type zeroOrOneObserverFuncs[T any] struct {
	onSuccess  func(T)
	onComplete func()
	onError    func(error)
}

func (z zeroOrOneObserverFuncs[T]) OnSuccess(v T)   { z.onSuccess(v) }
func (z zeroOrOneObserverFuncs[T]) OnComplete()     { z.onComplete() }
func (z zeroOrOneObserverFuncs[T]) OnError(e error) { z.onError(e) }

func TestZeroOrOneFromStream_emptySourceCompletesWithoutAValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	delivered := false
	completed := false
	ZeroOrOneFromStream[int](Empty[int]()).Subscribe(zeroOrOneObserverFuncs[int]{
		onSuccess:  func(int) { delivered = true },
		onComplete: func() { completed = true },
		onError:    func(error) {},
	})

	is.False(delivered)
	is.True(completed)
}

func TestZeroOrOneFromStream_deliversSingleValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got int
	ZeroOrOneFromStream[int](Just(7)).Subscribe(zeroOrOneObserverFuncs[int]{
		onSuccess:  func(v int) { got = v },
		onComplete: func() {},
		onError:    func(error) {},
	})

	is.Equal(7, got)
}

func TestZeroOrOneToOne_emptyBecomesNoSuchElement(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	zeroOrOne := ZeroOrOneFromStream[int](Empty[int]())

	var got error
	ZeroOrOneToOne[int](zeroOrOne).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(int) {},
		onError:   func(err error) { got = err },
	})

	is.ErrorIs(got, ErrNoSuchElement)
}

func TestZeroOrOneToOne_presentValuePassesThrough(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	zeroOrOne := ZeroOrOneFromStream[int](Just(9))

	var got int
	ZeroOrOneToOne[int](zeroOrOne).Subscribe(oneObserverFuncs[int]{
		onSuccess: func(v int) { got = v },
		onError:   func(error) {},
	})

	is.Equal(9, got)
}
