package ro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeMap_flattensEveryInnerObservable(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), MergeMap(func(v int) Observable[int] {
		return Just(v, v*10)
	})))

	is.NoError(err)
	is.ElementsMatch([]int{1, 10, 2, 20, 3, 30}, values)
}

func TestMergeMap_innerErrorPropagatesAndCancelsSiblings(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	_, err := Collect(Pipe1(Just(1, 2), MergeMap(func(v int) Observable[int] {
		if v == 1 {
			return Throw[int](boom)
		}
		return Just(v)
	})))

	is.ErrorIs(err, boom)
}

func TestConcatMap_preservesOuterOrderSequentially(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), ConcatMap(func(v int) Observable[int] {
		return Just(v, v*10)
	})))

	is.NoError(err)
	is.Equal([]int{1, 10, 2, 20, 3, 30}, values)
}

func TestConcatMap_queuesOuterValuesWhileInnerRuns(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var startOrder []int
	values, err := Collect(Pipe1(Just(1, 2, 3), ConcatMap(func(v int) Observable[int] {
		startOrder = append(startOrder, v)
		return Just(v)
	})))

	is.NoError(err)
	is.Equal([]int{1, 2, 3}, startOrder)
	is.Equal([]int{1, 2, 3}, values)
}

func TestSwitchMap_cancelsPreviousInnerOnNewOuterValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	// With synchronous inner/outer sources every outer value is projected
	// and its (synchronous) inner completes before the next outer value
	// arrives, so every inner's values still make it through; SwitchMap's
	// cancellation only matters for inner sources that outlive the next
	// outer notification.
	values, err := Collect(Pipe1(Just(1, 2), SwitchMap(func(v int) Observable[int] {
		return Just(v * 100)
	})))

	is.NoError(err)
	is.Equal([]int{100, 200}, values)
}

func TestSwitchMap_innerErrorPropagates(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	_, err := Collect(Pipe1(Just(1), SwitchMap(func(v int) Observable[int] {
		return Throw[int](boom)
	})))

	is.ErrorIs(err, boom)
}

func TestMergeMap_panicInProjectSurfacesAsUserError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	_, err := Collect(Pipe1(Just(1), MergeMap(func(v int) Observable[int] {
		panic("boom")
	})))

	var userErr *UserError
	is.ErrorAs(err, &userErr)
}

func TestConcatMap_emptySourceCompletesImmediately(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Empty[int](), ConcatMap(func(v int) Observable[int] {
		return Just(v)
	})))

	is.NoError(err)
	is.Empty(values)
}
