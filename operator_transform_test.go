package ro

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_transformsEveryValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), Map(func(v int) int { return v * 2 })))

	is.NoError(err)
	is.Equal([]int{2, 4, 6}, values)
}

func TestMap_panicInProjectSurfacesAsUserError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	_, err := Collect(Pipe1(Just(1), Map(func(v int) int { panic("boom") })))

	var userErr *UserError
	is.ErrorAs(err, &userErr)
}

func TestMapIWithContext_passesIncrementingIndex(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var indexes []int64
	_, err := Collect(Pipe1(Just("a", "b", "c"), MapIWithContext(func(ctx context.Context, value string, index int64) string {
		indexes = append(indexes, index)
		return value
	})))
	is.NoError(err)
	is.Equal([]int64{0, 1, 2}, indexes)
}

func TestFilter_keepsOnlyMatchingValues(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3, 4, 5), Filter(func(v int) bool { return v%2 == 0 })))

	is.NoError(err)
	is.Equal([]int{2, 4}, values)
}

func TestFilter_panicInPredicateSurfacesAsUserError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	_, err := Collect(Pipe1(Just(1), Filter(func(v int) bool { panic("boom") })))

	var userErr *UserError
	is.ErrorAs(err, &userErr)
}

func TestScan_emitsRunningAccumulation(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), Scan(func(agg, item int) int { return agg + item }, 0)))

	is.NoError(err)
	is.Equal([]int{1, 3, 6}, values)
}

func TestScanSeeded_callsSeedFactoryPerSubscription(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	calls := 0
	seed := func() int {
		calls++
		return 0
	}
	op := ScanSeeded(func(agg, item int) int { return agg + item }, seed)

	obs := Pipe1(Just(1, 2), op)
	_, err1 := Collect(obs)
	_, err2 := Collect(obs)

	is.NoError(err1)
	is.NoError(err2)
	is.Equal(2, calls)
}

func TestToList_emitsOneSliceOnComplete(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), ToList[int]()))

	is.NoError(err)
	is.Equal([][]int{{1, 2, 3}}, values)
}

func TestToSet_deduplicatesValues(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 2, 3, 1), ToSet[int]()))

	is.NoError(err)
	is.Len(values, 1)
	is.Equal(map[int]struct{}{1: {}, 2: {}, 3: {}}, values[0])
}

func TestToMap_laterValueOverwritesEarlierForSameKey(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just("a", "bb", "cc"), ToMap(func(v string) int { return len(v) })))

	is.NoError(err)
	is.Len(values, 1)
	is.Equal(map[int]string{1: "a", 2: "cc"}, values[0])
}

func TestCollectInto_foldsIntoAccumulatorFromSupplier(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := CollectInto(
		func() []int { return []int{} },
		func(acc []int, value int) []int { return append(acc, value*10) },
	)

	values, err := Collect(Pipe1(Just(1, 2, 3), op))

	is.NoError(err)
	is.Equal([][]int{{10, 20, 30}}, values)
}

func TestCollectInto_panicInAccumulatorSurfacesAsUserError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := CollectInto(func() int { return 0 }, func(acc int, value int) int { panic("boom") })

	_, err := Collect(Pipe1(Just(1), op))

	var userErr *UserError
	is.ErrorAs(err, &userErr)
}

func TestDistinct_suppressesAnyPreviouslySeenValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 1, 3, 2, 4), Distinct[int]()))

	is.NoError(err)
	is.Equal([]int{1, 2, 3, 4}, values)
}

func TestDistinctUntilChanged_suppressesOnlyConsecutiveDuplicates(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 1, 2, 2, 1, 1), DistinctUntilChanged[int]()))

	is.NoError(err)
	is.Equal([]int{1, 2, 1}, values)
}

func TestMap_propagatesSourceError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	_, err := Collect(Pipe1(Throw[int](boom), Map(func(v int) int { return v })))

	is.ErrorIs(err, boom)
}
