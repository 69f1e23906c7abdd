package ro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_interleavesAllSources(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Merge(Just(1, 2), Just(10, 20)))

	is.NoError(err)
	is.ElementsMatch([]int{1, 2, 10, 20}, values)
}

func TestMerge_noSourcesCompletesImmediately(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Merge[int]())

	is.NoError(err)
	is.Empty(values)
}

func TestMerge_firstErrorWins(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	_, err := Collect(Merge(Throw[int](boom), Just(1, 2)))

	is.ErrorIs(err, boom)
}

func TestZip2_pairsValuesPositionally(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Zip2(Just(1, 2, 3), Just("a", "b"), func(n int, s string) string {
		return s
	}))

	is.NoError(err)
	is.Equal([]string{"a", "b"}, values)
}

func TestZip_pairsAcrossAllSources(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Zip(Just(1, 2, 3), Just(10, 20, 30)))

	is.NoError(err)
	is.Equal([][]int{{1, 10}, {2, 20}, {3, 30}}, values)
}

func TestCombineLatest2_emitsOnceBothHaveAValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(CombineLatest2(Just(1), Just("x", "y"), func(n int, s string) string {
		return s
	}))

	is.NoError(err)
	is.Equal([]string{"x", "y"}, values)
}

func TestCombineLatest_combinesAcrossAllSources(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(CombineLatest(Just(1), Just(10, 20)))

	is.NoError(err)
	is.NotEmpty(values)
	is.Equal([]int{1, 20}, values[len(values)-1])
}

func TestWithLatestFrom_attachesOthersLatestValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2, 3), WithLatestFrom(Just(100), func(a, b int) int {
		return a + b
	})))

	is.NoError(err)
	is.Equal([]int{101, 102, 103}, values)
}

func TestWithLatestFrom_suppressesUntilOtherHasAValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(1, 2), WithLatestFrom(Empty[int](), func(a, b int) int {
		return a + b
	})))

	is.NoError(err)
	is.Empty(values)
}

func TestStartWith_prependsValuesBeforeSource(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(3, 4), StartWith(1, 2)))

	is.NoError(err)
	is.Equal([]int{1, 2, 3, 4}, values)
}

func TestStartWithObservable_awaitsOtherCompleteBeforeSource(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Just(3, 4), StartWithObservable[int](Just(1, 2))))

	is.NoError(err)
	is.Equal([]int{1, 2, 3, 4}, values)
}

func TestSequenceEqual_trueForIdenticalSequences(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(SequenceEqual(Just(1, 2, 3), Just(1, 2, 3)))

	is.NoError(err)
	is.Equal([]bool{true}, values)
}

func TestSequenceEqual_falseForDifferentLengths(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(SequenceEqual(Just(1, 2), Just(1, 2, 3)))

	is.NoError(err)
	is.Equal([]bool{false}, values)
}

func TestSequenceEqual_falseForDifferentValues(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(SequenceEqual(Just(1, 2, 3), Just(1, 9, 3)))

	is.NoError(err)
	is.Equal([]bool{false}, values)
}
