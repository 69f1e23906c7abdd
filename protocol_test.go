package ro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriber_nilPointerNextSynthesizesProtocolError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got error
	Just[*int](nil).Subscribe(NewObserver(
		func(*int) {},
		func(err error) { got = err },
		func() {},
	))

	is.ErrorIs(got, ErrNullValue)
}

func TestSubscriber_nonNilPointerNextPassesThrough(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	v := 42
	var got *int
	Just[*int](&v).Subscribe(NewObserver(
		func(p *int) { got = p },
		func(error) {},
		func() {},
	))

	is.Equal(&v, got)
}

func TestSubscriber_nilMapNextSynthesizesProtocolError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got error
	var nilMap map[string]int
	Just(nilMap).Subscribe(NewObserver(
		func(map[string]int) {},
		func(err error) { got = err },
		func() {},
	))

	is.ErrorIs(got, ErrNullValue)
}

func TestSubscriber_valueTypeNeverCountsAsNull(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Just(0, 1))

	is.NoError(err)
	is.Equal([]int{0, 1}, values)
}
