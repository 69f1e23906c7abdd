package ro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnErrorReturn_substitutesAFallbackValueAndCompletes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	values, err := Collect(Pipe1(Throw[int](boom), OnErrorReturn(func(err error) int { return -1 })))

	is.NoError(err)
	is.Equal([]int{-1}, values)
}

func TestOnErrorReturn_panicInFallbackSurfacesAsUserError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	_, err := Collect(Pipe1(Throw[int](errors.New("boom")), OnErrorReturn(func(err error) int { panic("worse") })))

	var userErr *UserError
	is.ErrorAs(err, &userErr)
}

func TestOnErrorComplete_discardsTheErrorEntirely(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := Collect(Pipe1(Throw[int](errors.New("boom")), OnErrorComplete[int]()))

	is.NoError(err)
	is.Empty(values)
}

func TestOnErrorResumeNext_switchesToFallbackObservable(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	values, err := Collect(Pipe1(Throw[int](boom), OnErrorResumeNext(func(err error) Observable[int] {
		is.ErrorIs(err, boom)
		return Just(1, 2)
	})))

	is.NoError(err)
	is.Equal([]int{1, 2}, values)
}

func TestOnErrorResumeNext_forwardsFallbackErrorAndCompletion(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	fallbackErr := errors.New("fallback failed")
	_, err := Collect(Pipe1(Throw[int](errors.New("boom")), OnErrorResumeNext(func(error) Observable[int] {
		return Throw[int](fallbackErr)
	})))

	is.ErrorIs(err, fallbackErr)
}

func TestRetry_resubscribesUntilSuccessWithinBudget(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	attempts := 0
	source := Defer(func() Observable[int] {
		attempts++
		if attempts < 3 {
			return Throw[int](errors.New("transient"))
		}
		return Just(42)
	})

	values, err := Collect(Pipe1(source, Retry[int](2)))

	is.NoError(err)
	is.Equal([]int{42}, values)
	is.Equal(3, attempts)
}

func TestRetry_forwardsErrorOnceBudgetExhausted(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("always fails")
	attempts := 0
	source := Defer(func() Observable[int] {
		attempts++
		return Throw[int](boom)
	})

	_, err := Collect(Pipe1(source, Retry[int](1)))

	is.ErrorIs(err, boom)
	is.Equal(2, attempts)
}

func TestRetryWhen_resubscribesWhenNotifierEmits(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	attempts := 0
	source := Defer(func() Observable[int] {
		attempts++
		if attempts < 2 {
			return Throw[int](errors.New("transient"))
		}
		return Just(7)
	})

	op := RetryWhen[int](func(errs Observable[error]) Observable[struct{}] {
		return Pipe1(errs, Map(func(error) struct{} { return struct{}{} }))
	})

	values, err := Collect(Pipe1(source, op))

	is.NoError(err)
	is.Equal([]int{7}, values)
	is.Equal(2, attempts)
}

func TestRetryWhen_completesWhenNotifierCompletesWithoutRetrying(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	source := Throw[int](errors.New("boom"))

	op := RetryWhen[int](func(errs Observable[error]) Observable[struct{}] {
		return Empty[struct{}]()
	})

	values, err := Collect(Pipe1(source, op))

	is.NoError(err)
	is.Empty(values)
}

func TestRetryWhen_forwardsNotifierError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	notifierErr := errors.New("notifier failed")
	op := RetryWhen[int](func(errs Observable[error]) Observable[struct{}] {
		return Throw[struct{}](notifierErr)
	})

	_, err := Collect(Pipe1(Throw[int](errors.New("boom")), op))

	is.ErrorIs(err, notifierErr)
}
