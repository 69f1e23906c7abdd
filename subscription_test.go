package ro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscription_unsubscribeRunsTeardownOnce(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	calls := 0
	sub := NewSubscription(func() { calls++ })

	sub.Unsubscribe()
	sub.Unsubscribe()

	is.Equal(1, calls)
	is.True(sub.IsClosed())
}

func TestSubscription_addAfterDisposeRunsImmediately(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)
	sub.Unsubscribe()

	ran := false
	sub.Add(func() { ran = true })

	is.True(ran)
}

func TestSubscription_addBeforeDisposeRunsOnUnsubscribe(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)

	ran := false
	sub.Add(func() { ran = true })
	is.False(ran)

	sub.Unsubscribe()
	is.True(ran)
}

func TestSubscription_addNilTeardownIsANoOp(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)
	sub.Add(nil)
	sub.Unsubscribe()

	is.True(sub.IsClosed())
}

func TestSubscription_addUnsubscribableTearsDownTheOther(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	other := NewSubscription(nil)
	sub := NewSubscription(nil)
	sub.AddUnsubscribable(other)

	sub.Unsubscribe()

	is.True(other.IsClosed())
}

func TestSubscription_addUnsubscribableNilIsANoOp(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)
	sub.AddUnsubscribable(nil)
	sub.Unsubscribe()

	is.True(sub.IsClosed())
}

func TestSubscription_withContextTeardownReceivesProvidedContext(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	var got any
	sub := NewSubscriptionWithContext(func(ctx context.Context) { got = ctx.Value(key{}) })

	sub.UnsubscribeWithContext(ctx)

	is.Equal("value", got)
}

func TestSubscription_waitBlocksUntilUnsubscribe(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)

	done := make(chan struct{})
	go func() {
		sub.Wait()
		close(done)
	}()

	sub.Unsubscribe()
	<-done

	is.True(sub.IsClosed())
}

func TestSubscription_unsubscribePanicsWithJoinedUnsubscriptionErrors(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sub := NewSubscription(nil)
	sub.Add(func() { panic("boom") })

	is.Panics(func() { sub.Unsubscribe() })
}
