package seqwait

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardctl/controller/pkg/shardtypes"
)

func TestAdvance_NeverRegresses(t *testing.T) {
	s := New(0)
	s.Advance(5)
	assert.Equal(t, shardtypes.Sequence(5), s.Current())

	s.Advance(3)
	assert.Equal(t, shardtypes.Sequence(5), s.Current(), "advancing to a lower value must be a no-op")

	s.Advance(5)
	assert.Equal(t, shardtypes.Sequence(5), s.Current(), "advancing to the current value must be a no-op")

	s.Advance(9)
	assert.Equal(t, shardtypes.Sequence(9), s.Current())
}

func TestWaitFor_ReturnsImmediatelyWhenAlreadyReached(t *testing.T) {
	s := New(3)
	err := s.WaitFor(context.Background(), 2, time.Second)
	require.NoError(t, err)
}

func TestWaitFor_WakesOnAdvance(t *testing.T) {
	s := New(0)
	done := make(chan error, 1)
	go func() {
		done <- s.WaitFor(context.Background(), 5, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Advance(5)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not return after Advance")
	}
}

func TestWaitFor_TimesOut(t *testing.T) {
	s := New(0)
	err := s.WaitFor(context.Background(), 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWaitFor_ReturnsShutdownAfterShutdown(t *testing.T) {
	s := New(0)
	s.Shutdown()

	err := s.WaitFor(context.Background(), 1, time.Second)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestWaitFor_WakesOnShutdownWhileBlocked(t *testing.T) {
	s := New(0)
	done := make(chan error, 1)
	go func() {
		done <- s.WaitFor(context.Background(), 1, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdown)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not return after Shutdown")
	}
}

func TestShutdown_IsIdempotent(t *testing.T) {
	s := New(0)
	s.Shutdown()
	assert.NotPanics(t, func() { s.Shutdown() })
}

func TestWaitFor_ReturnsShutdownOnContextCancel(t *testing.T) {
	s := New(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.WaitFor(ctx, 1, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdown)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not return after ctx cancel")
	}
}
