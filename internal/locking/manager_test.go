package locking

import (
	"context"
	"testing"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	m := NewManager(zerolog.Nop())

	err := m.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	m.Release("p1")

	// Reacquire after release
	err = m.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	m.Release("p1")
}

func TestAcquire_TimesOutWhileHeld(t *testing.T) {
	m := NewManager(zerolog.Nop())

	require.NoError(t, m.Acquire(context.Background(), "p1"))
	defer m.Release("p1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Acquire(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
}

func TestAcquire_IndependentKeys(t *testing.T) {
	m := NewManager(zerolog.Nop())

	require.NoError(t, m.Acquire(context.Background(), "p1"))
	defer m.Release("p1")

	// A different portfolio's lock is not blocked
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Acquire(ctx, "p2")
	require.NoError(t, err)
	m.Release("p2")
}

func TestAcquire_SerializesWaiters(t *testing.T) {
	m := NewManager(zerolog.Nop())

	require.NoError(t, m.Acquire(context.Background(), "p1"))

	acquired := make(chan struct{})
	go func() {
		if err := m.Acquire(context.Background(), "p1"); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	m.Release("p1")

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock after release")
	}
	m.Release("p1")
}
