// Package locking provides per-portfolio lock management.
//
// Trades against the same portfolio are serialized by acquiring the
// portfolio's lock before opening the database transaction; trades
// against different portfolios proceed in parallel.
package locking

import (
	"context"
	"sync"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/rs/zerolog"
)

// Manager hands out one lock per key (portfolio id).
type Manager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
	log   zerolog.Logger
}

// NewManager creates a new lock manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		locks: make(map[string]chan struct{}),
		log:   log.With().Str("component", "locking").Logger(),
	}
}

// Acquire blocks until the lock for key is held or ctx expires.
// Context expiry maps to domain.ErrLockTimeout so callers surface it as
// a transient dependency error with no state change.
func (m *Manager) Acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	m.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.log.Warn().Str("key", key).Msg("Lock acquisition timed out")
		return domain.ErrLockTimeout
	}
}

// Release releases the lock for key. Releasing a lock that is not held
// is a programming error and panics, matching sync.Mutex semantics.
func (m *Manager) Release(key string) {
	m.mu.Lock()
	ch, ok := m.locks[key]
	m.mu.Unlock()

	if !ok {
		panic("locking: release of unknown key " + key)
	}

	select {
	case <-ch:
	default:
		panic("locking: release of unheld lock " + key)
	}
}
