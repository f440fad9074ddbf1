package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

// Locker is an in-memory ports.Locker. TTLs are ignored; a key stays held
// until its unlock func runs.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker returns a Locker with no keys held.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

// Hold marks key as owned by someone else.
func (l *Locker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held[key] = true
}

// TryLock acquires key if it is free.
func (l *Locker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, errors.ErrLockNotAcquired
	}

	l.held[key] = true

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.held, key)

		return nil
	}, nil
}
