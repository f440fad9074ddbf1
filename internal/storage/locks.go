package db

import (
	"context"
	"fmt"
	"time"

	coreerrors "github.com/lueurxax/media-search-bot/internal/core/errors"
)

// TryLock takes a session-level advisory lock on key. The lock lives on a
// dedicated pool connection until unlock runs; ttl is not enforced by
// Postgres and is only honored by the Redis locker.
func (db *DB) TryLock(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()
		return nil, coreerrors.ErrLockNotAcquired
	}

	return func(ctx context.Context) error {
		defer conn.Release()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}

		return nil
	}, nil
}
