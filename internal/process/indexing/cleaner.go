package indexing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
)

const (
	cleanupLockKey = "lock:cleanup:expired-items"
	cleanupLockTTL = 5 * time.Minute
)

// Cleaner deletes auto-delete items whose expiry has passed. Only one
// process runs a sweep at a time.
type Cleaner struct {
	janitor ports.ItemJanitor
	locker  ports.Locker
	now     func() time.Time
	logger  *zerolog.Logger
}

// NewCleaner creates a Cleaner. locker may be nil for single-instance setups.
func NewCleaner(janitor ports.ItemJanitor, locker ports.Locker, logger *zerolog.Logger) *Cleaner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Cleaner{janitor: janitor, locker: locker, now: time.Now, logger: logger}
}

// Run performs one sweep and returns the number of deleted items. A sweep
// held by another process is skipped without error.
func (c *Cleaner) Run(ctx context.Context) (int64, error) {
	if c.locker != nil {
		unlock, err := c.locker.TryLock(ctx, cleanupLockKey, cleanupLockTTL)
		if errors.Is(err, errors.ErrLockNotAcquired) {
			c.logger.Debug().Msg("cleanup already running elsewhere")
			return 0, nil
		}

		if err != nil {
			return 0, err
		}

		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn().Err(err).Msg("failed to release cleanup lock")
			}
		}()
	}

	n, err := c.janitor.DeleteExpiredItems(ctx, c.now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		observability.ItemsExpired.Add(float64(n))
		c.logger.Info().Int64("deleted", n).Msg("expired items removed")
	}

	return n, nil
}
