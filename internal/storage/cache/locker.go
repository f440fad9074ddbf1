package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

const defaultLockTTL = time.Minute

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is an advisory lock with a TTL built on SET NX PX.
type Locker struct {
	client *redis.Client
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker creates a Locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// TryLock acquires key for ttl. It returns errors.ErrLockNotAcquired when the
// key is held by someone else.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	fullKey := keyPrefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttlOrDefault(ttl, defaultLockTTL)).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	if !ok {
		return nil, errors.ErrLockNotAcquired
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}

		return nil
	}, nil
}
