package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

const (
	pagePrefix     = keyPrefix + "page:"
	defaultPageTTL = 30 * time.Minute
	pageOpTimeout  = 500 * time.Millisecond
)

// pageEntry is the cached store window. Only ids are kept so that item
// state and access decisions are always read fresh.
type pageEntry struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

// PageCache stores search windows in Redis as JSON.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

var _ ports.PageCache = (*PageCache)(nil)

// NewPageCache creates a PageCache with the given entry lifetime.
func NewPageCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *PageCache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &PageCache{client: client, ttl: ttlOrDefault(ttl, defaultPageTTL), logger: logger}
}

// GetPage returns the cached window for key. Any Redis or decoding error is
// reported as a miss.
func (c *PageCache) GetPage(ctx context.Context, key string) ([]string, int, bool) {
	ctx, cancel := context.WithTimeout(ctx, pageOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, pagePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Msg("page cache read failed")
		}

		return nil, 0, false
	}

	var entry pageEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("dropping undecodable page cache entry")
		return nil, 0, false
	}

	return entry.IDs, entry.Total, true
}

// SetPage stores a window. Failures are logged and ignored.
func (c *PageCache) SetPage(ctx context.Context, key string, ids []string, total int) {
	data, err := json.Marshal(pageEntry{IDs: ids, Total: total})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, pageOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, pagePrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("page cache write failed")
	}
}
