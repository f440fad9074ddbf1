// Package cache provides the Redis-backed search page cache, distributed
// lock and per-user rate limiter. Redis is optional: every component fails
// open when it is unreachable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "msb:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Pinger adapts a Redis client to the readiness check.
type Pinger struct {
	client *redis.Client
}

// NewPinger wraps client.
func NewPinger(client *redis.Client) *Pinger {
	return &Pinger{client: client}
}

// Ping checks that Redis answers.
func (p *Pinger) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

func ttlOrDefault(ttl, def time.Duration) time.Duration {
	if ttl <= 0 {
		return def
	}

	return ttl
}
