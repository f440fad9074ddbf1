package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ratePrefix       = keyPrefix + "rate:"
	rateOpTimeout    = 300 * time.Millisecond
	defaultRateLimit = 30
	defaultRateWin   = time.Minute
)

// RateLimiter is a fixed-window counter per user. When Redis is unavailable
// requests are allowed.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zerolog.Logger
}

// NewRateLimiter allows limit requests per window for each user.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zerolog.Logger) *RateLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if limit <= 0 {
		limit = defaultRateLimit
	}

	return &RateLimiter{
		client: client,
		limit:  int64(limit),
		window: ttlOrDefault(window, defaultRateWin),
		logger: logger,
	}
}

// Allow counts a request by userID in scope and reports whether it is within
// the limit.
func (r *RateLimiter) Allow(ctx context.Context, scope string, userID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, rateOpTimeout)
	defer cancel()

	bucket := time.Now().Unix() / int64(r.window/time.Second)
	key := ratePrefix + scope + ":" + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(bucket, 10)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn().Err(err).Int64("user_id", userID).Msg("rate limiter unavailable, allowing request")
		return true
	}

	return incr.Val() <= r.limit
}
