package bot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	defaultUserLimit = 20
)

// localLimiter is the in-process per-user limiter used when Redis is not
// configured. Each user gets a token bucket refilled at limit per window.
type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	users     map[int64]*userLimiter
	lastSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	if limit <= 0 {
		limit = defaultUserLimit
	}

	return &localLimiter{
		limit: rate.Limit(float64(limit) / window.Seconds()),
		burst: limit,
		users: make(map[int64]*userLimiter),
	}
}

func (l *localLimiter) Allow(_ context.Context, _ string, userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)

	u, ok := l.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = u
	}

	u.lastSeen = now

	return u.limiter.AllowN(now, 1)
}

// sweep drops idle users so the map does not grow without bound.
func (l *localLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		return
	}

	for id, u := range l.users {
		if now.Sub(u.lastSeen) > limiterIdleTTL {
			delete(l.users, id)
		}
	}

	l.lastSweep = now
}
