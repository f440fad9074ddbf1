package db

import "time"

// Startup connection attempts.
const (
	connectionRetryDelay = 2 * time.Second
	maxConnectionRetries = 10
)

// Pool defaults, overridden by DB_* settings.
const (
	defaultMaxConns          int32         = 25
	defaultMinConns          int32         = 5
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// Cleanup constants
const (
	// DeletedItemRetention is how long soft-deleted items are kept before purge.
	DeletedItemRetention = 7 * 24 * time.Hour
)

// Search text limits
const (
	defaultRecentTitles = 500
	maxLastErrorLength  = 500
)
