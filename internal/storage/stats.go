package db

import (
	"context"
	"fmt"
)

// Stats is a snapshot of index and user counts.
type Stats struct {
	Items          int64
	ActiveItems    int64
	Channels       int64
	ActiveChannels int64
	Users          int64
	VerifiedUsers  int64
	PremiumUsers   int64
	Downloads      int64
}

// GetStats returns aggregate counts for the admin dashboard.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats

	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM items WHERE status = 'active'),
			(SELECT COUNT(*) FROM channels),
			(SELECT COUNT(*) FROM channels WHERE status = 'active' AND linked AND indexing_enabled),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_verified),
			(SELECT COUNT(*) FROM premium_subscriptions
				WHERE status NOT IN ('cancelled', 'suspended')
				  AND (is_lifetime OR (status = 'active' AND expires_at > NOW()))),
			(SELECT COALESCE(SUM(downloads), 0) FROM items)
	`).Scan(&s.Items, &s.ActiveItems, &s.Channels, &s.ActiveChannels, &s.Users, &s.VerifiedUsers, &s.PremiumUsers, &s.Downloads)
	if err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}

	return s, nil
}
