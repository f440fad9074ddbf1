package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-search-bot/internal/core/errors"
)

// TouchUser records a user interaction, creating the user on first contact.
func (db *DB) TouchUser(ctx context.Context, userID int64, username, firstName string, searched bool) error {
	inc := 0
	if searched {
		inc = 1
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, username, first_name, search_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			search_count = users.search_count + $4,
			last_seen_at = NOW()
	`, userID, toText(username), toText(firstName), inc)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}

	return nil
}

// GetUser returns a user by Telegram id.
func (db *DB) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var (
		u                   domain.User
		username, firstName pgtype.Text
		verifiedAt          pgtype.Timestamptz
		createdAt, lastSeen pgtype.Timestamptz
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT id, username, first_name, is_verified, is_banned, verified_at, search_count, created_at, last_seen_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &username, &firstName, &u.IsVerified, &u.IsBanned, &verifiedAt, &u.SearchCount, &createdAt, &lastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrUserNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	u.Username = fromText(username)
	u.FirstName = fromText(firstName)
	u.VerifiedAt = fromTimestamptz(verifiedAt)
	u.CreatedAt = fromTimestamptz(createdAt)
	u.LastSeenAt = fromTimestamptz(lastSeen)

	return &u, nil
}

// SetVerified marks a user verified, creating the record if needed.
func (db *DB) SetVerified(ctx context.Context, userID int64, verified bool) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, is_verified, verified_at)
		VALUES ($1, $2, CASE WHEN $2 THEN NOW() END)
		ON CONFLICT (id) DO UPDATE SET
			is_verified = EXCLUDED.is_verified,
			verified_at = EXCLUDED.verified_at
	`, userID, verified)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}

	return nil
}

// GrantPremium creates or replaces a user's subscription.
func (db *DB) GrantPremium(ctx context.Context, p domain.Premium) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if _, err := tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, p.UserID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO premium_subscriptions (user_id, plan, status, is_lifetime, expires_at, granted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			is_lifetime = EXCLUDED.is_lifetime,
			expires_at = EXCLUDED.expires_at,
			granted_by = EXCLUDED.granted_by,
			updated_at = NOW()
	`, p.UserID, string(p.Plan), string(p.Status), p.IsLifetime, toTimestamptz(p.ExpiresAt), pgtype.Int8{Int64: p.GrantedBy, Valid: p.GrantedBy != 0}); err != nil {
		return fmt.Errorf("upsert premium: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit premium: %w", err)
	}

	return nil
}

// SetPremiumStatus changes the status of an existing subscription.
func (db *DB) SetPremiumStatus(ctx context.Context, userID int64, status domain.PremiumStatus) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE premium_subscriptions SET status = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, string(status))
	if err != nil {
		return fmt.Errorf("set premium status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrUserNotFound
	}

	return nil
}

// GetAccessProfile returns the premium and verification state of a user.
func (db *DB) GetAccessProfile(ctx context.Context, userID int64) (domain.AccessProfile, error) {
	var (
		verified  bool
		plan      pgtype.Text
		status    pgtype.Text
		lifetime  pgtype.Bool
		expiresAt pgtype.Timestamptz
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT u.is_verified, p.plan, p.status, p.is_lifetime, p.expires_at
		FROM users u
		LEFT JOIN premium_subscriptions p ON p.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(&verified, &plan, &status, &lifetime, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccessProfile{}, coreerrors.ErrUserNotFound
		}

		return domain.AccessProfile{}, fmt.Errorf("get access profile: %w", err)
	}

	profile := domain.AccessProfile{Verified: verified}

	if plan.Valid {
		profile.Premium = &domain.Premium{
			UserID:     userID,
			Plan:       domain.PremiumPlan(plan.String),
			Status:     domain.PremiumStatus(fromText(status)),
			IsLifetime: lifetime.Bool,
			ExpiresAt:  fromTimestamptz(expiresAt),
		}
	}

	return profile, nil
}
