package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

const channelColumns = `
	id, title, username, access_hash, status, linked, indexing_enabled, index_mode,
	last_indexed_message_id, last_indexed_at, indexing_interval, max_messages_per_batch,
	min_file_size, max_file_size, allowed_kinds, include_keywords, exclude_keywords,
	auto_delete, auto_delete_after, is_premium_only, verification_required,
	total_files, error_count, last_error, created_at, updated_at`

// normalizeUsername converts username to lowercase for consistent storage
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(username, "@"))
}

func scanChannel(row pgx.Row) (*domain.ChannelSource, error) {
	var (
		ch            domain.ChannelSource
		username      pgtype.Text
		status, mode  string
		lastIndexedAt pgtype.Timestamptz
		interval      int32
		batch         int32
		kinds         []string
		autoDelete    int32
		errorCount    int32
		lastError     pgtype.Text
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&ch.ID, &ch.Title, &username, &ch.AccessHash, &status, &ch.Linked, &ch.IndexingEnabled, &mode,
		&ch.LastIndexedMessageID, &lastIndexedAt, &interval, &batch,
		&ch.MinFileSize, &ch.MaxFileSize, &kinds, &ch.IncludeKeywords, &ch.ExcludeKeywords,
		&ch.AutoDelete, &autoDelete, &ch.IsPremiumOnly, &ch.VerificationRequired,
		&ch.TotalFiles, &errorCount, &lastError, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrChannelNotFound
		}

		return nil, err
	}

	ch.Username = fromText(username)
	ch.Status = domain.ChannelStatus(status)
	ch.Mode = domain.IndexMode(mode)
	ch.LastIndexedAt = fromTimestamptz(lastIndexedAt)
	ch.IndexingInterval = int(interval)
	ch.MaxMessagesPerBatch = int(batch)
	ch.AutoDeleteAfter = int(autoDelete)
	ch.ErrorCount = int(errorCount)
	ch.LastError = fromText(lastError)
	ch.CreatedAt = fromTimestamptz(createdAt)
	ch.UpdatedAt = fromTimestamptz(updatedAt)

	ch.AllowedKinds = make([]domain.MediaKind, 0, len(kinds))
	for _, k := range kinds {
		ch.AllowedKinds = append(ch.AllowedKinds, domain.MediaKind(k))
	}

	return &ch, nil
}

func kindStrings(kinds []domain.MediaKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}

	return out
}

// FindChannel returns a channel by its Telegram id.
func (db *DB) FindChannel(ctx context.Context, channelID int64) (*domain.ChannelSource, error) {
	ch, err := scanChannel(db.Pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE id = $1
	`, channelID))
	if err != nil && !errors.Is(err, coreerrors.ErrNotFound) {
		return nil, fmt.Errorf("find channel: %w", err)
	}

	return ch, err
}

// ListChannels returns every registered channel.
func (db *DB) ListChannels(ctx context.Context) ([]domain.ChannelSource, error) {
	return db.queryChannels(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		ORDER BY created_at
	`)
}

// ListIndexableChannels returns channels the reader may backfill: indexable
// and resolved to an MTProto access hash.
func (db *DB) ListIndexableChannels(ctx context.Context) ([]domain.ChannelSource, error) {
	return db.queryChannels(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE status = 'active'
		  AND linked
		  AND indexing_enabled
		  AND index_mode <> 'disabled'
		  AND access_hash <> 0
		ORDER BY last_indexed_at NULLS FIRST
	`)
}

func (db *DB) queryChannels(ctx context.Context, sql string, args ...any) ([]domain.ChannelSource, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.ChannelSource

	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}

		channels = append(channels, *ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}

// AddChannel registers a channel or re-links an existing one. Settings of an
// existing channel are kept.
func (db *DB) AddChannel(ctx context.Context, ch domain.ChannelSource) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO channels (id, title, username, access_hash, status, linked, indexing_enabled, index_mode,
			indexing_interval, max_messages_per_batch, allowed_kinds, auto_delete_after)
		VALUES ($1, $2, $3, $4, $5, TRUE, TRUE, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), channels.title),
			username = COALESCE(EXCLUDED.username, channels.username),
			access_hash = CASE WHEN EXCLUDED.access_hash <> 0 THEN EXCLUDED.access_hash ELSE channels.access_hash END,
			linked = TRUE,
			updated_at = NOW()
	`, ch.ID, SanitizeUTF8(ch.Title), toText(normalizeUsername(ch.Username)), ch.AccessHash, string(ch.Status), string(ch.Mode),
		safeIntToInt32(ch.IndexingInterval), safeIntToInt32(ch.MaxMessagesPerBatch), kindStrings(ch.AllowedKinds),
		safeIntToInt32(ch.AutoDeleteAfter))
	if err != nil {
		return fmt.Errorf("add channel: %w", err)
	}

	return nil
}

// SaveChannelSettings persists the administrative settings of a channel.
// Cursor and counters are not touched.
func (db *DB) SaveChannelSettings(ctx context.Context, ch *domain.ChannelSource) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE channels
		SET title = $2,
			status = $3,
			linked = $4,
			indexing_enabled = $5,
			index_mode = $6,
			indexing_interval = $7,
			max_messages_per_batch = $8,
			min_file_size = $9,
			max_file_size = $10,
			allowed_kinds = $11,
			include_keywords = $12,
			exclude_keywords = $13,
			auto_delete = $14,
			auto_delete_after = $15,
			is_premium_only = $16,
			verification_required = $17,
			updated_at = NOW()
		WHERE id = $1
	`, ch.ID, SanitizeUTF8(ch.Title), string(ch.Status), ch.Linked, ch.IndexingEnabled, string(ch.Mode),
		safeIntToInt32(ch.IndexingInterval), safeIntToInt32(ch.MaxMessagesPerBatch), ch.MinFileSize, ch.MaxFileSize,
		kindStrings(ch.AllowedKinds), sanitizeAll(ch.IncludeKeywords), sanitizeAll(ch.ExcludeKeywords),
		ch.AutoDelete, safeIntToInt32(ch.AutoDeleteAfter), ch.IsPremiumOnly, ch.VerificationRequired)
	if err != nil {
		return fmt.Errorf("save channel settings: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrChannelNotFound
	}

	return nil
}

// UpdateChannelAccess stores the MTProto access hash resolved by the reader.
func (db *DB) UpdateChannelAccess(ctx context.Context, channelID, accessHash int64, username string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE channels
		SET access_hash = $2,
			username = COALESCE($3, username),
			updated_at = NOW()
		WHERE id = $1
	`, channelID, accessHash, toText(normalizeUsername(username)))
	if err != nil {
		return fmt.Errorf("update channel access: %w", err)
	}

	return nil
}

// UpdateChannelCursor records a processed message or a failure. The cursor
// never moves backwards.
func (db *DB) UpdateChannelCursor(ctx context.Context, channelID int64, update ports.CursorUpdate) error {
	var (
		sql  string
		args []any
	)

	if update.Failed {
		sql = `
			UPDATE channels
			SET error_count = error_count + 1,
				last_error = $2,
				updated_at = NOW()
			WHERE id = $1`
		args = []any{channelID, toText(truncate(update.LastError, maxLastErrorLength))}
	} else {
		sql = `
			UPDATE channels
			SET last_indexed_message_id = GREATEST(last_indexed_message_id, $2),
				last_indexed_at = NOW(),
				error_count = 0,
				last_error = NULL,
				updated_at = NOW()
			WHERE id = $1`
		args = []any{channelID, update.MessageID}
	}

	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update channel cursor: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrChannelNotFound
	}

	return nil
}

func truncate(s string, n int) string {
	s = SanitizeUTF8(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
