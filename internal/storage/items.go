package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

const pgForeignKeyViolation = "23503"

const itemColumns = `
	id, channel_id, message_id, kind, file_id, file_unique_id, file_name, file_size,
	mime_type, thumbnail_id, source, title, alt_titles, description, imdb_id,
	year, season, episode, quality, language, duration, resolution, codec, width, height,
	keywords, genre, cast_members, director, rating, poster_url,
	is_premium, verification_required, auto_delete, auto_delete_after, expires_at,
	downloads, views, clones, status, created_at, updated_at`

var (
	_ ports.ItemRepository    = (*DB)(nil)
	_ ports.ChannelRepository = (*DB)(nil)
	_ ports.UserRepository    = (*DB)(nil)
	_ ports.ItemJanitor       = (*DB)(nil)
	_ ports.Locker            = (*DB)(nil)
)

type itemRow struct {
	ID                   pgtype.UUID
	ChannelID            int64
	MessageID            int64
	Kind                 string
	FileID               string
	FileUniqueID         string
	FileName             string
	FileSize             int64
	MimeType             pgtype.Text
	ThumbnailID          pgtype.Text
	Source               string
	Title                string
	AltTitles            []string
	Description          pgtype.Text
	IMDBID               pgtype.Text
	Year                 pgtype.Int4
	Season               pgtype.Int4
	Episode              pgtype.Int4
	Quality              pgtype.Text
	Language             pgtype.Text
	Duration             pgtype.Int4
	Resolution           pgtype.Text
	Codec                pgtype.Text
	Width                pgtype.Int4
	Height               pgtype.Int4
	Keywords             []string
	Genre                []string
	Cast                 []string
	Director             pgtype.Text
	Rating               pgtype.Float8
	PosterURL            pgtype.Text
	IsPremium            bool
	VerificationRequired bool
	AutoDelete           bool
	AutoDeleteAfter      int32
	ExpiresAt            pgtype.Timestamptz
	Downloads            int64
	Views                int64
	Clones               int64
	Status               string
	CreatedAt            pgtype.Timestamptz
	UpdatedAt            pgtype.Timestamptz
}

func (r *itemRow) dest() []any {
	return []any{
		&r.ID, &r.ChannelID, &r.MessageID, &r.Kind, &r.FileID, &r.FileUniqueID, &r.FileName, &r.FileSize,
		&r.MimeType, &r.ThumbnailID, &r.Source, &r.Title, &r.AltTitles, &r.Description, &r.IMDBID,
		&r.Year, &r.Season, &r.Episode, &r.Quality, &r.Language, &r.Duration, &r.Resolution, &r.Codec, &r.Width, &r.Height,
		&r.Keywords, &r.Genre, &r.Cast, &r.Director, &r.Rating, &r.PosterURL,
		&r.IsPremium, &r.VerificationRequired, &r.AutoDelete, &r.AutoDeleteAfter, &r.ExpiresAt,
		&r.Downloads, &r.Views, &r.Clones, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	}
}

func (r *itemRow) toDomain() domain.IndexedItem {
	return domain.IndexedItem{
		ID:                   fromUUID(r.ID),
		ChannelID:            r.ChannelID,
		MessageID:            r.MessageID,
		Kind:                 domain.MediaKind(r.Kind),
		FileID:               r.FileID,
		FileUniqueID:         r.FileUniqueID,
		FileName:             r.FileName,
		FileSize:             r.FileSize,
		MimeType:             fromText(r.MimeType),
		ThumbnailID:          fromText(r.ThumbnailID),
		Source:               domain.ItemSource(r.Source),
		Title:                r.Title,
		AltTitles:            r.AltTitles,
		Description:          fromText(r.Description),
		IMDBID:               fromText(r.IMDBID),
		Year:                 fromInt4(r.Year),
		Season:               fromInt4(r.Season),
		Episode:              fromInt4(r.Episode),
		Quality:              domain.Quality(fromText(r.Quality)),
		Language:             domain.Language(fromText(r.Language)),
		Duration:             fromInt4(r.Duration),
		Resolution:           fromText(r.Resolution),
		Codec:                fromText(r.Codec),
		Width:                fromInt4(r.Width),
		Height:               fromInt4(r.Height),
		Keywords:             r.Keywords,
		Genre:                r.Genre,
		Cast:                 r.Cast,
		Director:             fromText(r.Director),
		Rating:               fromFloat8Ptr(r.Rating),
		PosterURL:            fromText(r.PosterURL),
		IsPremium:            r.IsPremium,
		VerificationRequired: r.VerificationRequired,
		AutoDelete:           r.AutoDelete,
		AutoDeleteAfter:      int(r.AutoDeleteAfter),
		ExpiresAt:            fromTimestamptz(r.ExpiresAt),
		Downloads:            r.Downloads,
		Views:                r.Views,
		Clones:               r.Clones,
		Status:               domain.ItemStatus(r.Status),
		CreatedAt:            fromTimestamptz(r.CreatedAt),
		UpdatedAt:            fromTimestamptz(r.UpdatedAt),
	}
}

func (db *DB) scanItem(row pgx.Row) (*domain.IndexedItem, error) {
	var r itemRow
	if err := row.Scan(r.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrItemNotFound
		}

		return nil, err
	}

	item := r.toDomain()

	return &item, nil
}

// FindItem returns the item indexed from a channel message.
func (db *DB) FindItem(ctx context.Context, channelID, messageID int64) (*domain.IndexedItem, error) {
	item, err := db.scanItem(db.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE channel_id = $1 AND message_id = $2
	`, channelID, messageID))
	if err != nil && !errors.Is(err, coreerrors.ErrNotFound) {
		return nil, fmt.Errorf("find item: %w", err)
	}

	return item, err
}

// GetItem returns an item by id.
func (db *DB) GetItem(ctx context.Context, id string) (*domain.IndexedItem, error) {
	uid := toUUID(id)
	if !uid.Valid {
		return nil, fmt.Errorf("%w: item id %q", coreerrors.ErrInvalidID, id)
	}

	item, err := db.scanItem(db.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, uid))
	if err != nil && !errors.Is(err, coreerrors.ErrNotFound) {
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, err
}

// FindItemsByQuery returns one window of discoverable items matching any
// query term, plus the total match count. Items matching more terms come
// first, then newest first. An empty query browses.
func (db *DB) FindItemsByQuery(ctx context.Context, q ports.ItemQuery) ([]domain.IndexedItem, int, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	terms := domain.QueryTerms(q.Text)
	if strings.TrimSpace(q.Text) != "" && len(terms) == 0 {
		return nil, 0, nil
	}

	tsQuery := anyTermQuery(terms)

	rows, err := db.Pool.Query(ctx, `
		SELECT `+itemColumns+`, COUNT(*) OVER () AS total
		FROM items
		WHERE status = 'active'
		  AND (expires_at IS NULL OR expires_at > $1)
		  AND ($2::text = '' OR search_vector @@ to_tsquery('simple', $2::text))
		ORDER BY (
			SELECT COUNT(*) FROM unnest($5::text[]) AS term
			WHERE items.search_vector @@ to_tsquery('simple', term)
		) DESC, created_at DESC, id DESC
		OFFSET $3 LIMIT $4
	`, now, tsQuery, q.Offset, q.Limit, terms)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query items: %w", coreerrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var (
		items []domain.IndexedItem
		total int64
	)

	for rows.Next() {
		var r itemRow
		if err := rows.Scan(append(r.dest(), &total)...); err != nil {
			return nil, 0, fmt.Errorf("%w: scan item: %w", coreerrors.ErrStoreUnavailable, err)
		}

		items = append(items, r.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterate items: %w", coreerrors.ErrStoreUnavailable, err)
	}

	// A window past the end has no rows to carry the total.
	if len(items) == 0 && q.Offset > 0 {
		n, err := db.countItems(ctx, now, tsQuery)
		if err != nil {
			return nil, 0, err
		}

		return nil, n, nil
	}

	return items, int(total), nil
}

// CountItemsByQuery returns the number of discoverable items matching q.
func (db *DB) CountItemsByQuery(ctx context.Context, q ports.ItemQuery) (int, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	terms := domain.QueryTerms(q.Text)
	if strings.TrimSpace(q.Text) != "" && len(terms) == 0 {
		return 0, nil
	}

	return db.countItems(ctx, now, anyTermQuery(terms))
}

func (db *DB) countItems(ctx context.Context, now time.Time, tsQuery string) (int, error) {
	var total int64

	if err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM items
		WHERE status = 'active'
		  AND (expires_at IS NULL OR expires_at > $1)
		  AND ($2::text = '' OR search_vector @@ to_tsquery('simple', $2::text))
	`, now, tsQuery).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: count items: %w", coreerrors.ErrStoreUnavailable, err)
	}

	return int(total), nil
}

// anyTermQuery renders terms as an OR tsquery. Terms are letter/digit runs,
// so they need no quoting.
func anyTermQuery(terms []string) string {
	return strings.Join(terms, " | ")
}

// CreateItem inserts the item and advances the channel cursor in one
// transaction. An existing (channel, message) record is returned untouched.
func (db *DB) CreateItem(ctx context.Context, item *domain.IndexedItem) (string, bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var existing pgtype.UUID

	err = tx.QueryRow(ctx, `
		SELECT id FROM items WHERE channel_id = $1 AND message_id = $2
	`, item.ChannelID, item.MessageID).Scan(&existing)

	switch {
	case err == nil:
		return fromUUID(existing), false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return "", false, fmt.Errorf("check existing item: %w", err)
	}

	status := item.Status
	if status == "" {
		status = domain.ItemActive
	}

	var id pgtype.UUID

	err = tx.QueryRow(ctx, `
		INSERT INTO items (
			channel_id, message_id, kind, file_id, file_unique_id, file_name, file_size,
			mime_type, thumbnail_id, source, title, alt_titles, description, imdb_id,
			year, season, episode, quality, language, duration, resolution, codec, width, height,
			keywords, is_premium, verification_required, auto_delete, auto_delete_after, expires_at,
			status, search_text
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24,
			$25, $26, $27, $28, $29, $30,
			$31, $32
		)
		ON CONFLICT (channel_id, message_id) DO NOTHING
		RETURNING id
	`,
		item.ChannelID, item.MessageID, string(item.Kind), item.FileID, item.FileUniqueID, SanitizeUTF8(item.FileName), item.FileSize,
		toText(item.MimeType), toText(item.ThumbnailID), string(item.Source), SanitizeUTF8(item.Title), sanitizeAll(item.AltTitles),
		toText(item.Description), toText(item.IMDBID),
		toInt4(item.Year), toInt4(item.Season), toInt4(item.Episode), toText(string(item.Quality)), toText(string(item.Language)),
		toInt4(item.Duration), toText(item.Resolution), toText(item.Codec), toInt4(item.Width), toInt4(item.Height),
		sanitizeAll(item.Keywords), item.IsPremium, item.VerificationRequired, item.AutoDelete, safeIntToInt32(item.AutoDeleteAfter),
		toTimestamptz(item.ExpiresAt), string(status), searchText(item),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race with a concurrent insert of the same message.
			found, ferr := db.FindItem(ctx, item.ChannelID, item.MessageID)
			if ferr != nil {
				return "", false, ferr
			}

			return found.ID, false, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return "", false, coreerrors.ErrChannelNotFound
		}

		return "", false, fmt.Errorf("insert item: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE channels
		SET last_indexed_message_id = GREATEST(last_indexed_message_id, $2),
			last_indexed_at = NOW(),
			error_count = 0,
			last_error = NULL,
			total_files = total_files + 1,
			updated_at = NOW()
		WHERE id = $1
	`, item.ChannelID, item.MessageID); err != nil {
		return "", false, fmt.Errorf("advance channel cursor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit item: %w", err)
	}

	return fromUUID(id), true, nil
}

// UpdateItemMetadata applies external enrichment to an item.
func (db *DB) UpdateItemMetadata(ctx context.Context, id string, md domain.ExternalMetadata) error {
	item, err := db.GetItem(ctx, id)
	if err != nil {
		return err
	}

	item.Apply(md)

	if _, err := db.Pool.Exec(ctx, `
		UPDATE items
		SET imdb_id = $2,
			rating = $3,
			genre = $4,
			cast_members = $5,
			director = $6,
			poster_url = $7,
			updated_at = NOW()
		WHERE id = $1
	`, toUUID(id), toText(item.IMDBID), toFloat8Ptr(item.Rating), sanitizeAll(item.Genre), sanitizeAll(item.Cast),
		toText(item.Director), toText(item.PosterURL)); err != nil {
		return fmt.Errorf("update item metadata: %w", err)
	}

	return nil
}

// IncrementItemCounter bumps one of the access counters of an item.
func (db *DB) IncrementItemCounter(ctx context.Context, id string, counter domain.ItemCounter) error {
	var column string

	switch counter {
	case domain.CounterViews:
		column = "views"
	case domain.CounterDownloads:
		column = "downloads"
	case domain.CounterClones:
		column = "clones"
	default:
		return fmt.Errorf("%w: counter %q", coreerrors.ErrInvalidArgument, counter)
	}

	tag, err := db.Pool.Exec(ctx, `UPDATE items SET `+column+` = `+column+` + 1 WHERE id = $1`, toUUID(id))
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrItemNotFound
	}

	return nil
}

// DeleteExpiredItems soft-deletes items whose expiry has passed and purges
// items soft-deleted longer than DeletedItemRetention ago. It returns the
// number of newly expired items.
func (db *DB) DeleteExpiredItems(ctx context.Context, now time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE items
		SET status = 'deleted', updated_at = $1
		WHERE status <> 'deleted'
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("expire items: %w", err)
	}

	purged, err := db.Pool.Exec(ctx, `
		DELETE FROM items
		WHERE status = 'deleted' AND updated_at < $1
	`, now.Add(-DeletedItemRetention))
	if err != nil {
		return tag.RowsAffected(), fmt.Errorf("purge deleted items: %w", err)
	}

	if n := purged.RowsAffected(); n > 0 && db.Logger != nil {
		db.Logger.Info().Int64("purged", n).Msg("purged deleted items")
	}

	return tag.RowsAffected(), nil
}

// ListRecentTitles returns distinct titles of recently indexed items, newest first.
func (db *DB) ListRecentTitles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultRecentTitles
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT title
		FROM items
		WHERE status = 'active' AND title <> ''
		GROUP BY title
		ORDER BY MAX(created_at) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent titles: %w", err)
	}

	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect recent titles: %w", err)
	}

	return titles, nil
}

// searchText is the document indexed by the items full-text vector.
func searchText(item *domain.IndexedItem) string {
	return SanitizeUTF8(item.SearchDocument())
}
