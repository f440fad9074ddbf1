// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

// ItemQuery is the predicate and window for a store search. An empty Text
// browses every discoverable item.
type ItemQuery struct {
	Text   string
	Offset int
	Limit  int
	Now    time.Time
}

// CursorUpdate describes the channel state change recorded with an index attempt.
type CursorUpdate struct {
	MessageID int64
	Failed    bool
	LastError string
}

// ItemReader reads indexed items.
type ItemReader interface {
	FindItem(ctx context.Context, channelID, messageID int64) (*domain.IndexedItem, error)
	GetItem(ctx context.Context, id string) (*domain.IndexedItem, error)
	// FindItemsByQuery returns the window ordered by recency (newest first,
	// ties broken by id) together with the total match count.
	FindItemsByQuery(ctx context.Context, q ItemQuery) ([]domain.IndexedItem, int, error)
	// CountItemsByQuery returns the total FindItemsByQuery would report.
	CountItemsByQuery(ctx context.Context, q ItemQuery) (int, error)
}

// ItemWriter persists items together with their channel cursor.
type ItemWriter interface {
	// CreateItem stores the item and advances the channel cursor in one unit.
	// A record that already exists for (channel, message) is left untouched and
	// reported with created=false.
	CreateItem(ctx context.Context, item *domain.IndexedItem) (id string, created bool, err error)
	UpdateItemMetadata(ctx context.Context, id string, md domain.ExternalMetadata) error
	IncrementItemCounter(ctx context.Context, id string, counter domain.ItemCounter) error
}

// ChannelRepository manages channel sources.
type ChannelRepository interface {
	FindChannel(ctx context.Context, channelID int64) (*domain.ChannelSource, error)
	UpdateChannelCursor(ctx context.Context, channelID int64, update CursorUpdate) error
}

// ItemRepository combines item reads and writes.
type ItemRepository interface {
	ItemReader
	ItemWriter
}

// UserRepository reads access-relevant user state.
type UserRepository interface {
	GetAccessProfile(ctx context.Context, userID int64) (domain.AccessProfile, error)
}

// PageCache caches store windows for a query. Implementations may drop entries at any time.
type PageCache interface {
	GetPage(ctx context.Context, key string) (ids []string, total int, ok bool)
	SetPage(ctx context.Context, key string, ids []string, total int)
}

// MetadataLookup fetches external metadata for a title.
type MetadataLookup interface {
	LookupByTitle(ctx context.Context, title string, year int) (*domain.ExternalMetadata, error)
}

// TitleSink receives titles produced by extraction.
type TitleSink interface {
	AddTitle(title string)
}

// ItemJanitor removes items whose expiry has passed.
type ItemJanitor interface {
	DeleteExpiredItems(ctx context.Context, now time.Time) (int64, error)
}

// Locker is a best-effort advisory lock with a TTL. TryLock returns
// errors.ErrLockNotAcquired when another holder owns key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}
