package reader

import (
	"context"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	db "github.com/lueurxax/media-search-bot/internal/storage"
)

// Repository defines the storage operations required by the Reader.
type Repository interface {
	ListIndexableChannels(ctx context.Context) ([]domain.ChannelSource, error)
	UpdateChannelAccess(ctx context.Context, channelID, accessHash int64, username string) error
	UpdateChannelCursor(ctx context.Context, channelID int64, update ports.CursorUpdate) error
}

// Compile-time assertion that *db.DB implements Repository.
var _ Repository = (*db.DB)(nil)
