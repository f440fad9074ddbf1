package bot

import (
	"context"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	db "github.com/lueurxax/media-search-bot/internal/storage"
)

// Repository defines the storage operations required by the Bot.
type Repository interface {
	// Item operations
	GetItem(ctx context.Context, id string) (*domain.IndexedItem, error)
	IncrementItemCounter(ctx context.Context, id string, counter domain.ItemCounter) error

	// User operations
	TouchUser(ctx context.Context, userID int64, username, firstName string, searched bool) error
	SetVerified(ctx context.Context, userID int64, verified bool) error
	GrantPremium(ctx context.Context, p domain.Premium) error
	SetPremiumStatus(ctx context.Context, userID int64, status domain.PremiumStatus) error

	// Channel operations
	AddChannel(ctx context.Context, ch domain.ChannelSource) error
	FindChannel(ctx context.Context, channelID int64) (*domain.ChannelSource, error)
	ListChannels(ctx context.Context) ([]domain.ChannelSource, error)
	SaveChannelSettings(ctx context.Context, ch *domain.ChannelSource) error

	GetStats(ctx context.Context) (db.Stats, error)
}
