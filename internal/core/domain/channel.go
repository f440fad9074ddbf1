package domain

import (
	"slices"
	"time"
)

// ChannelStatus is the administrative state of a channel source.
type ChannelStatus string

const (
	ChannelActive     ChannelStatus = "active"
	ChannelInactive   ChannelStatus = "inactive"
	ChannelBanned     ChannelStatus = "banned"
	ChannelRestricted ChannelStatus = "restricted"
	ChannelArchived   ChannelStatus = "archived"
)

// IndexMode controls how a channel is indexed.
type IndexMode string

const (
	IndexAuto      IndexMode = "auto"
	IndexManual    IndexMode = "manual"
	IndexScheduled IndexMode = "scheduled"
	IndexDisabled  IndexMode = "disabled"
)

// Defaults applied to newly registered channels.
const (
	DefaultMaxMessagesPerBatch = 100
	DefaultAutoDeleteAfter     = 86400
	DefaultIndexingInterval    = 30
)

// DefaultAllowedKinds are the media kinds a new channel indexes.
func DefaultAllowedKinds() []MediaKind {
	return []MediaKind{MediaVideo, MediaDocument, MediaPhoto}
}

// ChannelSource is a configured origin of indexable content.
type ChannelSource struct {
	ID         int64
	Title      string
	Username   string
	AccessHash int64

	Status          ChannelStatus
	Linked          bool
	IndexingEnabled bool
	Mode            IndexMode

	LastIndexedMessageID int64
	LastIndexedAt        time.Time
	IndexingInterval     int
	MaxMessagesPerBatch  int

	MinFileSize     int64
	MaxFileSize     int64
	AllowedKinds    []MediaKind
	IncludeKeywords []string
	ExcludeKeywords []string

	AutoDelete           bool
	AutoDeleteAfter      int
	IsPremiumOnly        bool
	VerificationRequired bool

	TotalFiles int64
	ErrorCount int
	LastError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewChannelSource returns a channel with the registration defaults.
func NewChannelSource(id int64, title string) ChannelSource {
	return ChannelSource{
		ID:                  id,
		Title:               title,
		Status:              ChannelActive,
		Linked:              true,
		IndexingEnabled:     true,
		Mode:                IndexAuto,
		IndexingInterval:    DefaultIndexingInterval,
		MaxMessagesPerBatch: DefaultMaxMessagesPerBatch,
		AllowedKinds:        DefaultAllowedKinds(),
		AutoDeleteAfter:     DefaultAutoDeleteAfter,
	}
}

// CanIndex reports whether new messages from the channel may be indexed.
func (c *ChannelSource) CanIndex() bool {
	return c.Status == ChannelActive && c.Linked && c.IndexingEnabled && c.Mode != IndexDisabled
}

// AllowsKind reports whether the channel indexes the given media kind.
func (c *ChannelSource) AllowsKind(kind MediaKind) bool {
	return slices.Contains(c.AllowedKinds, kind)
}

// ItemExpiry returns the expiry for an item indexed at t, or the zero time when
// the channel does not auto-delete.
func (c *ChannelSource) ItemExpiry(t time.Time) time.Time {
	if !c.AutoDelete || c.AutoDeleteAfter <= 0 {
		return time.Time{}
	}

	return t.Add(time.Duration(c.AutoDeleteAfter) * time.Second)
}

// AdvanceCursor records a processed message. The cursor never moves
// backwards and the error state is cleared.
func (c *ChannelSource) AdvanceCursor(messageID int64, at time.Time) {
	c.LastIndexedMessageID = max(c.LastIndexedMessageID, messageID)
	c.LastIndexedAt = at
	c.ErrorCount = 0
	c.LastError = ""
}

// RecordFailure counts a failed index attempt without touching the cursor.
func (c *ChannelSource) RecordFailure(reason string) {
	c.ErrorCount++
	c.LastError = reason
}

// botAPIChannelBase offsets a bare channel id into the Bot API chat id space.
const botAPIChannelBase = 1_000_000_000_000

// BotAPIChatID returns the Bot API chat id (-100...) for a bare channel id.
func BotAPIChatID(channelID int64) int64 {
	return -botAPIChannelBase - channelID
}

// ChannelIDFromChat converts a Bot API chat id back to the bare channel id.
// Ids that are not in the channel range are returned unchanged.
func ChannelIDFromChat(chatID int64) int64 {
	if chatID < -botAPIChannelBase {
		return -chatID - botAPIChannelBase
	}

	return chatID
}
