// Package indexing turns channel messages into searchable items.
//
// Index is safe to call concurrently and to retry: a re-delivered message is
// detected and ignored, and the channel cursor only ever moves forward.
package indexing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/process/filters"
	"github.com/lueurxax/media-search-bot/internal/process/titleparse"
)

// Outcome is what Index did with a message.
type Outcome string

const (
	OutcomeIndexed   Outcome = "indexed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

const (
	reasonChannelDisabled = "channel_disabled"
	reasonInvalidItem     = "invalid_item"

	enrichTimeout = 10 * time.Second
)

// Result describes a single Index call.
type Result struct {
	Outcome Outcome
	ItemID  string
	Reason  string
}

// Pipeline indexes channel messages.
type Pipeline struct {
	items    ports.ItemRepository
	channels ports.ChannelRepository
	parser   *titleparse.Parser
	titles   ports.TitleSink
	lookup   ports.MetadataLookup
	now      func() time.Time
	logger   *zerolog.Logger
}

// New creates a Pipeline. titles and lookup are optional.
func New(items ports.ItemRepository, channels ports.ChannelRepository, parser *titleparse.Parser, titles ports.TitleSink, lookup ports.MetadataLookup, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		items:    items,
		channels: channels,
		parser:   parser,
		titles:   titles,
		lookup:   lookup,
		now:      time.Now,
		logger:   logger,
	}
}

// Index processes one channel message.
//
// A channel that is unknown yields ErrChannelNotFound. A channel that may not
// be indexed yields OutcomeSkipped. Messages failing the channel rules are
// rejected and still advance the cursor. A store failure during creation
// counts against the channel, leaves the cursor in place and returns
// ErrStoreUnavailable so the caller can retry.
func (p *Pipeline) Index(ctx context.Context, msg domain.ChannelMessage) (Result, error) {
	ch, err := p.channels.FindChannel(ctx, msg.ChannelID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Result{}, err
		}

		return p.fail(Result{}, fmt.Errorf("%w: find channel: %w", errors.ErrStoreUnavailable, err))
	}

	if !ch.CanIndex() {
		observability.IndexRejections.WithLabelValues(reasonChannelDisabled).Inc()

		return Result{Outcome: OutcomeSkipped, Reason: reasonChannelDisabled}, nil
	}

	existing, err := p.items.FindItem(ctx, msg.ChannelID, msg.MessageID)

	switch {
	case err == nil:
		observability.ItemsIndexed.WithLabelValues(string(OutcomeDuplicate)).Inc()

		return Result{Outcome: OutcomeDuplicate, ItemID: existing.ID}, nil
	case !errors.Is(err, errors.ErrNotFound):
		return p.fail(Result{}, fmt.Errorf("%w: duplicate check: %w", errors.ErrStoreUnavailable, err))
	}

	if ok, reason := filters.New().FilterReason(&msg, ch); !ok {
		return p.reject(ctx, msg, reason)
	}

	now := p.now()

	item := p.buildItem(msg, ch, now)
	if err := item.Validate(now); err != nil {
		p.logger.Warn().Err(err).Int64("channel_id", msg.ChannelID).Int64("message_id", msg.MessageID).Msg("extracted item is invalid")

		return p.reject(ctx, msg, reasonInvalidItem)
	}

	id, created, err := p.items.CreateItem(ctx, item)
	if err != nil {
		return p.recordFailure(ctx, msg, err)
	}

	if !created {
		observability.ItemsIndexed.WithLabelValues(string(OutcomeDuplicate)).Inc()

		return Result{Outcome: OutcomeDuplicate, ItemID: id}, nil
	}

	item.ID = id

	observability.ItemsIndexed.WithLabelValues(string(OutcomeIndexed)).Inc()
	p.logger.Debug().Str("item_id", id).Str("title", item.Title).Int64("channel_id", msg.ChannelID).Msg("item indexed")

	if p.titles != nil && item.Title != "" {
		p.titles.AddTitle(item.Title)
	}

	p.enrich(ctx, item)

	return Result{Outcome: OutcomeIndexed, ItemID: id}, nil
}

func (p *Pipeline) reject(ctx context.Context, msg domain.ChannelMessage, reason string) (Result, error) {
	observability.IndexRejections.WithLabelValues(reason).Inc()

	res := Result{Outcome: OutcomeRejected, Reason: reason}

	if err := p.channels.UpdateChannelCursor(ctx, msg.ChannelID, ports.CursorUpdate{MessageID: msg.MessageID}); err != nil {
		return p.fail(res, fmt.Errorf("%w: advance cursor: %w", errors.ErrStoreUnavailable, err))
	}

	return res, nil
}

func (p *Pipeline) recordFailure(ctx context.Context, msg domain.ChannelMessage, cause error) (Result, error) {
	if errors.Is(cause, errors.ErrNotFound) {
		return Result{}, cause
	}

	observability.ChannelErrors.WithLabelValues(fmt.Sprint(msg.ChannelID)).Inc()

	update := ports.CursorUpdate{MessageID: msg.MessageID, Failed: true, LastError: cause.Error()}
	if err := p.channels.UpdateChannelCursor(ctx, msg.ChannelID, update); err != nil {
		p.logger.Error().Err(err).Int64("channel_id", msg.ChannelID).Msg("failed to record channel failure")
	}

	return p.fail(Result{}, fmt.Errorf("%w: create item: %w", errors.ErrStoreUnavailable, cause))
}

func (p *Pipeline) fail(res Result, err error) (Result, error) {
	observability.ItemsIndexed.WithLabelValues(string(OutcomeFailed)).Inc()

	res.Outcome = OutcomeFailed

	return res, err
}

func (p *Pipeline) buildItem(msg domain.ChannelMessage, ch *domain.ChannelSource, now time.Time) *domain.IndexedItem {
	media := msg.Media
	md := p.parser.ExtractMessage(titleparse.Source{
		FileName: media.FileName,
		Caption:  msg.Caption,
		Text:     msg.Text,
	})

	title := md.Title
	if title == "" {
		title = strings.TrimSpace(media.FileName)
	}

	width, height := media.Dimensions()

	item := &domain.IndexedItem{
		ChannelID:    msg.ChannelID,
		MessageID:    msg.MessageID,
		Kind:         media.Kind,
		FileID:       media.FileID,
		FileUniqueID: media.FileUniqueID,
		FileName:     media.FileName,
		FileSize:     media.Size,
		MimeType:     media.MimeType,
		ThumbnailID:  media.ThumbnailID,
		Source:       domain.SourceChannel,

		Title:       title,
		Description: md.Description,
		IMDBID:      md.IMDBID,
		Year:        md.Year,
		Quality:     md.Quality,
		Language:    md.Language,
		Codec:       md.Codec,
		Duration:    media.Duration(),
		Resolution:  media.Resolution(),
		Width:       width,
		Height:      height,
		Keywords:    titleparse.Keywords(title, nil, md.Tags),

		IsPremium:            ch.IsPremiumOnly,
		VerificationRequired: ch.VerificationRequired,
		AutoDelete:           ch.AutoDelete,
		AutoDeleteAfter:      ch.AutoDeleteAfter,
		ExpiresAt:            ch.ItemExpiry(now),

		Status:    domain.ItemActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// A bare episode number without a season is not a usable marker.
	if md.Season > 0 && md.Episode > 0 {
		item.Season, item.Episode = md.Season, md.Episode
	}

	if item.Quality == "" {
		item.Quality = qualityFromHeight(height)
	}

	return item
}

func qualityFromHeight(h int) domain.Quality {
	switch {
	case h >= 2160:
		return domain.QualityUHD
	case h >= 1080:
		return domain.QualityFHD
	case h >= 720:
		return domain.QualityHD
	case h > 0:
		return domain.QualitySD
	default:
		return ""
	}
}

func (p *Pipeline) enrich(ctx context.Context, item *domain.IndexedItem) {
	if p.lookup == nil || item.Title == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	md, err := p.lookup.LookupByTitle(ctx, item.Title, item.Year)
	if err != nil {
		p.logger.Debug().Err(err).Str("item_id", item.ID).Msg("metadata lookup failed")
		return
	}

	if md == nil {
		return
	}

	if err := p.items.UpdateItemMetadata(ctx, item.ID, *md); err != nil {
		p.logger.Warn().Err(err).Str("item_id", item.ID).Msg("failed to store metadata")
	}
}
