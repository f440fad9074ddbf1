// Package reader backfills channel history over an MTProto user session and
// feeds media posts to the indexing pipeline. It catches up on posts the bot
// missed, e.g. while it was offline or before it was added to a channel.
package reader

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/config"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/platform/worker"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
)

const (
	// maxHistoryBatch is the MTProto cap for one history page.
	maxHistoryBatch = 200
	maxWorkers      = 10
	floodWaitType   = "FLOOD_WAIT"
	indexRetryDelay = 500 * time.Millisecond
	// maxCycleBackoff caps the pause between failing backfill cycles.
	maxCycleBackoff = 30 * time.Minute

	logFieldChannelID = "channel_id"
)

// ErrMissingAccessHash is returned for channels that can be neither addressed
// nor resolved by username.
var ErrMissingAccessHash = errors.New("channel has no access hash or username")

// Indexer indexes one channel message.
type Indexer interface {
	Index(ctx context.Context, msg domain.ChannelMessage) (indexing.Result, error)
}

// historyAPI is the part of the MTProto API the reader calls. *tg.Client
// implements it.
type historyAPI interface {
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	ContactsResolveUsername(ctx context.Context, request *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
}

type Reader struct {
	cfg        *config.Config
	repo       Repository
	indexer    Indexer
	api        historyAPI
	pacer      *rate.Limiter
	wait       func(ctx context.Context, d time.Duration) error
	retryDelay time.Duration
	logger     *zerolog.Logger
}

func New(cfg *config.Config, repo Repository, indexer Indexer, logger *zerolog.Logger) *Reader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	rps := max(cfg.RateLimitRPS, 1)

	return &Reader{
		cfg:        cfg,
		repo:       repo,
		indexer:    indexer,
		pacer:      rate.NewLimiter(rate.Limit(rps), 1),
		wait:       worker.Wait,
		retryDelay: indexRetryDelay,
		logger:     logger,
	}
}

// Run logs in with the user session and backfills every poll interval until
// ctx is canceled.
func (r *Reader) Run(ctx context.Context) error {
	client := telegram.NewClient(r.cfg.TGAPIID, r.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: r.cfg.TGSessionPath,
		},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("authenticate reader session: %w", err)
		}

		r.logger.Info().Msg("Successfully authenticated as user")
		r.api = client.API()

		return worker.Loop(ctx, worker.Config{
			Name:         "reader",
			PollInterval: r.cfg.ReaderPollInterval,
			MaxBackoff:   maxCycleBackoff,
			Process: func(ctx context.Context) error {
				_, err := r.Backfill(ctx)
				return err
			},
			OnError: func(err error) bool {
				r.logger.Error().Err(err).Msg("backfill cycle failed")
				return ctx.Err() == nil
			},
			Logger: r.logger,
		})
	})
}

// Backfill makes one pass over the indexable channels and returns the number
// of messages handed to the pipeline. A failing channel does not stop the
// others.
func (r *Reader) Backfill(ctx context.Context) (int, error) {
	channels, err := r.repo.ListIndexableChannels(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexable channels: %w", err)
	}

	if len(channels) == 0 {
		r.logger.Debug().Msg("No indexable channels")
		return 0, nil
	}

	start := time.Now()

	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(max(r.cfg.RateLimitRPS, 1), maxWorkers))

	for i := range channels {
		ch := channels[i]

		g.Go(func() error {
			n, err := r.backfillChannel(gctx, &ch)
			total.Add(int64(n))

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				r.logger.Error().Err(err).Int64(logFieldChannelID, ch.ID).Msg("failed to backfill channel")
			}

			return nil
		})
	}

	err = g.Wait()
	count := int(total.Load())

	if err != nil {
		return count, fmt.Errorf("backfill: %w", err)
	}

	r.logger.Info().Int("channels", len(channels)).Int("msgs", count).Dur("duration", time.Since(start)).Msg("Finished backfill cycle")

	return count, nil
}

func (r *Reader) backfillChannel(ctx context.Context, ch *domain.ChannelSource) (int, error) {
	peer, err := r.resolvePeer(ctx, ch)
	if err != nil {
		return 0, err
	}

	messages, highest, err := r.fetchHistory(ctx, peer, ch)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, msg := range messages {
		// Stop at the first failure so the cursor never skips a message.
		if err := r.index(ctx, msg); err != nil {
			return count, fmt.Errorf("index message %d: %w", msg.MessageID, err)
		}

		count++
	}

	// Messages without media never reach the indexer, so the cursor is moved
	// past them here or the next cycle would fetch the same page again.
	if highest > ch.LastIndexedMessageID {
		if err := r.repo.UpdateChannelCursor(ctx, ch.ID, ports.CursorUpdate{MessageID: highest}); err != nil {
			return count, fmt.Errorf("advance cursor to %d: %w", highest, err)
		}

		ch.LastIndexedMessageID = highest
	}

	if count > 0 {
		r.logger.Info().Int64(logFieldChannelID, ch.ID).Int("count", count).Msg("Indexed channel history")
	}

	return count, nil
}

// resolvePeer returns the input peer of ch, resolving and storing the access
// hash by username when it is not known yet.
func (r *Reader) resolvePeer(ctx context.Context, ch *domain.ChannelSource) (tg.InputPeerClass, error) {
	if ch.AccessHash != 0 {
		return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
	}

	if ch.Username == "" {
		return nil, fmt.Errorf("%w: %d", ErrMissingAccessHash, ch.ID)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pace resolve: %w", err)
	}

	resolved, err := r.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: ch.Username})
	if err != nil {
		return nil, fmt.Errorf("resolve username %s: %w", ch.Username, err)
	}

	for _, chat := range resolved.Chats {
		channel, ok := chat.(*tg.Channel)
		if !ok || channel.ID != ch.ID {
			continue
		}

		r.logger.Info().Int64(logFieldChannelID, ch.ID).Str("username", ch.Username).Msg("Caching channel access hash")

		if err := r.repo.UpdateChannelAccess(ctx, ch.ID, channel.AccessHash, channel.Username); err != nil {
			r.logger.Warn().Err(err).Int64(logFieldChannelID, ch.ID).Msg("failed to store channel access hash")
		}

		ch.AccessHash = channel.AccessHash

		return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
	}

	return nil, fmt.Errorf("%w: @%s does not resolve to channel %d", errors.ErrChannelNotFound, ch.Username, ch.ID)
}

// fetchHistory returns the indexable messages newer than the channel cursor,
// oldest first, and the highest message id seen in the page whether or not
// it carried media. A flood wait is honored and yields no messages; the
// channel is picked up again on the next cycle.
func (r *Reader) fetchHistory(ctx context.Context, peer tg.InputPeerClass, ch *domain.ChannelSource) ([]domain.ChannelMessage, int64, error) {
	limit := r.batchSize(ch)

	req := &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: limit,
	}

	if ch.LastIndexedMessageID > 0 {
		// Page forward from the cursor instead of reading the newest messages.
		req.OffsetID = int(ch.LastIndexedMessageID)
		req.AddOffset = -limit
		req.MinID = int(ch.LastIndexedMessageID)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("pace history: %w", err)
	}

	history, err := r.api.MessagesGetHistory(ctx, req)
	if err != nil {
		if d, ok := floodWait(err); ok {
			r.logger.Warn().Dur("wait", d).Int64(logFieldChannelID, ch.ID).Msg("flood wait")
			return nil, 0, r.wait(ctx, d)
		}

		return nil, 0, fmt.Errorf("get history: %w", err)
	}

	var raw []tg.MessageClass

	switch h := history.(type) {
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessagesNotModified:
		return nil, 0, nil
	}

	observability.ReaderMessagesFetched.WithLabelValues(strconv.FormatInt(ch.ID, 10)).Add(float64(len(raw)))

	out := make([]domain.ChannelMessage, 0, len(raw))

	var highest int64

	for _, m := range raw {
		id := int64(m.GetID())
		if id <= ch.LastIndexedMessageID {
			continue
		}

		highest = max(highest, id)

		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		if cm, ok := messageFromTG(ch.ID, msg); ok {
			out = append(out, cm)
		}
	}

	slices.SortFunc(out, func(a, b domain.ChannelMessage) int {
		return cmp.Compare(a.MessageID, b.MessageID)
	})

	return out, highest, nil
}

func (r *Reader) batchSize(ch *domain.ChannelSource) int {
	limit := ch.MaxMessagesPerBatch
	if limit <= 0 {
		limit = r.cfg.ReaderFetchLimit
	}

	if limit <= 0 {
		limit = domain.DefaultMaxMessagesPerBatch
	}

	return min(limit, maxHistoryBatch)
}

func (r *Reader) index(ctx context.Context, msg domain.ChannelMessage) error {
	return retry.Do(
		func() error {
			res, err := r.indexer.Index(ctx, msg)
			if err != nil {
				return err
			}

			r.logger.Debug().Int64(logFieldChannelID, msg.ChannelID).Int64("message_id", msg.MessageID).
				Str("outcome", string(res.Outcome)).Str("reason", res.Reason).Msg("history message processed")

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(r.cfg.IndexRetryAttempts, 1))),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errors.ErrStoreUnavailable)
		}),
	)
}

// floodWait extracts the wait demanded by a FLOOD_WAIT error.
func floodWait(err error) (time.Duration, bool) {
	rpcErr, ok := tgerr.As(err)
	if !ok || rpcErr.Type != floodWaitType {
		return 0, false
	}

	return time.Duration(rpcErr.Argument) * time.Second, true
}
