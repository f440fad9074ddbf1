package bot

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// handleChannelPost indexes media posted in a channel the bot administers.
// Transient store failures are retried; everything else is final.
func (b *Bot) handleChannelPost(ctx context.Context, post *tgbotapi.Message) {
	msg, ok := channelMessageFromPost(post)
	if !ok {
		return
	}

	logger := b.logger.With().Int64(LogFieldChannelID, msg.ChannelID).Int64(LogFieldMessageID, msg.MessageID).Logger()

	err := retry.Do(
		func() error {
			res, err := b.indexer.Index(ctx, msg)
			if err != nil {
				return err
			}

			logger.Debug().Str("outcome", string(res.Outcome)).Str("reason", res.Reason).Str(LogFieldItemID, res.ItemID).Msg("channel post processed")

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(b.cfg.IndexRetryAttempts, 1))),
		retry.Delay(b.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errors.ErrStoreUnavailable)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("attempt", n+1).Msg("retrying channel post")
		}),
	)
	if err == nil {
		return
	}

	if errors.Is(err, errors.ErrChannelNotFound) {
		logger.Debug().Msg("post from unlinked channel ignored")
		return
	}

	logger.Error().Err(err).Msg("failed to index channel post")
}

// channelMessageFromPost extracts the indexable media of a Bot API post.
// Posts without a video, document, audio or photo are not indexable.
func channelMessageFromPost(post *tgbotapi.Message) (domain.ChannelMessage, bool) {
	if post == nil || post.Chat == nil {
		return domain.ChannelMessage{}, false
	}

	media, ok := mediaFromPost(post)
	if !ok {
		return domain.ChannelMessage{}, false
	}

	return domain.ChannelMessage{
		ChannelID: domain.ChannelIDFromChat(post.Chat.ID),
		MessageID: int64(post.MessageID),
		Media:     media,
		Caption:   post.Caption,
		Text:      post.Text,
		Date:      time.Unix(int64(post.Date), 0).UTC(),
	}, true
}

func mediaFromPost(post *tgbotapi.Message) (domain.MediaFile, bool) {
	switch {
	case post.Video != nil:
		v := post.Video

		return domain.MediaFile{
			Kind:         domain.MediaVideo,
			FileID:       v.FileID,
			FileUniqueID: v.FileUniqueID,
			FileName:     v.FileName,
			Size:         int64(v.FileSize),
			MimeType:     v.MimeType,
			ThumbnailID:  thumbID(v.Thumbnail),
			Video:        &domain.VideoInfo{Width: v.Width, Height: v.Height, Duration: v.Duration},
		}, true
	case post.Document != nil:
		d := post.Document

		return domain.MediaFile{
			Kind:         domain.MediaDocument,
			FileID:       d.FileID,
			FileUniqueID: d.FileUniqueID,
			FileName:     d.FileName,
			Size:         int64(d.FileSize),
			MimeType:     d.MimeType,
			ThumbnailID:  thumbID(d.Thumbnail),
		}, true
	case post.Audio != nil:
		a := post.Audio

		return domain.MediaFile{
			Kind:         domain.MediaAudio,
			FileID:       a.FileID,
			FileUniqueID: a.FileUniqueID,
			FileName:     a.FileName,
			Size:         int64(a.FileSize),
			MimeType:     a.MimeType,
			ThumbnailID:  thumbID(a.Thumbnail),
			Audio:        &domain.AudioInfo{Duration: a.Duration, Performer: a.Performer, Title: a.Title},
		}, true
	case len(post.Photo) > 0:
		// Sizes are ordered smallest first.
		p := post.Photo[len(post.Photo)-1]

		return domain.MediaFile{
			Kind:         domain.MediaPhoto,
			FileID:       p.FileID,
			FileUniqueID: p.FileUniqueID,
			Size:         int64(p.FileSize),
			MimeType:     "image/jpeg",
			Photo:        &domain.PhotoInfo{Width: p.Width, Height: p.Height},
		}, true
	default:
		return domain.MediaFile{}, false
	}
}

func thumbID(p *tgbotapi.PhotoSize) string {
	if p == nil {
		return ""
	}

	return p.FileID
}
