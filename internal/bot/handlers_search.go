package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/process/search"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.touchUser(ctx, msg.From, false)

	// Deep links from inline results carry the item to deliver.
	if payload := msg.CommandArguments(); strings.HasPrefix(payload, startPayloadGet) {
		itemID := strings.TrimPrefix(payload, startPayloadGet)
		if text := b.deliverMessage(b.deliver(ctx, msg.From.ID, itemID)); text != "" {
			b.reply(msg, text)
		}

		return
	}

	b.reply(msg, helpMessage(b.cfg.BotUsername, b.cfg.IsAdmin(msg.From.ID)))
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	b.reply(msg, helpMessage(b.cfg.BotUsername, b.cfg.IsAdmin(msg.From.ID)))
}

func (b *Bot) handleSearchCommand(ctx context.Context, msg *tgbotapi.Message) {
	q := strings.TrimSpace(msg.CommandArguments())
	if q == "" {
		b.reply(msg, msgSearchUsage)
		return
	}

	if !b.cfg.PMSearchEnabled {
		b.reply(msg, msgSearchDisabled)
		return
	}

	b.runSearch(ctx, msg.Chat.ID, msg.From, q, 0, 0)
}

// runSearch renders one result page. With editMessageID set the page
// replaces that message instead of sending a new one.
func (b *Bot) runSearch(ctx context.Context, chatID int64, from *tgbotapi.User, raw string, offset, editMessageID int) {
	b.touchUser(ctx, from, offset == 0)

	out, err := b.searcher.Search(ctx, search.SourcePrivate, raw, from.ID, offset, b.cfg.SearchPageSize)
	if err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldUserID, from.ID).Msg("search failed")
		b.sendMessage(chatID, searchErrorText(err))

		return
	}

	text := formatSearchPage(out)
	keyboard, hasKeyboard := resultsKeyboard(out)

	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editMessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML

		if hasKeyboard {
			edit.ReplyMarkup = &keyboard
		}

		if _, err := b.api.Send(edit); err != nil {
			b.logger.Error().Err(err).Msg("failed to edit results page")
		}

		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML

	if hasKeyboard {
		reply.ReplyMarkup = keyboard
	}

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Msg("failed to send results page")
	}
}

func searchErrorText(err error) string {
	if errors.Is(err, errors.ErrInvalidArgument) {
		return msgInvalidQuery
	}

	return msgSearchUnavailable
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}

	data := query.Data

	switch {
	case strings.HasPrefix(data, CallbackPrefixGet):
		b.handleGetCallback(ctx, query, strings.TrimPrefix(data, CallbackPrefixGet))
	case strings.HasPrefix(data, CallbackPrefixMore):
		b.handleMoreCallback(ctx, query)
	default:
		b.answerCallback(query, "", false)
	}
}

func (b *Bot) handleMoreCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	offset, q, ok := parseMoreData(query.Data)
	if !ok || query.Message == nil {
		b.answerCallback(query, "", false)
		return
	}

	b.answerCallback(query, "", false)
	b.runSearch(ctx, query.Message.Chat.ID, query.From, q, offset, query.Message.MessageID)
}

func (b *Bot) handleGetCallback(ctx context.Context, query *tgbotapi.CallbackQuery, itemID string) {
	outcome := b.deliver(ctx, query.From.ID, itemID)

	switch outcome {
	case deliveryDelivered:
		b.answerCallback(query, msgSending, false)
	default:
		b.answerCallback(query, stripTags(b.deliverMessage(outcome)), true)
	}
}

// deliver re-checks access and copies the file from its source channel into
// the user's private chat.
func (b *Bot) deliver(ctx context.Context, userID int64, itemID string) string {
	outcome := b.tryDeliver(ctx, userID, itemID)
	observability.FilesDelivered.WithLabelValues(outcome).Inc()

	return outcome
}

func (b *Bot) tryDeliver(ctx context.Context, userID int64, itemID string) string {
	item, err := b.database.GetItem(ctx, itemID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) && !errors.Is(err, errors.ErrInvalidID) {
			b.logger.Error().Err(err).Str(LogFieldItemID, itemID).Msg("failed to load item")
			return deliveryFailed
		}

		return deliveryNotFound
	}

	if !item.Discoverable(b.now()) {
		return deliveryNotFound
	}

	profile := b.access.Profile(ctx, userID)

	switch b.access.Decide(profile, item) {
	case domain.AccessPremiumRequired:
		return deliveryPremiumRequired
	case domain.AccessVerificationRequired:
		return deliveryVerificationRequired
	case domain.AccessAllow:
	}

	cp := tgbotapi.NewCopyMessage(userID, domain.BotAPIChatID(item.ChannelID), int(item.MessageID))
	if _, err := b.api.CopyMessage(cp); err != nil {
		b.logger.Error().Err(err).Str(LogFieldItemID, item.ID).Int64(LogFieldChannelID, item.ChannelID).Msg("failed to copy file")
		return deliveryFailed
	}

	if err := b.database.IncrementItemCounter(ctx, item.ID, domain.CounterDownloads); err != nil {
		b.logger.Warn().Err(err).Str(LogFieldItemID, item.ID).Msg("failed to count download")
	}

	return deliveryDelivered
}

func (b *Bot) deliverMessage(outcome string) string {
	switch outcome {
	case deliveryDelivered:
		return ""
	case deliveryNotFound:
		return msgFileGone
	case deliveryPremiumRequired:
		return msgPremiumRequired
	case deliveryVerificationRequired:
		return msgVerificationRequired
	default:
		return msgDeliveryFailed
	}
}

func noResultsText(query string) string {
	return fmt.Sprintf(msgNoResults, html.EscapeString(query))
}
