package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/process/search"
)

const (
	inlineHelpID        = "help"
	inlineRateLimitedID = "rate_limited"
	inlineUnavailableID = "unavailable"
)

func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	if query.From == nil {
		return
	}

	if !b.cfg.InlineSearchEnabled {
		b.answerInline(query, nil, "")
		return
	}

	if strings.TrimSpace(query.Query) == "" {
		b.answerInline(query, []interface{}{inlineHelpArticle(b.cfg.BotUsername)}, "")
		return
	}

	if !b.limiter.Allow(ctx, rateScopeInline, query.From.ID) {
		b.answerInline(query, []interface{}{
			tgbotapi.NewInlineQueryResultArticleHTML(inlineRateLimitedID, msgRateLimited, msgRateLimited),
		}, "")

		return
	}

	b.touchUser(ctx, query.From, query.Offset == "")

	offset := parseInlineOffset(query.Offset)

	out, err := b.searcher.Search(ctx, search.SourceInline, query.Query, query.From.ID, offset, inlinePageSize)
	if err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldUserID, query.From.ID).Msg("inline search failed")

		text := searchErrorText(err)
		b.answerInline(query, []interface{}{
			tgbotapi.NewInlineQueryResultArticleHTML(inlineUnavailableID, stripTags(text), text),
		}, "")

		return
	}

	next := ""
	if out.Page.HasNext {
		next = strconv.Itoa(out.Page.NextOffset())
	}

	b.answerInline(query, inlineResults(out.Page, b.cfg.BotUsername), next)
}

func (b *Bot) answerInline(query *tgbotapi.InlineQuery, results []interface{}, nextOffset string) {
	if results == nil {
		results = []interface{}{}
	}

	cfg := tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       results,
		CacheTime:     inlineCacheSeconds,
		IsPersonal:    true,
		NextOffset:    nextOffset,
	}

	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Error().Err(err).Msg("failed to answer inline query")
	}
}

func parseInlineOffset(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}

	return n
}

func inlineHelpArticle(botUsername string) tgbotapi.InlineQueryResultArticle {
	article := tgbotapi.NewInlineQueryResultArticleHTML(inlineHelpID,
		"Type a movie or series title",
		helpMessage(botUsername, false))
	article.Description = "e.g. interstellar 2014, breaking bad s02e05"

	return article
}

// inlineResults renders a page as articles. Each article links to the bot's
// private chat, where the file is delivered after the access check.
func inlineResults(page *domain.SearchResultPage, botUsername string) []interface{} {
	results := make([]interface{}, 0, len(page.Results))

	for _, r := range page.Results {
		item := r.Item
		article := tgbotapi.NewInlineQueryResultArticleHTML(item.ID, resultLabel(r), formatItemCard(&item))
		article.Description = itemSummary(&item)

		if botUsername != "" {
			keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("📥 Get file", deepLink(botUsername, item.ID)),
			))
			article.ReplyMarkup = &keyboard
		}

		results = append(results, article)
	}

	return results
}

func deepLink(botUsername, itemID string) string {
	return "https://t.me/" + botUsername + "?start=" + startPayloadGet + itemID
}
