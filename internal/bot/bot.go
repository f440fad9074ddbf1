package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/platform/config"
	"github.com/lueurxax/media-search-bot/internal/platform/worker"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
	"github.com/lueurxax/media-search-bot/internal/process/search"
)

// Searcher runs a user query.
type Searcher interface {
	Search(ctx context.Context, source, raw string, requesterID int64, offset, limit int) (*search.Outcome, error)
}

// Indexer indexes a channel post.
type Indexer interface {
	Index(ctx context.Context, msg domain.ChannelMessage) (indexing.Result, error)
}

// AccessChecker re-evaluates gating before a file is delivered.
type AccessChecker interface {
	Profile(ctx context.Context, userID int64) domain.AccessProfile
	Decide(profile domain.AccessProfile, item *domain.IndexedItem) domain.AccessDecision
}

// RateLimiter throttles inline queries per user.
type RateLimiter interface {
	Allow(ctx context.Context, scope string, userID int64) bool
}

// Deps are the collaborators the bot delegates to.
type Deps struct {
	Searcher Searcher
	Indexer  Indexer
	Access   AccessChecker
	// Limiter is optional; an in-process limiter is used when nil.
	Limiter RateLimiter
}

type Bot struct {
	cfg      *config.Config
	database Repository
	searcher Searcher
	indexer  Indexer
	access   AccessChecker
	limiter  RateLimiter
	commands *commandRegistry
	api      *tgbotapi.BotAPI
	now      func() time.Time
	// retryDelay is the first backoff step for channel post retries.
	retryDelay time.Duration
	logger     *zerolog.Logger
}

func New(cfg *config.Config, database Repository, deps Deps, logger *zerolog.Logger) (*Bot, error) {
	client, err := newHTTPClient(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	if cfg.BotUsername == "" {
		cfg.BotUsername = api.Self.UserName
	}

	return newBot(cfg, database, deps, api, logger), nil
}

func newBot(cfg *config.Config, database Repository, deps Deps, api *tgbotapi.BotAPI, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = newLocalLimiter(cfg.InlineRateLimit, time.Minute)
	}

	b := &Bot{
		cfg:        cfg,
		database:   database,
		searcher:   deps.Searcher,
		indexer:    deps.Indexer,
		access:     deps.Access,
		limiter:    limiter,
		api:        api,
		now:        time.Now,
		retryDelay: indexRetryDelay,
		logger:     logger,
	}
	b.commands = b.newCommandRegistry()

	return b
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	u.AllowedUpdates = []string{"message", "channel_post", "callback_query", "inline_query"}

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info().Str(LogFieldUsername, b.api.Self.UserName).Msg("Bot started")

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("bot run context canceled: %w", ctx.Err())
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer worker.RecoverPanic(b.logger, "bot update")

	switch {
	case update.ChannelPost != nil:
		b.handleChannelPost(ctx, update.ChannelPost)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		b.handleInlineQuery(ctx, update.InlineQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}

	if msg.IsCommand() {
		b.logger.Info().Str("command", msg.Command()).Int64(LogFieldUserID, msg.From.ID).Msg("Handling command")

		if !b.commands.route(ctx, b, msg) {
			b.reply(msg, msgUnknownCommand)
		}

		return
	}

	if msg.Text == "" {
		return
	}

	if !b.cfg.PMSearchEnabled {
		b.reply(msg, msgSearchDisabled)
		return
	}

	b.runSearch(ctx, msg.Chat.ID, msg.From, msg.Text, 0, 0)
}

func (b *Bot) touchUser(ctx context.Context, user *tgbotapi.User, searched bool) {
	if user == nil {
		return
	}

	if err := b.database.TouchUser(ctx, user.ID, user.UserName, user.FirstName, searched); err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldUserID, user.ID).Msg("failed to record user activity")
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	parts := SplitHTML(text, MaxMessageSize)

	for i, part := range parts {
		if i > 0 {
			time.Sleep(SleepBetweenParts)
		}

		reply := tgbotapi.NewMessage(chatID, part)
		reply.ParseMode = tgbotapi.ModeHTML

		if _, err := b.api.Send(reply); err != nil {
			b.logger.Error().Err(err).Msg("failed to send reply")
		}
	}
}

func (b *Bot) answerCallback(query *tgbotapi.CallbackQuery, text string, alert bool) {
	cb := tgbotapi.NewCallback(query.ID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(query.ID, text)
	}

	if _, err := b.api.Request(cb); err != nil {
		b.logger.Error().Err(err).Msg("failed to send callback response")
	}
}
