// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Bot mode: Telegram bot serving search, delivery and admin commands
//   - Reader mode: MTProto client that backfills tracked channels
//   - Worker mode: Periodic maintenance such as the expired item sweep
//
// Each mode can be run independently or combined based on deployment needs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/bot"
	"github.com/lueurxax/media-search-bot/internal/core/metadata"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/ingest/reader"
	"github.com/lueurxax/media-search-bot/internal/platform/config"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/platform/worker"
	"github.com/lueurxax/media-search-bot/internal/process/access"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
	"github.com/lueurxax/media-search-bot/internal/process/query"
	"github.com/lueurxax/media-search-bot/internal/process/search"
	"github.com/lueurxax/media-search-bot/internal/process/titleparse"
	db "github.com/lueurxax/media-search-bot/internal/storage"
	"github.com/lueurxax/media-search-bot/internal/storage/cache"
)

const (
	errBotInit = "bot initialization failed: %w"

	// corpusWarmupTitles bounds how many stored titles seed the spelling corpus.
	corpusWarmupTitles = 5000
	cleanupWorkerName  = "expired-items-cleanup"
	inlineRateWindow   = time.Minute
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	redis    *redis.Client
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// ConnectCache connects to Redis when REDIS_ADDR is set. An unreachable Redis
// is logged and the app continues with in-process fallbacks.
func (a *App) ConnectCache(ctx context.Context) {
	if a.cfg.RedisAddr == "" {
		a.logger.Info().Msg("Redis not configured, using in-process cache fallbacks")
		return
	}

	client, err := cache.NewClient(ctx, cache.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("Redis unavailable, continuing without it")
		return
	}

	a.redis = client
}

// Close releases the connections owned by the App.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	checks := map[string]observability.Pinger{
		"postgres": a.database,
	}

	if a.redis != nil {
		checks["redis"] = cache.NewPinger(a.redis)
	}

	if err := observability.NewServer(checks, a.cfg.HealthPort, a.logger).Start(ctx); err != nil {
		return fmt.Errorf("health server: %w", err)
	}

	return nil
}

// RunBot runs the bot mode.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	corpus := a.newCorpus(ctx)
	policy := access.NewPolicy(a.database, a.cfg.PremiumEnabled, a.logger)

	var pages ports.PageCache
	if a.redis != nil {
		pages = cache.NewPageCache(a.redis, a.cfg.SearchCacheTTL, a.logger)
	}

	engine := search.NewEngine(a.database, policy, pages, a.logger)
	service := search.NewService(engine, query.New(corpus, a.logger), a.cfg.SpellCheckEnabled)

	deps := bot.Deps{
		Searcher: service,
		Indexer:  a.newIndexer(corpus),
		Access:   policy,
	}

	if a.redis != nil {
		deps.Limiter = cache.NewRateLimiter(a.redis, a.cfg.InlineRateLimit, inlineRateWindow, a.logger)
	}

	//nolint:contextcheck // bot owns its update loop context
	b, err := bot.New(a.cfg, a.database, deps, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

// RunReader runs the reader mode.
func (a *App) RunReader(ctx context.Context) error {
	a.logger.Info().Msg("Starting reader mode")

	if err := a.cfg.ValidateReader(); err != nil {
		return fmt.Errorf("reader config: %w", err)
	}

	// The reader has no query path, so the corpus only collects titles.
	r := reader.New(a.cfg, a.database, a.newIndexer(query.NewCorpus()), a.logger)

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("reader run: %w", err)
	}

	return nil
}

// RunWorker runs the worker mode.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	cleaner := indexing.NewCleaner(a.database, a.locker(), a.logger)

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:       cleanupWorkerName,
		Interval:   a.cfg.CleanupInterval,
		RunOnStart: true,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) {
			n, err := cleaner.Run(ctx)
			if err != nil {
				a.logger.Error().Err(err).Msg("expired items cleanup failed")
				return
			}

			if n > 0 {
				a.logger.Info().Int64("items", n).Msg("expired items cleaned up")
			}
		},
	})
}

func (a *App) newIndexer(corpus *query.Corpus) *indexing.Pipeline {
	return indexing.New(a.database, a.database, titleparse.New(), corpus, a.newMetadataLookup(), a.logger)
}

// newMetadataLookup returns nil when enrichment is disabled so the pipeline
// skips the post-step entirely.
func (a *App) newMetadataLookup() ports.MetadataLookup {
	if !a.cfg.MetadataLookupEnabled {
		return nil
	}

	if a.cfg.OMDbAPIKey == "" {
		a.logger.Warn().Msg("METADATA_LOOKUP_ENABLED is set without OMDB_API_KEY, enrichment disabled")
		return nil
	}

	return metadata.New(metadata.Config{
		APIKey:    a.cfg.OMDbAPIKey,
		BaseURL:   a.cfg.OMDbBaseURL,
		Timeout:   a.cfg.MetadataTimeout,
		CacheSize: a.cfg.MetadataCacheSize,
		CacheTTL:  a.cfg.MetadataCacheTTL,
	}, a.logger)
}

func (a *App) newCorpus(ctx context.Context) *query.Corpus {
	corpus := query.NewCorpus()

	titles, err := a.database.ListRecentTitles(ctx, corpusWarmupTitles)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to warm up title corpus")
		return corpus
	}

	corpus.Seed(titles)
	a.logger.Info().Int("titles", len(titles)).Msg("title corpus warmed up")

	return corpus
}

func (a *App) locker() ports.Locker {
	if a.redis != nil {
		return cache.NewLocker(a.redis)
	}

	return a.database
}
