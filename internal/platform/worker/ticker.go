package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/platform/observability"
)

// TickerConfig configures a loop that fires OnTick every Interval.
type TickerConfig struct {
	Name     string
	Interval time.Duration
	OnTick   func(ctx context.Context)

	// RunOnStart fires OnTick once before the first tick.
	RunOnStart bool

	Logger *zerolog.Logger
}

// TickerLoop runs OnTick on every tick until ctx is canceled. A non-positive
// Interval parks the loop until cancellation.
func TickerLoop(ctx context.Context, cfg TickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting ticker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")

	if cfg.Interval <= 0 || cfg.OnTick == nil {
		<-ctx.Done()

		return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
	}

	tick := func() {
		outcome := outcomeOK
		if safeRun(ctx, cfg.OnTick, logger, cfg.Name) {
			outcome = outcomePanic
		}

		observability.WorkerCycles.WithLabelValues(cfg.Name, outcome).Inc()
	}

	if cfg.RunOnStart {
		tick()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			tick()
		}
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}

	return logger
}
