// Package worker provides the background loops used by the reader and the
// maintenance worker: a poll loop that backs off on failing cycles and a
// ticker loop for fixed-interval jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/platform/observability"
)

const (
	logFieldWorker = "worker"

	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomePanic    = "panic"
	backoffExponent = 2
)

// ProcessFunc performs one cycle of work.
type ProcessFunc func(ctx context.Context) error

// Config configures the poll loop.
type Config struct {
	// Name identifies the worker in logs and metrics.
	Name string

	// PollInterval is the pause between successful cycles.
	PollInterval time.Duration

	// MaxBackoff caps the pause after consecutive failed cycles. The pause
	// doubles per failure starting at PollInterval. Zero disables backoff.
	MaxBackoff time.Duration

	Process ProcessFunc

	// OnError is called when Process fails. Return false to exit the loop
	// with the error.
	OnError func(err error) bool

	Logger *zerolog.Logger
}

// Loop runs Process until ctx is canceled or OnError asks to stop. A
// panicking cycle is recovered, logged and counted as a failure.
func Loop(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)

	logger.Info().Str(logFieldWorker, cfg.Name).Dur("poll_interval", cfg.PollInterval).Msg("starting worker loop")
	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	failures := 0

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		failed, err := runCycle(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if failed {
			failures++
		} else {
			failures = 0
		}

		if err := Wait(ctx, nextDelay(cfg, failures)); err != nil {
			return err
		}
	}
}

// runCycle reports whether the cycle failed and returns a non-nil error only
// when the loop must stop.
func runCycle(ctx context.Context, cfg Config, logger *zerolog.Logger) (failed bool, stop error) {
	if cfg.Process == nil {
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, cfg.Name, r)
			observability.WorkerCycles.WithLabelValues(cfg.Name, outcomePanic).Inc()

			failed, stop = true, nil
		}
	}()

	err := cfg.Process(ctx)
	if err == nil {
		observability.WorkerCycles.WithLabelValues(cfg.Name, outcomeOK).Inc()
		return false, nil
	}

	observability.WorkerCycles.WithLabelValues(cfg.Name, outcomeError).Inc()

	if cfg.OnError == nil {
		logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("process error")
		return true, nil
	}

	if !cfg.OnError(err) {
		return true, err
	}

	return true, nil
}

// nextDelay is PollInterval after a success and grows exponentially with
// consecutive failures up to MaxBackoff.
func nextDelay(cfg Config, failures int) time.Duration {
	delay := cfg.PollInterval
	if failures == 0 || cfg.MaxBackoff <= 0 || delay <= 0 {
		return delay
	}

	for i := 1; i < failures && delay < cfg.MaxBackoff; i++ {
		delay *= backoffExponent
	}

	return min(delay, cfg.MaxBackoff)
}

// safeRun calls fn and reports whether it panicked.
func safeRun(ctx context.Context, fn func(context.Context), logger *zerolog.Logger, name string) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, name, r)

			panicked = true
		}
	}()

	fn(ctx)

	return false
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until d elapses or ctx is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logPanic(logger, operation, r)
	}
}

func logPanic(logger *zerolog.Logger, operation string, r any) {
	logger.Error().
		Interface("panic", r).
		Str("operation", operation).
		Msg("recovered from panic")
}
