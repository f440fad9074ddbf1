package metadata

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// CircuitBreakerConfig configures when lookups are suspended.
type CircuitBreakerConfig struct {
	Threshold  int
	ResetAfter time.Duration
}

// CircuitBreaker stops calling the provider after Threshold consecutive
// failures, for ResetAfter.
type CircuitBreaker struct {
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	now                 func() time.Time
	mu                  sync.Mutex
	logger              *zerolog.Logger
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// CheckCircuit returns ErrCircuitBreakerOpen while the circuit is open.
func (cb *CircuitBreaker) CheckCircuit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.now().Before(cb.openUntil) {
		return fmt.Errorf("%w until %v", errors.ErrCircuitBreakerOpen, cb.openUntil)
	}

	return nil
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++

	if cb.threshold > 0 && cb.consecutiveFailures >= cb.threshold {
		cb.openUntil = cb.now().Add(cb.resetAfter)
		cb.consecutiveFailures = 0

		if cb.logger != nil {
			cb.logger.Warn().
				Int("threshold", cb.threshold).
				Time("open_until", cb.openUntil).
				Msg("metadata circuit breaker opened")
		}
	}
}

// IsOpen reports whether lookups are currently suspended.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.CheckCircuit() != nil
}
