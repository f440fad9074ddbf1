// Package errors provides centralized error definitions for the application.
// Errors are organized by concern to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	// ErrInvalidArgument indicates a caller passed malformed input to a public operation.
	// It is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")
)

// Entity lookup errors. These are propagated as "no such entity" and are not failures.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrChannelNotFound indicates a channel source is not configured.
	ErrChannelNotFound = fmt.Errorf("channel %w", ErrNotFound)

	// ErrItemNotFound indicates an indexed item does not exist.
	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)

	// ErrUserNotFound indicates a user record does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)

// Persistence errors.
var (
	// ErrStoreUnavailable indicates the store could not be reached or timed out.
	// Callers treat it as transient.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicate indicates the record already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Search errors.
var (
	// ErrSearchUnavailable is returned when a search could not be executed.
	// It is distinct from an empty result.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// External lookup errors. Always swallowed by the enrichment step.
var (
	// ErrLookupFailed indicates the metadata service returned an error.
	ErrLookupFailed = errors.New("metadata lookup failed")

	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")
)

// Coordination errors.
var (
	// ErrRateLimited indicates rate limiting was triggered.
	ErrRateLimited = errors.New("rate limited")

	// ErrLockNotAcquired indicates another holder owns the lock.
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is a convenience wrapper around errors.New for package-local sentinels.
func New(text string) error {
	return errors.New(text)
}
