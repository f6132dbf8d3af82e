package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RetryError reports an operation that failed on every allowed attempt.
// It matches both ErrMaxRetriesExceeded and the last attempt's error.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrMaxRetriesExceeded, e.Attempts, e.Err)
}

// Unwrap exposes ErrMaxRetriesExceeded and the last error.
func (e *RetryError) Unwrap() []error {
	return []error{ErrMaxRetriesExceeded, e.Err}
}

// Rejected reports whether err is a load-shedding rejection from a circuit
// breaker, bulkhead or rate limiter, as opposed to an operation failure.
func Rejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrRateLimitExceeded)
}

// NotTimeout is a RetryIf predicate that retries everything except timeouts
// and context cancellation.
func NotTimeout(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrTimeout) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
