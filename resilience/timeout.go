package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout races operations against a timer.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op in its own goroutine and returns ErrTimeout if the timer
// fires first. On timeout op's context is cancelled and whatever op returns
// later is dropped. Cancellation of ctx itself is returned as ctx.Err().
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		if err != nil && t.expired(ctx, opCtx) {
			return t.timeoutErr()
		}
		return err
	case <-opCtx.Done():
		if t.expired(ctx, opCtx) {
			return t.timeoutErr()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return opCtx.Err()
	}
}

// expired reports whether opCtx ended because of this timer rather than
// because ctx was cancelled.
func (t *Timeout) expired(ctx, opCtx context.Context) bool {
	return errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
}

func (t *Timeout) timeoutErr() error {
	return fmt.Errorf("%w after %s", ErrTimeout, t.config.Timeout)
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
