package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the wait grows between attempts.
type BackoffStrategy int

const (
	// BackoffLinear waits InitialDelay * attempt. Upstream providers
	// recover on the order of seconds, so linear growth is the default.
	BackoffLinear BackoffStrategy = iota
	BackoffExponential
	BackoffConstant
)

var backoffNames = []string{
	BackoffLinear:      "linear",
	BackoffExponential: "exponential",
	BackoffConstant:    "constant",
}

func (s BackoffStrategy) String() string {
	if s < 0 || int(s) >= len(backoffNames) {
		return backoffNames[BackoffLinear]
	}
	return backoffNames[s]
}

// ParseBackoffStrategy parses a strategy name. Unknown names map to linear.
func ParseBackoffStrategy(name string) BackoffStrategy {
	for i, n := range backoffNames {
		if n == name {
			return BackoffStrategy(i)
		}
	}
	return BackoffLinear
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffLinear
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	// Default: false
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry, never before the first attempt.
	// attempt is the number of the attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// WithOnRetry returns a copy of r that calls fn before each retry, after the
// configured OnRetry hook.
func (r *Retry) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Retry {
	if fn == nil {
		return r
	}
	cfg := r.config
	prev := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		if prev != nil {
			prev(attempt, err, delay)
		}
		fn(attempt, err, delay)
	}
	return &Retry{config: cfg}
}

// Execute runs the operation with retry logic.
//
// Errors rejected by RetryIf are returned unchanged. When every attempt fails
// the result is a *RetryError wrapping the last error.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &RetryError{Attempts: r.config.MaxAttempts, Err: lastErr}
}

// Delay returns the wait after the given failed attempt (1-based), capped
// at MaxDelay and then jittered by up to a quarter when enabled.
func (r *Retry) Delay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	base := r.config.InitialDelay

	delay := base * time.Duration(attempt)
	switch r.config.Strategy {
	case BackoffConstant:
		delay = base
	case BackoffExponential:
		delay = time.Duration(float64(base) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	if delay <= 0 || delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}
	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
