package resilience

import (
	"context"
	"time"
)

// Executor stacks the resilience patterns around upstream calls. Every
// pattern is optional; the zero set runs op directly.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor from opts.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker shares cb with the executor. One breaker may back
// several executors.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry retries failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter throttles calls before anything else runs.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead caps concurrent calls.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout bounds every attempt, not the whole call.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return WithTimeoutConfig(NewTimeout(TimeoutConfig{Timeout: timeout}))
}

// WithTimeoutConfig is WithTimeout with a prebuilt Timeout.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// CallOption adjusts a single Execute call.
type CallOption func(*callOptions)

type callOptions struct {
	onRetry func(attempt int, err error, delay time.Duration)
}

// OnRetry registers a hook invoked before each retry of this call only.
func OnRetry(fn func(attempt int, err error, delay time.Duration)) CallOption {
	return func(o *callOptions) { o.onRetry = fn }
}

type layer func(ctx context.Context, op func(context.Context) error) error

// Execute runs op through the configured patterns, outermost first:
// rate limiter, bulkhead, circuit breaker, retry, timeout. The breaker
// therefore sees one outcome per call, after retries.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error, opts ...CallOption) error {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	var stack []layer
	if e.rateLimiter != nil {
		stack = append(stack, e.rateLimiter.Execute)
	}
	if e.bulkhead != nil {
		stack = append(stack, e.bulkhead.Execute)
	}
	if e.circuitBreaker != nil {
		stack = append(stack, e.circuitBreaker.Execute)
	}
	if e.retry != nil {
		stack = append(stack, e.retry.WithOnRetry(co.onRetry).Execute)
	}
	if e.timeout != nil {
		stack = append(stack, e.timeout.Execute)
	}

	run := op
	for i := len(stack) - 1; i >= 0; i-- {
		outer, inner := stack[i], run
		run = func(ctx context.Context) error { return outer(ctx, inner) }
	}
	return run(ctx)
}
