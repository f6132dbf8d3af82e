// Package resilience bounds and retries calls to the external generation
// service.
//
// # Patterns
//
//   - Retry: retries failed operations with linear (default), exponential or
//     constant backoff, notifying an OnRetry hook before every retry.
//   - Timeout: races an operation against a timer. When the timer wins the
//     operation's context is cancelled and its late result is discarded.
//   - Circuit Breaker: stops calling a failing upstream after a threshold.
//   - Bulkhead: limits concurrent upstream calls.
//   - Rate Limiter: token bucket (golang.org/x/time/rate), optionally keyed
//     per caller.
//
// # Composition
//
// Executor applies the configured patterns from the outside in:
// rate limiter, bulkhead, circuit breaker, retry, timeout. The timeout is
// per attempt, so each retry gets a fresh time budget.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "llm"})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: time.Second,
//	        RetryIf:      resilience.NotTimeout,
//	    })),
//	    resilience.WithTimeout(15*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    out, err = client.Generate(ctx, prompt, params)
//	    return err
//	})
package resilience
