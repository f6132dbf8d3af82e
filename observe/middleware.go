package observe

import (
	"context"
	"time"
)

// Outcome labels shared by instrumented components.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeFallback = "fallback"
)

// RunFunc is a unit of work wrapped by Middleware. It reports an outcome
// label alongside its error.
type RunFunc func(ctx context.Context) (outcome string, err error)

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Context: the span context is propagated to fn.
//   - Errors: errors from fn are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Run executes fn inside a span and records its outcome.
func (m *Middleware) Run(ctx context.Context, op Operation, fn RunFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, op)
	start := time.Now()

	outcome, err := fn(ctx)
	if outcome == "" {
		outcome = OutcomeOK
		if err != nil {
			outcome = OutcomeError
		}
	}

	duration := time.Since(start)
	m.tracer.EndSpan(span, outcome, err)
	m.metrics.RecordOperation(ctx, op, outcome, duration, err)

	fields := []Field{
		F("op", op.ID()),
		F("outcome", outcome),
		F("duration_ms", float64(duration.Milliseconds())),
	}
	if op.Kind != "" {
		fields = append(fields, F("kind", op.Kind))
	}
	if err != nil {
		fields = append(fields, F("error", err))
		m.logger.Error(ctx, "operation failed", fields...)
	} else {
		m.logger.Debug(ctx, "operation completed", fields...)
	}
	return err
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
