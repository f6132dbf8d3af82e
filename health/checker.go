package health

import (
	"context"
	"fmt"
	"time"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component works with reduced quality.
	StatusDegraded
	// StatusUnhealthy indicates the component cannot serve requests.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status   Status
	Message  string
	Details  map[string]any
	Duration time.Duration
	Error    error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker reports the health of one component.
//
// Contract:
//   - Name is stable and unique within an Aggregator.
//   - Check honors ctx and never panics.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a named CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// Pinger is implemented by store.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker is Unhealthy when Ping fails.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker creates a checker around p.
func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: p}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) Result {
	if err := c.pinger.Ping(ctx); err != nil {
		return Unhealthy("ping failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	return Healthy("reachable")
}

// BreakerSource exposes circuit breaker state.
type BreakerSource interface {
	Metrics() resilience.CircuitBreakerMetrics
}

// CircuitChecker maps a circuit breaker's state to a Status. An open
// circuit is Degraded, a half-open one is Degraded while it probes.
type CircuitChecker struct {
	name    string
	breaker BreakerSource
}

// NewCircuitChecker creates a checker around b.
func NewCircuitChecker(name string, b BreakerSource) *CircuitChecker {
	return &CircuitChecker{name: name, breaker: b}
}

func (c *CircuitChecker) Name() string { return c.name }

func (c *CircuitChecker) Check(ctx context.Context) Result {
	m := c.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}
	if !m.LastFailure.IsZero() {
		details["last_failure"] = m.LastFailure.UTC().Format(time.RFC3339)
	}

	switch m.State {
	case resilience.StateOpen:
		return Degraded("circuit open, serving fallback content").WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing upstream").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}
