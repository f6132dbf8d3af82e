package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricOpTotal    = "gencache.op.total"
	MetricOpErrors   = "gencache.op.errors"
	MetricOpDuration = "gencache.op.duration_ms"
)

// Metrics records operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordOperation(ctx context.Context, op Operation, outcome string, duration time.Duration, err error)
}

// durationBuckets span cache lookups (sub-millisecond) through slow
// upstream generations (a minute).
var durationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

type metricsImpl struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the gencache.op.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		return noopMetrics{}, nil
	}
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	var m metricsImpl
	var errTotal, errErrors, errDuration error
	m.total, errTotal = meter.Int64Counter(MetricOpTotal,
		metric.WithDescription("Operations by component, name and outcome"),
		metric.WithUnit("{op}"))
	m.errors, errErrors = meter.Int64Counter(MetricOpErrors,
		metric.WithDescription("Operations that returned an error"),
		metric.WithUnit("{error}"))
	m.duration, errDuration = meter.Float64Histogram(MetricOpDuration,
		metric.WithDescription("Operation latency"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBuckets...))
	if err := errors.Join(errTotal, errErrors, errDuration); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, op Operation, outcome string, duration time.Duration, err error) {
	attrs := op.attributes()
	if outcome != "" {
		attrs = append(attrs, attribute.String("op.outcome", outcome))
	}
	set := metric.WithAttributes(attrs...)

	m.total.Add(ctx, 1, set)
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), set)
	if err != nil {
		m.errors.Add(ctx, 1, set)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, Operation, string, time.Duration, error) {}
