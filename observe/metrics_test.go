package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func sumInt(m *metricdata.Metrics) int64 {
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_CountsByOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	op := Operation{Component: "generation", Name: "generate"}

	m.RecordOperation(ctx, op, OutcomeHit, time.Millisecond, nil)
	m.RecordOperation(ctx, op, OutcomeMiss, time.Millisecond, nil)
	m.RecordOperation(ctx, op, OutcomeHit, time.Millisecond, nil)

	rm := collect(t, reader)
	total := findMetric(rm, MetricOpTotal)
	if got := sumInt(total); got != 3 {
		t.Errorf("%s = %d, want 3", MetricOpTotal, got)
	}
	sum := total.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 2 {
		t.Errorf("data points = %d, want 2 (one per outcome)", len(sum.DataPoints))
	}
	if got := sumInt(findMetric(rm, MetricOpErrors)); got != 0 {
		t.Errorf("%s = %d, want 0", MetricOpErrors, got)
	}
}

func TestMetrics_ErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	op := Operation{Component: "wizard", Name: "metadata"}

	m.RecordOperation(context.Background(), op, OutcomeError, time.Millisecond, errors.New("upstream"))

	rm := collect(t, reader)
	if got := sumInt(findMetric(rm, MetricOpErrors)); got != 1 {
		t.Errorf("%s = %d, want 1", MetricOpErrors, got)
	}
}

func TestMetrics_DurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordOperation(context.Background(), Operation{Name: "purge"}, OutcomeOK, 25*time.Millisecond, nil)

	rm := collect(t, reader)
	hist := findMetric(rm, MetricOpDuration)
	if hist == nil {
		t.Fatalf("%s metric not found", MetricOpDuration)
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok || len(data.DataPoints) != 1 {
		t.Fatalf("unexpected histogram data: %#v", hist.Data)
	}
	if data.DataPoints[0].Sum != 25 {
		t.Errorf("duration sum = %v, want 25", data.DataPoints[0].Sum)
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	op := Operation{Name: "lookup"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordOperation(context.Background(), op, OutcomeHit, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	if got := sumInt(findMetric(collect(t, reader), MetricOpTotal)); got != 50 {
		t.Errorf("%s = %d, want 50", MetricOpTotal, got)
	}
}

func TestNewMetrics_NilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics(nil) error = %v", err)
	}
	m.RecordOperation(context.Background(), Operation{Name: "noop"}, "", 0, nil)
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
