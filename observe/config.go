package observe

import (
	"fmt"
	"slices"
)

// Exporter names accepted by TracingConfig and MetricsConfig.
const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

var (
	tracingExporters = []string{"", ExporterNone, ExporterStdout, ExporterOTLP}
	metricsExporters = []string{"", ExporterNone, ExporterStdout, ExporterOTLP, ExporterPrometheus}
	logLevels        = []string{"", "debug", "info", "warn", "error"}
)

// Config selects what the Observer emits and where.
type Config struct {
	ServiceName string
	Version     string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig configures spans.
type TracingConfig struct {
	Enabled  bool
	Exporter string

	// SamplePct is the root sampling ratio in [0, 1]. Child spans follow
	// their parent.
	SamplePct float64
}

// MetricsConfig configures instruments. The prometheus exporter is served
// through Observer.MetricsHandler.
type MetricsConfig struct {
	Enabled  bool
	Exporter string
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Enabled bool
	Level   string
}

// Validate reports the first invalid setting. Disabled sections are not
// checked.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if t := c.Tracing; t.Enabled {
		if !slices.Contains(tracingExporters, t.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, t.Exporter)
		}
		if t.SamplePct < MinSamplePct || t.SamplePct > MaxSamplePct {
			return fmt.Errorf("%w: got %g", ErrInvalidSamplePct, t.SamplePct)
		}
	}
	if m := c.Metrics; m.Enabled && !slices.Contains(metricsExporters, m.Exporter) {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, m.Exporter)
	}
	if l := c.Logging; l.Enabled && !slices.Contains(logLevels, l.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return nil
}
