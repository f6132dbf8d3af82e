package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
	}
	return entry
}

func TestLogger_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "cache hit", F("duration_ms", 50.5), F("kind", "lesson"))

	entry := decodeLine(t, &buf)
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["msg"] != "cache hit" {
		t.Errorf("msg = %v, want cache hit", entry["msg"])
	}
	if entry["duration_ms"] != 50.5 {
		t.Errorf("duration_ms = %v, want 50.5", entry["duration_ms"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestLogger_ErrorValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "write-through failed", F("error", errors.New("disk full")))

	entry := decodeLine(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v, want disk full", entry["error"])
	}
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "upstream call",
		F("prompt", "Explain gradient descent"),
		F("API_KEY", "sk-live-123"),
		F("authorization", "Bearer abc"),
	)

	out := buf.String()
	for _, secret := range []string{"gradient descent", "sk-live-123", "Bearer abc"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output leaked %q: %s", secret, out)
		}
	}
	entry := decodeLine(t, &buf)
	if entry["prompt"] != redactedValue {
		t.Errorf("prompt = %v, want %s", entry["prompt"], redactedValue)
	}
}

func TestLogger_HashesUserID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "generate", F("user_id", "learner-42"))

	entry := decodeLine(t, &buf)
	got, _ := entry["user_id"].(string)
	if got == "learner-42" {
		t.Fatal("user_id written in clear")
	}
	if got != HashID("learner-42") {
		t.Errorf("user_id = %q, want %q", got, HashID("learner-42"))
	}
}

func TestHashID(t *testing.T) {
	if HashID("") != "" {
		t.Errorf("HashID(\"\") = %q, want empty", HashID(""))
	}
	a, b := HashID("alice"), HashID("alice")
	if a != b {
		t.Errorf("HashID not stable: %q vs %q", a, b)
	}
	if HashID("alice") == HashID("bob") {
		t.Error("HashID collided for distinct inputs")
	}
	if !strings.HasPrefix(a, "h_") || len(a) != 14 {
		t.Errorf("HashID format = %q", a)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug")
	logger.Info(context.Background(), "info")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}

	logger.Warn(context.Background(), "warn")
	entry := decodeLine(t, &buf)
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(F("component", "wizard"))

	logger.Info(context.Background(), "step saved")

	entry := decodeLine(t, &buf)
	if entry["component"] != "wizard" {
		t.Errorf("component = %v, want wizard", entry["component"])
	}
}

func TestLogger_TraceCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.Info(ctx, "inside span")

	entry := decodeLine(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info(context.Background(), "ignored")
	if logger.With(F("k", "v")) == nil {
		t.Fatal("With should return non-nil logger")
	}
}
