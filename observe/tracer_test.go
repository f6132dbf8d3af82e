package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOperation_SpanName(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{Component: "generation", Name: "generate"}, "gencache.generation.generate"},
		{Operation{Name: "purge"}, "gencache.purge"},
	}
	for _, tt := range tests {
		if got := tt.op.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

func TestOperation_Validate(t *testing.T) {
	if err := (Operation{Component: "cache"}).Validate(); !errors.Is(err, ErrMissingOperationName) {
		t.Errorf("Validate() = %v, want ErrMissingOperationName", err)
	}
	if err := (Operation{Name: "lookup"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	op := Operation{Component: "generation", Name: "generate", Kind: "lesson"}
	_, span := tracer.StartSpan(context.Background(), op)
	tracer.EndSpan(span, OutcomeHit, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["op.id"].AsString() != "generation.generate" {
		t.Errorf("op.id = %q", attrs["op.id"].AsString())
	}
	if attrs["op.kind"].AsString() != "lesson" {
		t.Errorf("op.kind = %q", attrs["op.kind"].AsString())
	}
	if attrs["op.outcome"].AsString() != OutcomeHit {
		t.Errorf("op.outcome = %q, want %q", attrs["op.outcome"].AsString(), OutcomeHit)
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status().Code)
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	_, span := tracer.StartSpan(context.Background(), Operation{Name: "upstream"})
	tracer.EndSpan(span, OutcomeError, errors.New("boom"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if len(s.Events()) == 0 {
		t.Error("expected error event on span")
	}
}

func TestNewTracer_NilUsesNoop(t *testing.T) {
	tracer := NewTracer(nil)
	_, span := tracer.StartSpan(context.Background(), Operation{Name: "noop"})
	tracer.EndSpan(span, "", nil)
}
