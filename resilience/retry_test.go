package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})
	cfg := r.Config()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.Strategy != BackoffLinear {
		t.Errorf("Strategy = %v, want linear", cfg.Strategy)
	}
	if cfg.Jitter {
		t.Error("Jitter should default to off")
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustedWrapsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	lastErr := errors.New("attempt 3")
	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 3 {
			return lastErr
		}
		return errors.New("earlier")
	})

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("errors.Is(err, ErrMaxRetriesExceeded) = false for %v", err)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("errors.Is(err, lastErr) = false for %v", err)
	}
	var re *RetryError
	if !errors.As(err, &re) || re.Attempts != 3 {
		t.Errorf("RetryError = %+v, want Attempts 3", re)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: 100 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := r.Execute(ctx, func(ctx context.Context) error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRetry_RetryIfStopsImmediately(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, RetryIf: NotTimeout})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return ErrTimeout
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("non-retryable error must not be reported as exhausted")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetryBeforeEachRetryOnly(t *testing.T) {
	var calls []int
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			calls = append(calls, attempt)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("OnRetry calls = %v, want [1 2]", calls)
	}

	calls = nil
	_ = r.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if len(calls) != 0 {
		t.Errorf("OnRetry called %d times on first-attempt success", len(calls))
	}
}

func TestRetry_WithOnRetryChainsHooks(t *testing.T) {
	var base, extra int
	r := NewRetry(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		OnRetry:      func(int, error, time.Duration) { base++ },
	})
	r2 := r.WithOnRetry(func(int, error, time.Duration) { extra++ })

	_ = r2.Execute(context.Background(), func(ctx context.Context) error { return errors.New("x") })
	if base != 1 || extra != 1 {
		t.Errorf("base = %d, extra = %d, want 1, 1", base, extra)
	}

	_ = r.Execute(context.Background(), func(ctx context.Context) error { return errors.New("x") })
	if extra != 1 {
		t.Error("WithOnRetry must not modify the original Retry")
	}
}

func TestRetry_DelayGrowth(t *testing.T) {
	tests := []struct {
		name     string
		strategy BackoffStrategy
		want     []time.Duration
	}{
		{"linear", BackoffLinear, []time.Duration{10, 20, 30, 40}},
		{"exponential", BackoffExponential, []time.Duration{10, 20, 40, 80}},
		{"constant", BackoffConstant, []time.Duration{10, 10, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(RetryConfig{InitialDelay: 10 * time.Millisecond, Strategy: tt.strategy})
			for i, w := range tt.want {
				if got := r.Delay(i + 1); got != w*time.Millisecond {
					t.Errorf("Delay(%d) = %v, want %v", i+1, got, w*time.Millisecond)
				}
			}
		})
	}
}

func TestRetry_DefaultDelaysNonDecreasingAndGrowing(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 6})
	prev := time.Duration(0)
	for attempt := 1; attempt <= 5; attempt++ {
		d := r.Delay(attempt)
		if d < prev {
			t.Fatalf("Delay(%d) = %v < previous %v", attempt, d, prev)
		}
		if attempt <= 3 && d <= prev {
			t.Fatalf("Delay(%d) = %v should exceed %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestRetry_DelayCappedAndJittered(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second})
	if got := r.Delay(5); got != 2*time.Second {
		t.Errorf("Delay(5) = %v, want 2s", got)
	}

	j := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Jitter: true})
	for i := 0; i < 20; i++ {
		d := j.Delay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("jittered Delay(1) = %v, want [100ms, 125ms)", d)
		}
	}
}

func TestParseBackoffStrategy(t *testing.T) {
	for _, s := range []BackoffStrategy{BackoffLinear, BackoffExponential, BackoffConstant} {
		if got := ParseBackoffStrategy(s.String()); got != s {
			t.Errorf("ParseBackoffStrategy(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if ParseBackoffStrategy("fibonacci") != BackoffLinear {
		t.Error("unknown strategy should map to linear")
	}
}
