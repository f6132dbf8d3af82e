package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeout_OperationWins(t *testing.T) {
	tm := NewTimeout(TimeoutConfig{Timeout: time.Second})
	err := tm.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}

	wantErr := errors.New("upstream")
	if err := tm.Execute(context.Background(), func(ctx context.Context) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestTimeout_TimerWinsAndCancelsOperation(t *testing.T) {
	tm := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	var cancelled atomic.Bool
	finished := make(chan struct{})
	start := time.Now()
	err := tm.Execute(context.Background(), func(ctx context.Context) error {
		defer close(finished)
		<-ctx.Done()
		cancelled.Store(true)
		time.Sleep(30 * time.Millisecond)
		return errors.New("late result")
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Execute() took %v, want about 20ms", elapsed)
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("operation was not cancelled")
	}
	if !cancelled.Load() {
		t.Error("operation context was not cancelled")
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	tm := NewTimeout(TimeoutConfig{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := tm.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("caller cancellation must not be reported as a timeout")
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("ExecuteWithTimeout() error = %v, want ErrTimeout", err)
	}
}

func TestNewTimeout_Default(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got)
	}
}
