package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("first two requests should fit in the burst")
	}
	if rl.Allow() {
		t.Error("third request should be denied")
	}

	rl.Reset()
	if !rl.Allow() {
		t.Error("Allow() after Reset should succeed")
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 5})
	if !rl.AllowN(5) {
		t.Error("AllowN(5) should fit in a burst of 5")
	}
	if rl.AllowN(1) {
		t.Error("AllowN(1) should be denied after draining the bucket")
	}
}

func TestRateLimiter_WaitBoundedByMaxWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1, MaxWait: 20 * time.Millisecond})
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if err := rl.Wait(ctx); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Wait() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	if err := rl.Execute(ctx, op); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := rl.Execute(ctx, op); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	k := NewKeyedRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1}, time.Minute)

	if !k.Allow("user-a") {
		t.Error("first request for user-a should pass")
	}
	if k.Allow("user-a") {
		t.Error("second request for user-a should be limited")
	}
	if !k.Allow("user-b") {
		t.Error("user-b must not share user-a's bucket")
	}
	if got := k.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	now := time.Unix(1000, 0)
	k := NewKeyedRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1}, time.Minute)
	k.now = func() time.Time { return now }

	k.Allow("idle")
	now = now.Add(30 * time.Second)
	k.Allow("active")
	now = now.Add(45 * time.Second)

	k.Evict()
	if got := k.Len(); got != 1 {
		t.Fatalf("Len() after Evict = %d, want 1", got)
	}
	if _, ok := k.buckets["active"]; !ok {
		t.Error("recently seen key was evicted")
	}
}
