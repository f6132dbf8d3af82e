package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingStore struct {
	*MemoryStore
	purges atomic.Int32
	err    error
}

func (s *countingStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.purges.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return s.MemoryStore.PurgeExpired(ctx)
}

func TestNewJanitor_NilStore(t *testing.T) {
	if _, err := NewJanitor(nil, JanitorConfig{}); !errors.Is(err, ErrNilStore) {
		t.Errorf("NewJanitor(nil) = %v, want ErrNilStore", err)
	}
}

func TestJanitor_RunOnce(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	for i, ttl := range []time.Duration{time.Minute, time.Hour} {
		e := testEntry(clock, "<p>x</p>", ttl)
		e.PhaseID = i
		if err := store.Write(ctx, e); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	clock.Advance(2 * time.Minute)

	j, err := NewJanitor(store, JanitorConfig{})
	if err != nil {
		t.Fatalf("NewJanitor() error = %v", err)
	}
	n, err := j.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RunOnce() = %d, %v, want 1, nil", n, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestJanitor_RunOncePropagatesError(t *testing.T) {
	wantErr := errors.New("db down")
	store := &countingStore{MemoryStore: NewMemoryStore(), err: wantErr}
	j, _ := NewJanitor(store, JanitorConfig{})

	if _, err := j.RunOnce(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("RunOnce() = %v, want %v", err, wantErr)
	}
}

func TestJanitor_StartRunsOnSchedule(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	j, err := NewJanitor(store, JanitorConfig{Interval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewJanitor() error = %v", err)
	}
	if err := j.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := j.Start(); !errors.Is(err, ErrJanitorStarted) {
		t.Errorf("second Start() = %v, want ErrJanitorStarted", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.purges.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := j.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := store.purges.Load(); got < 2 {
		t.Errorf("purges = %d, want at least 2", got)
	}
	if err := j.Shutdown(); err != nil {
		t.Errorf("second Shutdown() = %v, want nil", err)
	}
}
