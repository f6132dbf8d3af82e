package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
)

// DefaultPurgeInterval is how often the janitor purges expired entries.
const DefaultPurgeInterval = time.Hour

// ErrJanitorStarted is returned by Start when the janitor is already running.
var ErrJanitorStarted = errors.New("cache: janitor already started")

// JanitorConfig configures a Janitor.
type JanitorConfig struct {
	// Interval between purges. Defaults to DefaultPurgeInterval.
	Interval time.Duration

	// Timeout bounds a single purge. Defaults to Interval.
	Timeout time.Duration

	// Middleware records each purge. Defaults to a no-op.
	Middleware *observe.Middleware
}

// Janitor periodically removes expired entries from a Store.
type Janitor struct {
	store    Store
	interval time.Duration
	timeout  time.Duration
	mw       *observe.Middleware

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// NewJanitor creates a janitor for store.
func NewJanitor(store Store, cfg JanitorConfig) (*Janitor, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPurgeInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	return &Janitor{
		store:    store,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		mw:       cfg.Middleware,
	}, nil
}

// RunOnce purges expired entries immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	var purged int64
	op := observe.Operation{Component: "cache", Name: "purge"}
	err := j.mw.Run(ctx, op, func(ctx context.Context) (string, error) {
		n, err := j.store.PurgeExpired(ctx)
		if err != nil {
			return "", err
		}
		purged = n
		if n > 0 {
			j.mw.Logger().Info(ctx, "purged expired cache entries", observe.F("count", n))
		}
		return observe.OutcomeOK, nil
	})
	return purged, err
}

// Start schedules periodic purges. Call Shutdown to stop them.
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler != nil {
		return ErrJanitorStarted
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("cache: create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
			defer cancel()
			_, _ = j.RunOnce(ctx)
		}),
		gocron.WithName("cache-purge-expired"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("cache: schedule purge: %w", err)
	}

	s.Start()
	j.scheduler = s
	return nil
}

// Shutdown stops the scheduler and waits for a running purge to finish.
func (j *Janitor) Shutdown() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler == nil {
		return nil
	}
	err := j.scheduler.Shutdown()
	j.scheduler = nil
	return err
}
