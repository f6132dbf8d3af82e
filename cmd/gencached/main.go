// Command gencached serves cached AI learning content and the course
// creation wizard over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/auth"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/config"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/generation"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/health"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/llm"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/server"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/store"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/templates"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/wizard"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file to load before the environment")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "gencached: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(ctx, envFile)
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(sctx)
	}()
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	logger := obs.Logger()

	db, err := store.Open(ctx, cfg.Store())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cacheRepo, err := store.NewCacheRepo(db, nil)
	if err != nil {
		return err
	}
	draftRepo, err := store.NewDraftRepo(db, nil)
	if err != nil {
		return err
	}

	client, err := llm.New(cfg.LLM())
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	upstream := llm.NewInstrumented(client, mw, cfg.AIProvider)

	// Lessons and wizard steps share one breaker so a failing provider is
	// detected by either path.
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         "llm",
		MaxFailures:  cfg.BreakerFailures,
		ResetTimeout: cfg.BreakerReset,
		IsFailure: func(err error) bool {
			return !errors.Is(err, context.Canceled) && llm.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn(context.Background(), "circuit state changed",
				observe.F("breaker", name),
				observe.F("from", from.String()),
				observe.F("to", to.String()))
		},
	})
	executor := resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.UpstreamConcurrency,
			MaxWait:       cfg.AttemptTimeout,
		})),
		resilience.WithCircuitBreaker(breaker),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.RetryDelay,
			Strategy:     resilience.BackoffLinear,
			RetryIf:      generation.Retryable,
		})),
		resilience.WithTimeout(cfg.AttemptTimeout),
	)

	catalog := templates.NewCatalog()
	if cfg.Catalog != nil {
		if err := catalog.Apply(*cfg.Catalog); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}

	orch, err := generation.New(generation.Config{
		Store:         cacheRepo,
		Generator:     upstream,
		Templates:     catalog,
		Policy:        &cfg.Policy,
		Executor:      executor,
		Params:        cfg.Params(),
		MinLength:     cfg.MinContentLength,
		DisableDedupe: !cfg.Dedupe,
		Middleware:    mw,
	})
	if err != nil {
		return fmt.Errorf("generation: %w", err)
	}

	wiz, err := wizard.New(wizard.Config{
		Drafts:         draftRepo,
		Generator:      upstream,
		MaxAttempts:    cfg.MaxAttempts,
		RetryDelay:     cfg.RetryDelay,
		AttemptTimeout: cfg.WizardAttemptTimeout,
		CircuitBreaker: breaker,
		Middleware:     mw,
	})
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	janitor, err := cache.NewJanitor(cacheRepo, cache.JanitorConfig{
		Interval:   cfg.PurgeInterval,
		Middleware: mw,
	})
	if err != nil {
		return fmt.Errorf("janitor: %w", err)
	}
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("janitor: %w", err)
	}
	defer janitor.Shutdown()

	checks := health.NewAggregator()
	checks.Register(health.NewPingChecker("database", db))
	checks.Register(health.NewCircuitChecker("llm", breaker))

	learner, err := auth.NewJWTAuthenticator(cfg.JWT())
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	admin := auth.NewAPIKeyAuthenticator()
	if cfg.AdminAPIKey != "" {
		admin.Add("admin", cfg.AdminAPIKey, auth.RoleAdmin)
	} else {
		logger.Warn(ctx, "admin api key not set; admin routes are disabled")
	}

	srv, err := server.New(server.Config{
		Generator: orch,
		Wizard:    wiz,
		Purger:    janitor,
		Learner:   learner,
		Admin:     admin,
		Limiter: resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		}, 0),
		Health:  checks,
		Metrics: obs.MetricsHandler(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening",
			observe.F("addr", cfg.Addr),
			observe.F("db_driver", db.Dialect()),
			observe.F("ai_provider", cfg.AIProvider),
			observe.F("ai_model", cfg.AIModel))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}
