package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/llm"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/templates"
)

// Config wires an Orchestrator.
type Config struct {
	// Store is the content cache. Required.
	Store cache.Store

	// Generator is the upstream text generator. Required.
	Generator llm.Generator

	// Templates selects prompts and fallback content. Defaults to the
	// built-in catalog.
	Templates templates.Selector

	// Keyer derives fingerprints. Defaults to fingerprint.NewDefaultKeyer().
	Keyer fingerprint.Keyer

	// Policy decides TTLs and which kinds are cached.
	// Defaults to cache.DefaultPolicy().
	Policy *cache.Policy

	// Executor applies timeout, retry and circuit breaking to upstream
	// calls. Defaults to DefaultExecutor(DefaultAttemptTimeout).
	Executor *resilience.Executor

	// Params are passed to every upstream call.
	Params llm.Params

	// MinLength is the validation minimum. Defaults to DefaultMinLength.
	MinLength int

	// DisableDedupe turns off collapsing of concurrent identical misses.
	DisableDedupe bool

	// Middleware instruments Generate. Defaults to a no-op.
	Middleware *observe.Middleware

	// Now is the clock used for expiries. Defaults to time.Now.
	Now func() time.Time
}

// DefaultAttemptTimeout is the per-attempt upstream budget.
const DefaultAttemptTimeout = 30 * time.Second

// DefaultExecutor returns the upstream policy: three attempts with linear
// backoff from one second, timeouts not retried, and a hard per-attempt
// timeout.
func DefaultExecutor(attemptTimeout time.Duration) *resilience.Executor {
	return resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			Strategy:     resilience.BackoffLinear,
			RetryIf:      Retryable,
		})),
		resilience.WithTimeout(attemptTimeout),
	)
}

// Retryable reports whether an upstream error should be retried. Timeouts,
// cancellations and permanent upstream errors are not.
func Retryable(err error) bool {
	return resilience.NotTimeout(err) && llm.IsRetryable(err)
}

// Orchestrator serves generation requests through the cache.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Generate returns an error only for invalid requests and caller
//     cancellation; upstream and validation failures yield a fallback.
type Orchestrator struct {
	store     cache.Store
	gen       llm.Generator
	selector  templates.Selector
	keyer     fingerprint.Keyer
	policy    cache.Policy
	executor  *resilience.Executor
	params    llm.Params
	normalize *Normalizer
	validator *Validator
	dedupe    bool
	mw        *observe.Middleware
	now       func() time.Time

	group  singleflight.Group
	epochs *epochs
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.Join(ErrMissingDependency, cache.ErrNilStore)
	}
	if cfg.Generator == nil {
		return nil, ErrMissingDependency
	}
	if cfg.Templates == nil {
		cfg.Templates = templates.NewCatalog()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = fingerprint.NewDefaultKeyer()
	}
	policy := cache.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if cfg.Executor == nil {
		cfg.Executor = DefaultExecutor(DefaultAttemptTimeout)
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Orchestrator{
		store:     cfg.Store,
		gen:       cfg.Generator,
		selector:  cfg.Templates,
		keyer:     cfg.Keyer,
		policy:    policy,
		executor:  cfg.Executor,
		params:    cfg.Params,
		normalize: NewNormalizer(),
		validator: NewValidator(cfg.MinLength),
		dedupe:    !cfg.DisableDedupe,
		mw:        cfg.Middleware,
		now:       cfg.Now,
		epochs:    newEpochs(cfg.Now),
	}, nil
}

// Generate serves req from the cache, the upstream generator, or the
// fallback content.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	// Metric attributes carry only the canonical kind; the raw value
	// stays in log fields.
	op := observe.Operation{Component: "generation", Name: "generate", Kind: templates.NormalizeKind(req.Kind)}
	err := o.mw.Run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = o.generate(ctx, req)
		switch {
		case err != nil:
			return observe.OutcomeError, err
		case res.FromCache:
			return observe.OutcomeHit, nil
		case res.Fallback:
			return observe.OutcomeFallback, nil
		default:
			return observe.OutcomeMiss, nil
		}
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (Result, error) {
	logger := o.mw.Logger()

	fp, err := o.keyer.Key(req.fingerprintContext())
	if err != nil {
		return Result{}, errors.Join(ErrInvalidRequest, err)
	}
	key := req.cacheKey(fp)
	cacheable := o.policy.ShouldCacheKind(req.Kind)

	if cacheable {
		entry, err := o.store.Lookup(ctx, key)
		switch {
		case err == nil:
			return Result{
				Content:    entry.Content,
				FromCache:  true,
				EntryID:    entry.ID,
				UsageCount: entry.UsageCount,
			}, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{}, err
		case !errors.Is(err, cache.ErrNotFound):
			logger.Warn(ctx, "cache lookup failed, treating as miss",
				observe.F("user_id", req.UserID),
				observe.F("phase_id", req.PhaseID),
				observe.F("kind", req.Kind),
				observe.F("error", err))
		}
	}

	if !o.dedupe {
		return o.produce(ctx, req, key, cacheable)
	}

	// The shared call outlives any single waiter; each caller stops
	// waiting on its own cancellation. Attempt timeouts bound the work.
	shared := context.WithoutCancel(ctx)
	ch := o.group.DoChan(key.String(), func() (any, error) {
		return o.produce(shared, req, key, cacheable)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

// produce runs the upstream call and writes a valid result through.
func (o *Orchestrator) produce(ctx context.Context, req Request, key cache.Key, cacheable bool) (Result, error) {
	logger := o.mw.Logger()
	tuple := key.String()
	epoch := o.epochs.begin(tuple)

	tmpl := o.selector.Select(req.PhaseID, req.Kind)
	prompt, err := tmpl.Render(req.Payload.vars())
	if err != nil {
		logger.Error(ctx, "template render failed",
			observe.F("template", tmpl.Name),
			observe.F("error", err))
		return o.fallback(req, ReasonTemplate), nil
	}

	raw, err := o.call(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		reason := fallbackReason(err)
		logger.Warn(ctx, "upstream generation failed, serving fallback",
			observe.F("user_id", req.UserID),
			observe.F("phase_id", req.PhaseID),
			observe.F("kind", req.Kind),
			observe.F("reason", reason),
			observe.F("error", err))
		return o.fallback(req, reason), nil
	}

	content := o.normalize.Normalize(raw)
	if err := o.validator.Validate(content); err != nil {
		logger.Warn(ctx, "generated content rejected, serving fallback",
			observe.F("user_id", req.UserID),
			observe.F("phase_id", req.PhaseID),
			observe.F("kind", req.Kind),
			observe.F("error", err))
		return o.fallback(req, ReasonValidation), nil
	}

	res := Result{Content: content}
	if !cacheable {
		return res, nil
	}
	if !o.epochs.current(tuple, epoch) {
		logger.Debug(ctx, "newer generation started, skipping cache write",
			observe.F("phase_id", req.PhaseID),
			observe.F("kind", req.Kind))
		return res, nil
	}

	entry := &cache.Entry{
		UserID:      key.UserID,
		PhaseID:     key.PhaseID,
		Kind:        key.Kind,
		Fingerprint: key.Fingerprint,
		Content:     content,
		ExpiresAt:   o.policy.ExpiresAt(req.Kind, o.now()),
	}
	if err := o.store.Write(ctx, entry); err != nil {
		logger.Error(ctx, "cache write failed",
			observe.F("user_id", req.UserID),
			observe.F("phase_id", req.PhaseID),
			observe.F("kind", req.Kind),
			observe.F("error", errors.Join(ErrPersistence, err)))
		return res, nil
	}

	res.EntryID = entry.ID
	res.UsageCount = entry.UsageCount
	return res, nil
}

// call invokes the generator under the executor. The result of an attempt
// abandoned by the timeout is discarded.
func (o *Orchestrator) call(ctx context.Context, prompt string) (string, error) {
	var (
		mu  sync.Mutex
		out string
	)
	err := o.executor.Execute(ctx, func(ctx context.Context) error {
		text, err := o.gen.Generate(ctx, prompt, o.params)
		if err != nil {
			return err
		}
		mu.Lock()
		out = text
		mu.Unlock()
		return nil
	})
	if err != nil {
		return "", err
	}
	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

func (o *Orchestrator) fallback(req Request, reason string) Result {
	return Result{
		Content:        o.selector.Fallback(req.PhaseID, req.Kind),
		Fallback:       true,
		FallbackReason: reason,
	}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, resilience.ErrCircuitOpen):
		return ReasonCircuitOpen
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrRateLimitExceeded):
		return ReasonOverloaded
	default:
		return ReasonUpstream
	}
}

// Rate records a quality score for a cache entry. Invalid scores are
// returned as errors; store failures are logged and swallowed.
func (o *Orchestrator) Rate(ctx context.Context, entryID string, score float64) error {
	if err := cache.ValidateScore(score); err != nil {
		return err
	}
	op := observe.Operation{Component: "generation", Name: "rate"}
	_ = o.mw.Run(ctx, op, func(ctx context.Context) (string, error) {
		return "", o.store.Rate(ctx, entryID, score)
	})
	return nil
}
