package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/llm"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
)

// Config wires a Controller.
type Config struct {
	// Drafts persists step outputs. Required.
	Drafts draft.Store

	// Generator is the upstream text generator. Required.
	Generator llm.Generator

	// MaxAttempts bounds attempts per step. Default: 3.
	MaxAttempts int

	// RetryDelay is the linear backoff base. Default: 1s.
	RetryDelay time.Duration

	// AttemptTimeout bounds each attempt. Default: 60s.
	AttemptTimeout time.Duration

	// CircuitBreaker, when set, is shared with other upstream callers.
	CircuitBreaker *resilience.CircuitBreaker

	// Middleware instruments steps. Defaults to a no-op.
	Middleware *observe.Middleware
}

// Controller runs wizard steps and checkpoints their outputs.
//
// Contract:
//   - Concurrency: safe for concurrent use; steps on the same draft are not
//     serialized.
//   - Every successful step is saved before the method returns.
//   - Exhausted retries are reported as *ExhaustedRetriesError.
type Controller struct {
	drafts      draft.Store
	gen         llm.Generator
	executor    *resilience.Executor
	maxAttempts int
	mw          *observe.Middleware
}

// New creates a Controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Drafts == nil || cfg.Generator == nil {
		return nil, ErrMissingDependency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}

	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.RetryDelay,
			Strategy:     resilience.BackoffLinear,
			RetryIf:      retryable,
		})),
		resilience.WithTimeout(cfg.AttemptTimeout),
	}
	if cfg.CircuitBreaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(cfg.CircuitBreaker))
	}

	return &Controller{
		drafts:      cfg.Drafts,
		gen:         cfg.Generator,
		executor:    resilience.NewExecutor(opts...),
		maxAttempts: cfg.MaxAttempts,
		mw:          cfg.Middleware,
	}, nil
}

// retryable retries upstream failures and malformed metadata. Unlike
// content generation, timeouts are retried: the user is waiting for this
// step and has no fallback.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return llm.IsRetryable(err)
}

// GenerateSyllabus runs the first step and creates the draft.
func (c *Controller) GenerateSyllabus(ctx context.Context, userID string, in SubjectInput, progress ProgressFunc) (*draft.Draft, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var d *draft.Draft
	err := c.step(ctx, StepSyllabus, func(ctx context.Context) error {
		text, err := c.call(ctx, StepSyllabus, "", syllabusPrompt(in), llm.Params{System: syllabusSystem}, nil, progress)
		if err != nil {
			return err
		}
		d, err = c.drafts.Create(ctx, userID, draft.Step{Syllabus: text})
		if err != nil {
			return fmt.Errorf("wizard: save %s: %w", StepSyllabus, err)
		}
		return nil
	})
	return d, err
}

// GenerateMetadata produces structured metadata from the saved syllabus.
func (c *Controller) GenerateMetadata(ctx context.Context, draftID string, progress ProgressFunc) (*draft.Draft, error) {
	var out *draft.Draft
	err := c.step(ctx, StepMetadata, func(ctx context.Context) error {
		d, err := c.load(ctx, draftID, StepMetadata)
		if err != nil {
			return err
		}

		params := llm.Params{System: metadataSystem, Temperature: 0.2, Schema: metadataSchema}
		text, err := c.call(ctx, StepMetadata, d.ID, metadataPrompt(d.Syllabus), params, func(raw string) (string, error) {
			m, err := ParseMetadata(raw)
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(m)
			return string(b), err
		}, progress)
		if err != nil {
			return err
		}

		out, err = c.save(ctx, d.ID, StepMetadata, draft.Step{Metadata: text})
		return err
	})
	return out, err
}

// GeneratePrompt produces the coach system prompt from the saved outputs.
func (c *Controller) GeneratePrompt(ctx context.Context, draftID string, progress ProgressFunc) (*draft.Draft, error) {
	var out *draft.Draft
	err := c.step(ctx, StepPrompt, func(ctx context.Context) error {
		d, err := c.load(ctx, draftID, StepPrompt)
		if err != nil {
			return err
		}

		text, err := c.call(ctx, StepPrompt, d.ID, coachPrompt(d.Syllabus, d.Metadata), llm.Params{System: promptSystem}, nil, progress)
		if err != nil {
			return err
		}

		out, err = c.save(ctx, d.ID, StepPrompt, draft.Step{Prompt: text})
		return err
	})
	return out, err
}

// Finalize publishes a complete draft.
func (c *Controller) Finalize(ctx context.Context, draftID string) (*draft.Draft, error) {
	var out *draft.Draft
	err := c.step(ctx, StepFinalize, func(ctx context.Context) error {
		var err error
		out, err = c.drafts.Finalize(ctx, draftID)
		return err
	})
	return out, err
}

// Resume returns the draft and the next step it needs.
func (c *Controller) Resume(ctx context.Context, draftID string) (*draft.Draft, Step, error) {
	d, err := c.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, "", err
	}
	return d, NextStep(d), nil
}

// Drafts lists the user's drafts, most recently saved first.
func (c *Controller) Drafts(ctx context.Context, userID string) ([]*draft.Draft, error) {
	return c.drafts.ListByUser(ctx, userID)
}

// Get returns one draft.
func (c *Controller) Get(ctx context.Context, draftID string) (*draft.Draft, error) {
	return c.drafts.Get(ctx, draftID)
}

func (c *Controller) step(ctx context.Context, step Step, fn func(context.Context) error) error {
	op := observe.Operation{Component: "wizard", Name: string(step)}
	return c.mw.Run(ctx, op, func(ctx context.Context) (string, error) {
		return "", fn(ctx)
	})
}

// load fetches a draft and checks that step can run on it.
func (c *Controller) load(ctx context.Context, draftID string, step Step) (*draft.Draft, error) {
	d, err := c.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Status == draft.StatusActive {
		return nil, draft.ErrDraftFinalized
	}
	if step == StepMetadata && d.Syllabus == "" ||
		step == StepPrompt && (d.Syllabus == "" || d.Metadata == "") {
		return nil, fmt.Errorf("%w: %s needs %s", ErrStepOrder, step, NextStep(d))
	}
	return d, nil
}

func (c *Controller) save(ctx context.Context, draftID string, step Step, s draft.Step) (*draft.Draft, error) {
	d, err := c.drafts.Update(ctx, draftID, s)
	if err != nil {
		return nil, fmt.Errorf("wizard: save %s: %w", step, err)
	}
	return d, nil
}

// call runs one upstream generation with retries. check, when set, turns the
// raw reply into the stored value; its errors are retried.
func (c *Controller) call(ctx context.Context, step Step, draftID, prompt string, params llm.Params, check func(string) (string, error), progress ProgressFunc) (string, error) {
	var (
		mu  sync.Mutex
		out string
	)
	notify := resilience.OnRetry(func(attempt int, err error, delay time.Duration) {
		c.mw.Logger().Warn(ctx, "wizard step failed, retrying",
			observe.F("step", string(step)),
			observe.F("attempt", attempt),
			observe.F("error", err))
		if progress != nil {
			progress(Progress{Step: step, Attempt: attempt + 1, MaxAttempts: c.maxAttempts, Err: err, Delay: delay})
		}
	})

	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		text, err := c.gen.Generate(ctx, prompt, params)
		if err != nil {
			return err
		}
		if check != nil {
			if text, err = check(text); err != nil {
				return err
			}
		}
		mu.Lock()
		out = text
		mu.Unlock()
		return nil
	}, notify)

	switch {
	case err == nil:
		mu.Lock()
		defer mu.Unlock()
		return out, nil
	case errors.Is(err, resilience.ErrMaxRetriesExceeded):
		return "", &ExhaustedRetriesError{Step: step, Attempts: c.maxAttempts, DraftID: draftID, Err: err}
	default:
		return "", fmt.Errorf("wizard: %s: %w", step, err)
	}
}
