package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/auth"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/generation"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/health"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/wizard"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Generator is implemented by *generation.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
	Rate(ctx context.Context, entryID string, score float64) error
}

// Wizard is implemented by *wizard.Controller.
type Wizard interface {
	GenerateSyllabus(ctx context.Context, userID string, in wizard.SubjectInput, progress wizard.ProgressFunc) (*draft.Draft, error)
	GenerateMetadata(ctx context.Context, draftID string, progress wizard.ProgressFunc) (*draft.Draft, error)
	GeneratePrompt(ctx context.Context, draftID string, progress wizard.ProgressFunc) (*draft.Draft, error)
	Finalize(ctx context.Context, draftID string) (*draft.Draft, error)
	Resume(ctx context.Context, draftID string) (*draft.Draft, wizard.Step, error)
	Drafts(ctx context.Context, userID string) ([]*draft.Draft, error)
}

// Purger is implemented by *cache.Janitor.
type Purger interface {
	RunOnce(ctx context.Context) (int64, error)
}

// Config wires the server's collaborators.
type Config struct {
	Generator Generator
	Wizard    Wizard
	Purger    Purger

	// Learner authenticates bearer tokens. Admin authenticates API keys
	// and must grant auth.RoleAdmin. Both are required.
	Learner auth.Authenticator
	Admin   auth.Authenticator

	// Limiter throttles learner routes per principal. Optional.
	Limiter *resilience.KeyedRateLimiter

	// Health backs the probe endpoints. Optional.
	Health *health.Aggregator

	// Metrics is served at /metrics when set.
	Metrics http.Handler

	Logger observe.Logger
}

// Server routes HTTP requests to the service components.
type Server struct {
	cfg    Config
	logger observe.Logger
	router chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Generator == nil:
		return nil, fmt.Errorf("%w: generator", ErrMissingDependency)
	case cfg.Wizard == nil:
		return nil, fmt.Errorf("%w: wizard", ErrMissingDependency)
	case cfg.Purger == nil:
		return nil, fmt.Errorf("%w: purger", ErrMissingDependency)
	case cfg.Learner == nil || cfg.Admin == nil:
		return nil, fmt.Errorf("%w: authenticators", ErrMissingDependency)
	}
	if cfg.Health == nil {
		cfg.Health = health.NewAggregator()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	health.Mount(r, s.cfg.Health)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.writeError, s.cfg.Learner, s.cfg.Admin))
			r.Use(s.rateLimit)

			r.Post("/generate", s.handleGenerate)
			r.Post("/cache/{id}/rating", s.handleRate)

			r.Route("/wizard", func(r chi.Router) {
				r.Post("/syllabus", s.handleSyllabus)
				r.Get("/drafts", s.handleListDrafts)
				r.Get("/drafts/{id}", s.handleGetDraft)
				r.Post("/drafts/{id}/metadata", s.handleMetadata)
				r.Post("/drafts/{id}/prompt", s.handlePrompt)
				r.Post("/drafts/{id}/finalize", s.handleFinalize)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.writeError, s.cfg.Admin))
			r.Use(auth.RequireRole(auth.RoleAdmin, s.writeError))
			r.Post("/admin/cache/purge", s.handlePurge)
		})
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Info(r.Context(), "http request",
			observe.F("method", r.Method),
			observe.F("path", r.URL.Path),
			observe.F("status", ww.Status()),
			observe.F("bytes", ww.BytesWritten()),
			observe.F("duration_ms", time.Since(start).Milliseconds()),
			observe.F("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.cfg.Limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Limiter.Allow(auth.PrincipalFromContext(r.Context())) {
			s.writeError(w, r, resilience.ErrRateLimitExceeded)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// actingUser resolves the user a request acts for. An empty requested id
// means the caller itself.
func actingUser(ctx context.Context, requested string) (string, error) {
	id := auth.IdentityFromContext(ctx)
	if requested == "" {
		if id == nil {
			return "", auth.ErrMissingCredentials
		}
		return id.Principal, nil
	}
	if !id.CanActFor(requested) {
		return "", auth.ErrForbidden
	}
	return requested, nil
}
