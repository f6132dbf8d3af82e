package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/auth"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/wizard"
)

// SyllabusRequest is the body of POST /v1/wizard/syllabus.
type SyllabusRequest struct {
	UserID string `json:"userId,omitempty"`
	wizard.SubjectInput
}

// DraftResponse describes a draft.
type DraftResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status"`
	Syllabus    string    `json:"syllabus,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	NextStep    string    `json:"nextStep"`
	CreatedAt   time.Time `json:"createdAt"`
	LastSavedAt time.Time `json:"lastSavedAt"`

	// Retries lists the failed attempts that preceded success.
	Retries []RetryEvent `json:"retries,omitempty"`
}

// RetryEvent reports one retried wizard attempt.
type RetryEvent struct {
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"maxAttempts"`
	DelayMS     int64  `json:"delayMs"`
	Error       string `json:"error,omitempty"`
}

func newDraftResponse(d *draft.Draft) DraftResponse {
	return DraftResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Status:      string(d.Status),
		Syllabus:    d.Syllabus,
		Metadata:    d.Metadata,
		Prompt:      d.Prompt,
		NextStep:    string(wizard.NextStep(d)),
		CreatedAt:   d.CreatedAt,
		LastSavedAt: d.LastSavedAt,
	}
}

// retryLog collects progress notifications for one request.
type retryLog struct {
	mu     sync.Mutex
	events []RetryEvent
}

func (s *Server) progress(ctx context.Context, log *retryLog) wizard.ProgressFunc {
	return func(p wizard.Progress) {
		s.logger.Info(ctx, "wizard retry",
			observe.F("step", string(p.Step)),
			observe.F("attempt", p.Attempt),
			observe.F("delay_ms", p.Delay.Milliseconds()))
		ev := RetryEvent{
			Attempt:     p.Attempt,
			MaxAttempts: p.MaxAttempts,
			DelayMS:     p.Delay.Milliseconds(),
		}
		if p.Err != nil {
			ev.Error = p.Err.Error()
		}
		log.mu.Lock()
		log.events = append(log.events, ev)
		log.mu.Unlock()
	}
}

func (s *Server) handleSyllabus(w http.ResponseWriter, r *http.Request) {
	var body SyllabusRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := actingUser(r.Context(), body.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var log retryLog
	d, err := s.cfg.Wizard.GenerateSyllabus(r.Context(), userID, body.SubjectInput, s.progress(r.Context(), &log))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := newDraftResponse(d)
	resp.Retries = log.events
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	s.runStep(w, r, s.cfg.Wizard.GenerateMetadata)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	s.runStep(w, r, s.cfg.Wizard.GeneratePrompt)
}

type stepFunc func(ctx context.Context, draftID string, progress wizard.ProgressFunc) (*draft.Draft, error)

func (s *Server) runStep(w http.ResponseWriter, r *http.Request, step stepFunc) {
	owned, ok := s.ownedDraft(w, r)
	if !ok {
		return
	}
	var log retryLog
	d, err := step(r.Context(), owned.ID, s.progress(r.Context(), &log))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := newDraftResponse(d)
	resp.Retries = log.events
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	owned, ok := s.ownedDraft(w, r)
	if !ok {
		return
	}
	d, err := s.cfg.Wizard.Finalize(r.Context(), owned.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(d))
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := s.ownedDraft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(d))
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	drafts, err := s.cfg.Wizard.Drafts(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]DraftResponse, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, newDraftResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": out})
}

// ownedDraft loads the draft named in the URL and checks that the caller
// may act on it. It writes the error reply itself.
func (s *Server) ownedDraft(w http.ResponseWriter, r *http.Request) (*draft.Draft, bool) {
	d, _, err := s.cfg.Wizard.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if !auth.IdentityFromContext(r.Context()).CanActFor(d.UserID) {
		s.writeError(w, r, auth.ErrForbidden)
		return nil, false
	}
	return d, true
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	n, err := s.cfg.Purger.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}
