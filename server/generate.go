package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/generation"
)

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	UserID  string          `json:"userId,omitempty"`
	PhaseID int             `json:"phaseId"`
	Kind    string          `json:"kind"`
	Context *ContextPayload `json:"context,omitempty"`

	Objective   string   `json:"objective,omitempty"`
	KeyConcepts []string `json:"keyConcepts,omitempty"`
	UserInput   string   `json:"userInput,omitempty"`
}

// ContextPayload is the fingerprinted part of a generate request.
type ContextPayload struct {
	Level              string         `json:"level,omitempty"`
	RecentInteractions []string       `json:"recentInteractions,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// GenerateResponse is the reply to POST /v1/generate.
type GenerateResponse struct {
	Content        string `json:"content"`
	FromCache      bool   `json:"fromCache"`
	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	EntryID        string `json:"entryId,omitempty"`
	UsageCount     int    `json:"usageCount,omitempty"`
}

// RateRequest is the body of POST /v1/cache/{id}/rating.
type RateRequest struct {
	Score *float64 `json:"score"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := actingUser(r.Context(), body.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req := generation.Request{
		UserID:  userID,
		PhaseID: body.PhaseID,
		Kind:    body.Kind,
		Payload: generation.Payload{
			Objective:   body.Objective,
			KeyConcepts: body.KeyConcepts,
			UserInput:   body.UserInput,
		},
	}
	if c := body.Context; c != nil {
		req.Context = fingerprint.Context{
			Level:              fingerprint.ParseLevel(c.Level),
			RecentInteractions: c.RecentInteractions,
			Extra:              c.Extra,
		}
	}

	res, err := s.cfg.Generator.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{
		Content:        res.Content,
		FromCache:      res.FromCache,
		Fallback:       res.Fallback,
		FallbackReason: res.FallbackReason,
		EntryID:        res.EntryID,
		UsageCount:     res.UsageCount,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var body RateRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Score == nil {
		s.writeError(w, r, errMissingScore)
		return
	}
	if err := s.cfg.Generator.Rate(r.Context(), chi.URLParam(r, "id"), *body.Score); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
