package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/auth"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/generation"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/resilience"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/wizard"
)

var (
	// ErrBadRequest is returned for unreadable request bodies.
	ErrBadRequest = errors.New("server: bad request")

	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("server: missing dependency")

	errMissingScore = fmt.Errorf("%w: score is required", ErrBadRequest)
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	DraftID   string `json:"draftId,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var exhausted *wizard.ExhaustedRetriesError
	switch {
	case errors.As(err, &exhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, generation.ErrInvalidRequest),
		errors.Is(err, wizard.ErrInvalidInput),
		errors.Is(err, cache.ErrInvalidRate),
		errors.Is(err, cache.ErrInvalidKey),
		errors.Is(err, cache.ErrKeyTooLong),
		errors.Is(err, draft.ErrEmptyStep),
		errors.Is(err, draft.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenMalformed):
		return http.StatusUnauthorized
	case errors.Is(err, cache.ErrNotFound), errors.Is(err, draft.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, draft.ErrDraftFinalized),
		errors.Is(err, draft.ErrIncompleteDraft),
		errors.Is(err, wizard.ErrStepOrder):
		return http.StatusConflict
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrBulkheadFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var exhausted *wizard.ExhaustedRetriesError
	if errors.As(err, &exhausted) {
		resp.DraftID = exhausted.DraftID
		resp.Retryable = true
	}
	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		resp.Retryable = true
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			observe.F("path", r.URL.Path),
			observe.F("status", status),
			observe.F("error", err.Error()))
		if status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}
