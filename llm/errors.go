package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream is returned when the upstream service fails or returns an
	// unusable response.
	ErrUpstream = errors.New("llm: upstream request failed")

	// ErrEmptyResponse is returned when the upstream reply carries no content.
	ErrEmptyResponse = errors.New("llm: empty response")

	// ErrEmptyPrompt is returned when Generate is called without a prompt.
	ErrEmptyPrompt = errors.New("llm: empty prompt")

	// ErrMissingAPIKey is returned when a provider that needs a key has none.
	ErrMissingAPIKey = errors.New("llm: api key is required")

	// ErrMissingModel is returned when no model name is configured.
	ErrMissingModel = errors.New("llm: model is required")

	// ErrUnknownProvider is returned for an unsupported provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	Provider string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm: %s returned status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}

// Unwrap returns ErrUpstream and the underlying cause.
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// Retryable reports whether a retry may succeed. Client errors other than
// 408 and 429 are permanent.
func (e *UpstreamError) Retryable() bool {
	if e.Status == 0 || e.Status >= 500 {
		return true
	}
	return e.Status == 408 || e.Status == 429
}

// IsRetryable reports whether err is worth retrying. Errors that are not
// UpstreamErrors are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return true
}
