package generation

import (
	"fmt"
	"strings"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/fingerprint"
)

// Request asks for content for one learner interaction.
type Request struct {
	UserID  string
	PhaseID int
	Kind    string

	// Context is the semantic context the fingerprint is derived from.
	// Its PhaseID and Kind are taken from the request.
	Context fingerprint.Context

	Payload Payload
}

// Payload carries the template inputs. It does not affect the fingerprint.
type Payload struct {
	Objective   string
	KeyConcepts []string
	UserInput   string
}

// Validate checks the request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Kind) == "" {
		return fmt.Errorf("%w: interaction kind is required", ErrInvalidRequest)
	}
	if r.PhaseID < 0 {
		return fmt.Errorf("%w: phase id must not be negative", ErrInvalidRequest)
	}
	return nil
}

func (r Request) fingerprintContext() fingerprint.Context {
	c := r.Context
	c.PhaseID = r.PhaseID
	c.Kind = r.Kind
	return c
}

func (r Request) cacheKey(fp string) cache.Key {
	return cache.Key{
		UserID:      r.UserID,
		PhaseID:     r.PhaseID,
		Kind:        r.Kind,
		Fingerprint: fp,
	}
}

func (p Payload) vars() map[string]string {
	objective := strings.TrimSpace(p.Objective)
	if objective == "" {
		objective = "build practical confidence with the topic"
	}
	concepts := strings.Join(p.KeyConcepts, ", ")
	if strings.TrimSpace(concepts) == "" {
		concepts = "the core ideas of this phase"
	}
	vars := map[string]string{
		"objective": objective,
		"concepts":  concepts,
	}
	if in := strings.TrimSpace(p.UserInput); in != "" {
		vars["user_input"] = "The learner asked: " + in
	}
	return vars
}

// Fallback reasons reported in Result.FallbackReason.
const (
	ReasonTimeout     = "timeout"
	ReasonUpstream    = "upstream_error"
	ReasonCircuitOpen = "circuit_open"
	ReasonOverloaded  = "overloaded"
	ReasonValidation  = "validation"
	ReasonTemplate    = "template"
)

// Result is the content served for a Request.
type Result struct {
	Content   string
	FromCache bool

	// Fallback is set when Content is the deterministic fallback.
	Fallback       bool
	FallbackReason string

	// EntryID and UsageCount describe the cache entry, when one exists.
	EntryID    string
	UsageCount int
}
