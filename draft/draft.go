package draft

import (
	"context"
	"strings"
	"time"
)

// Status is the lifecycle state of a Draft.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
)

// Draft is a persisted, partially completed subject.
type Draft struct {
	ID          string
	UserID      string
	Status      Status
	Syllabus    string
	Metadata    string
	Prompt      string
	CreatedAt   time.Time
	LastSavedAt time.Time
}

// Complete reports whether every output is present.
func (d *Draft) Complete() bool {
	return d.Syllabus != "" && d.Metadata != "" && d.Prompt != ""
}

// Clone returns a copy of d.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Step is a partial update. Empty fields leave the stored value unchanged.
type Step struct {
	Syllabus string
	Metadata string
	Prompt   string
}

// Normalize blanks fields that hold only whitespace, so every store
// agrees on which outputs a step carries.
func (s Step) Normalize() Step {
	blank := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return v
	}
	return Step{Syllabus: blank(s.Syllabus), Metadata: blank(s.Metadata), Prompt: blank(s.Prompt)}
}

// Empty reports whether the step carries no output.
func (s Step) Empty() bool {
	return s.Normalize() == Step{}
}

// Apply copies the non-empty outputs of s onto d.
func (s Step) Apply(d *Draft) {
	s = s.Normalize()
	if s.Syllabus != "" {
		d.Syllabus = s.Syllabus
	}
	if s.Metadata != "" {
		d.Metadata = s.Metadata
	}
	if s.Prompt != "" {
		d.Prompt = s.Prompt
	}
}

// Store persists drafts.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Create and Update return only after the write is durable.
//   - Update on an active draft fails with ErrDraftFinalized.
//   - Finalize fails with ErrIncompleteDraft unless every output is present,
//     and is idempotent on active drafts.
//   - Get, Update and Finalize return ErrNotFound for unknown ids.
//   - ListByUser returns drafts most recently saved first.
type Store interface {
	Create(ctx context.Context, userID string, step Step) (*Draft, error)
	Update(ctx context.Context, id string, step Step) (*Draft, error)
	Finalize(ctx context.Context, id string) (*Draft, error)
	Get(ctx context.Context, id string) (*Draft, error)
	ListByUser(ctx context.Context, userID string) ([]*Draft, error)
}

// ValidateCreate checks the arguments of Store.Create.
func ValidateCreate(userID string, step Step) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	if step.Empty() {
		return ErrEmptyStep
	}
	return nil
}
