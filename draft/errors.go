package draft

import "errors"

var (
	// ErrNotFound is returned when no draft has the requested id.
	ErrNotFound = errors.New("draft: not found")

	// ErrDraftFinalized is returned when updating an active draft.
	ErrDraftFinalized = errors.New("draft: already finalized")

	// ErrIncompleteDraft is returned when finalizing a draft that is missing
	// an output.
	ErrIncompleteDraft = errors.New("draft: incomplete")

	// ErrEmptyStep is returned when a Step carries no output.
	ErrEmptyStep = errors.New("draft: step carries no output")

	// ErrInvalidUser is returned when a draft is created without a user id.
	ErrInvalidUser = errors.New("draft: user id is required")
)
