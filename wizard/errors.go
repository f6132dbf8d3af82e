package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the subject input is unusable.
	ErrInvalidInput = errors.New("wizard: invalid input")

	// ErrStepOrder is returned when a step runs before its prerequisites.
	ErrStepOrder = errors.New("wizard: previous step not completed")

	// ErrInvalidMetadata is returned when generated metadata is not valid
	// JSON or misses required fields. It is retried like upstream errors.
	ErrInvalidMetadata = errors.New("wizard: invalid metadata")

	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("wizard: missing dependency")
)

// ExhaustedRetriesError reports a step that failed on every attempt.
// DraftID is set when earlier steps were already saved, so the caller can
// resume later.
type ExhaustedRetriesError struct {
	Step     Step
	Attempts int
	DraftID  string
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	if e.DraftID != "" {
		return fmt.Sprintf("wizard: %s failed after %d attempts (draft %s saved): %v", e.Step, e.Attempts, e.DraftID, e.Err)
	}
	return fmt.Sprintf("wizard: %s failed after %d attempts: %v", e.Step, e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}
