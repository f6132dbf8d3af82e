package generation

import "errors"

var (
	// ErrInvalidRequest is returned for requests missing a user id or kind.
	ErrInvalidRequest = errors.New("generation: invalid request")

	// ErrValidation is returned when generated content fails validation.
	ErrValidation = errors.New("generation: content failed validation")

	// ErrPersistence wraps cache write failures. It is logged, not returned.
	ErrPersistence = errors.New("generation: cache write failed")

	// ErrMissingDependency is returned by New when a required collaborator
	// is nil.
	ErrMissingDependency = errors.New("generation: missing dependency")
)
