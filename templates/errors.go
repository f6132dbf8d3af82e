package templates

import "errors"

var (
	// ErrMissingVariable indicates a required placeholder had no value.
	ErrMissingVariable = errors.New("templates: missing template variable")

	// ErrInvalidPhase indicates a phase override that cannot be applied.
	ErrInvalidPhase = errors.New("templates: invalid phase")

	// ErrInvalidTemplate indicates a template override that cannot be applied.
	ErrInvalidTemplate = errors.New("templates: invalid template")
)
