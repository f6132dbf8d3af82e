package fingerprint

import "errors"

var (
	// ErrInvalidContext indicates a context that cannot be fingerprinted.
	ErrInvalidContext = errors.New("fingerprint: invalid context")

	// ErrCanonicalize indicates the context could not be serialized.
	ErrCanonicalize = errors.New("fingerprint: failed to canonicalize context")
)
