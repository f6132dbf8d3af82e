package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrPolicyFile is returned when the policy file cannot be read or parsed.
	ErrPolicyFile = errors.New("config: policy file")
)
