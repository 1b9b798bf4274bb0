package config

import "errors"

// These identify the specific orchestra.yaml loading failure underneath the
// ConfigError that Initialize returns; wrap the taxonomy's boundary error
// the way pkg/config/errors.go's ValidationError/LoadError wrap theirs.
var (
	ErrConfigNotFound       = errors.New("orchestra.yaml not found")
	ErrInvalidYAML          = errors.New("invalid YAML syntax")
	ErrInvalidValue         = errors.New("invalid field value")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidReference     = errors.New("invalid configuration reference")
)
