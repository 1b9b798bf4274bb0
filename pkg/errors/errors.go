// Package errors implements the core's error taxonomy: a closed set of
// failure kinds that every component boundary converts raw failures into.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying each taxonomy kind. Use errors.Is against
// these, not string comparison, to classify a TaxonomyError.
var (
	ErrConfig            = errors.New("configuration inconsistent")
	ErrNotAvailable      = errors.New("no validated model satisfies the request")
	ErrBackendFailure    = errors.New("backend invocation failed")
	ErrShape             = errors.New("model output did not conform to the expected shape")
	ErrResourceExhausted = errors.New("insufficient resources to proceed")
	ErrCancelled         = errors.New("operation cancelled")
	ErrInternal          = errors.New("internal error")
)

// Kind identifies which taxonomy bucket a TaxonomyError belongs to.
type Kind string

const (
	KindConfig            Kind = "config"
	KindNotAvailable      Kind = "not_available"
	KindBackendFailure    Kind = "backend_failure"
	KindShape             Kind = "shape"
	KindResourceExhausted Kind = "resource_exhausted"
	KindCancelled         Kind = "cancelled"
	KindInternal          Kind = "internal"
)

func sentinelFor(kind Kind) error {
	switch kind {
	case KindConfig:
		return ErrConfig
	case KindNotAvailable:
		return ErrNotAvailable
	case KindBackendFailure:
		return ErrBackendFailure
	case KindShape:
		return ErrShape
	case KindResourceExhausted:
		return ErrResourceExhausted
	case KindCancelled:
		return ErrCancelled
	default:
		return ErrInternal
	}
}

// TaxonomyError wraps a lower-level error with the operation that produced
// it and the taxonomy Kind it has been classified as.
type TaxonomyError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TaxonomyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, sentinelFor(e.Kind))
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, sentinelFor(e.Kind), e.Err)
}

// Unwrap exposes both the sentinel (so errors.Is(err, ErrBackendFailure)
// works) and the underlying cause via errors.Join semantics.
func (e *TaxonomyError) Unwrap() []error {
	return []error{sentinelFor(e.Kind), e.Err}
}

func newError(kind Kind, op string, err error) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Op: op, Err: err}
}

// NewConfig builds a ConfigError-classified TaxonomyError.
func NewConfig(op string, err error) *TaxonomyError { return newError(KindConfig, op, err) }

// NewNotAvailable builds a NotAvailable-classified TaxonomyError.
func NewNotAvailable(op string, err error) *TaxonomyError {
	return newError(KindNotAvailable, op, err)
}

// NewBackendFailure builds a BackendFailure-classified TaxonomyError.
func NewBackendFailure(op string, err error) *TaxonomyError {
	return newError(KindBackendFailure, op, err)
}

// NewShape builds a ShapeError-classified TaxonomyError.
func NewShape(op string, err error) *TaxonomyError { return newError(KindShape, op, err) }

// NewResourceExhausted builds a ResourceExhausted-classified TaxonomyError.
func NewResourceExhausted(op string, err error) *TaxonomyError {
	return newError(KindResourceExhausted, op, err)
}

// NewCancelled builds a Cancelled-classified TaxonomyError. Cancellation is
// not a failure for reporting purposes, but callers that need to propagate
// it as an error still want the same classification machinery.
func NewCancelled(op string) *TaxonomyError {
	return newError(KindCancelled, op, nil)
}

// NewInternal builds an Internal-classified TaxonomyError, for
// programming-error conditions that should be logged with context and
// surfaced as an opaque failure.
func NewInternal(op string, err error) *TaxonomyError { return newError(KindInternal, op, err) }

// KindOf returns the Kind of err if it is (or wraps) a *TaxonomyError, and
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}
