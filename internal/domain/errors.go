package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindDivisionByZero  ErrorKind = "DivisionByZero"
	KindConfiguration   ErrorKind = "ConfigurationError"
	KindDataConsistency ErrorKind = "DataConsistencyError"
)

// Sentinel errors, one per ErrorKind. EngineError unwraps to these so callers
// can use errors.Is without inspecting the kind directly.
var (
	// ErrInvalidInput is returned for non-positive prices or shares and malformed schedules.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDivisionByZero is returned when a denominator is zero before division.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrConfiguration is returned when a required policy value is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataConsistency is returned for negative valuations or returns.
	ErrDataConsistency = errors.New("data consistency error")
)

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindDivisionByZero:
		return ErrDivisionByZero
	case KindConfiguration:
		return ErrConfiguration
	case KindDataConsistency:
		return ErrDataConsistency
	default:
		return nil
	}
}

// EngineError is the typed failure value returned by all engines.
type EngineError struct {
	Kind  ErrorKind
	Field string // offending input field, empty when not field-specific
	Msg   string
}

// NewError builds an EngineError with a formatted message.
func NewError(kind ErrorKind, field, format string, args ...any) *EngineError {
	return &EngineError{
		Kind:  kind,
		Field: field,
		Msg:   fmt.Sprintf(format, args...),
	}
}

func (e *EngineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
}

// Unwrap exposes the kind's sentinel error.
func (e *EngineError) Unwrap() error {
	return e.Kind.Sentinel()
}

// KindOf extracts the ErrorKind from err, if err wraps an EngineError.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// ValidationResult reports every failure found by a Validate* function.
type ValidationResult struct {
	Valid   bool
	Errors  []ErrorKind
	Details []error
}

func newValidation() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func (r *ValidationResult) add(kind ErrorKind, field, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, kind)
	r.Details = append(r.Details, NewError(kind, field, format, args...))
}

// Merge appends the failures of other into r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	r.Valid = false
	r.Errors = append(r.Errors, other.Errors...)
	r.Details = append(r.Details, other.Details...)
}

// Err joins all failures into a single error, or returns nil when valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return errors.Join(r.Details...)
}

// Has reports whether the result contains a failure of the given kind.
func (r *ValidationResult) Has(kind ErrorKind) bool {
	for _, k := range r.Errors {
		if k == kind {
			return true
		}
	}
	return false
}
