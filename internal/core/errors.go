package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTechnical matches every *TechnicalError through errors.Is.
	ErrTechnical = errors.New("technical failure")

	// ErrNotFound is returned when an operation requires an entity that does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when a nil or malformed entity is given to a write.
	ErrInvalidEntity = errors.New("invalid entity")
)

// ErrorKind classifies the cause of a technical failure.
type ErrorKind string

const (
	KindUnknown       ErrorKind = "unknown"
	KindConnectivity  ErrorKind = "connectivity"
	KindConstraint    ErrorKind = "constraint"
	KindStatement     ErrorKind = "statement"
	KindSerialization ErrorKind = "serialization"
	KindMapping       ErrorKind = "mapping"
)

// TechnicalError is the single error type repositories return for failures of
// the underlying store. Kind keeps the failure class so callers can react to
// it; Err keeps the original cause.
type TechnicalError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

// Is reports ErrTechnical as a match so callers can test the class without a type assertion.
func (e *TechnicalError) Is(target error) bool {
	return target == ErrTechnical
}

// KindOf returns the kind of the first TechnicalError in err's chain,
// or KindUnknown when there is none.
func KindOf(err error) ErrorKind {
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}
