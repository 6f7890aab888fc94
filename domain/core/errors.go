package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)

	// Validation errors
	ErrInvalidOption    = errors.New("invalid search option")
	ErrInvalidDataset   = errors.New("invalid dataset")
	ErrColumnMismatch   = errors.New("dataset columns have unequal length")
	ErrNonNumericCell   = errors.New("non-numeric cell")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Graph errors
	ErrUnknownNode   = errors.New("node not present in graph")
	ErrDuplicateEdge = errors.New("edge already present between pair")

	// Engine consistency errors
	ErrInternalInvariant = errors.New("internal invariant violated")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewOptionError(option string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidOption, option, reason)
}

func NewInvariantError(where string, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrInternalInvariant, where, detail)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrInvalidDataset) ||
		errors.Is(err, ErrColumnMismatch) ||
		errors.Is(err, ErrNonNumericCell)
}

func IsInvariantError(err error) bool {
	return errors.Is(err, ErrInternalInvariant)
}
