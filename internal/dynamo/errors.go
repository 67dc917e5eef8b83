package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for orbit evaluation.
var (
	// ErrDimensionMismatch indicates mismatched trajectory, cache, transform or system shapes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrNotReal indicates a mean or Nyquist mode with a non-zero imaginary part.
	ErrNotReal = errors.New("dynamo: mean and nyquist modes must be real")

	// ErrNonFinite indicates NaN or Inf in an evaluated quantity.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrInvalidParam indicates an unknown parameter name or an out of range value.
	ErrInvalidParam = errors.New("dynamo: invalid parameter")

	// ErrUnknownSystem indicates a system name missing from the registry.
	ErrUnknownSystem = errors.New("dynamo: unknown system")
)

// DimensionError wraps ErrDimensionMismatch with the offending shape.
type DimensionError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: want %d, got %d", ErrDimensionMismatch, e.What, e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDim returns a *DimensionError when got != want.
func CheckDim(what string, want, got int) error {
	if want != got {
		return &DimensionError{What: what, Want: want, Got: got}
	}
	return nil
}
