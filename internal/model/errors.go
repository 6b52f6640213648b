package model

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the split core. Typed errors below unwrap to them.
var (
	// ErrMalformedDocument is returned when a mandatory array is missing or
	// an element cannot be decoded.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidFraction is returned when the train fraction is outside (0, 1).
	ErrInvalidFraction = errors.New("train fraction must be in (0, 1)")

	// ErrEmptyPartition is returned when a uniform split would leave one side empty.
	ErrEmptyPartition = errors.New("split leaves a partition empty")
)

// MalformedDocumentError names the field that made a document unusable
type MalformedDocumentError struct {
	Field string
	Err   error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed document: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed document: missing %q", e.Field)
}

// Is matches ErrMalformedDocument
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// InvalidFractionError carries the rejected fraction
type InvalidFractionError struct {
	Fraction float64
}

func (e *InvalidFractionError) Error() string {
	return fmt.Sprintf("invalid train fraction %v: must be in (0, 1)", e.Fraction)
}

// Is matches ErrInvalidFraction
func (e *InvalidFractionError) Is(target error) bool {
	return target == ErrInvalidFraction
}

// ValidateFraction returns an *InvalidFractionError unless 0 < f < 1
func ValidateFraction(f float64) error {
	// NaN fails both comparisons
	if !(f > 0 && f < 1) {
		return &InvalidFractionError{Fraction: f}
	}
	return nil
}

// OutputWriteError wraps a failure to write a split output
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}
