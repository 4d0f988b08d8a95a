package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidInput covers every deterministic input-validation failure:
	// alpha/beta outside (0,1), non-positive stddev or size, proportions
	// outside [0,1] and zero divisors in the sample-size formulas.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericDomain is returned when the normal primitive is asked to
	// invert a probability outside the open interval (0,1).
	ErrNumericDomain = errors.New("numeric domain error")

	ErrNotFound           = errors.New("resource not found")
	ErrExperimentNotFound = fmt.Errorf("%w: experiment", ErrNotFound)
)

// NewInvalidInputError builds an ErrInvalidInput for a named field.
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// NewNumericDomainError reports a probability the normal quantile cannot invert.
func NewNumericDomainError(p float64) error {
	return fmt.Errorf("%w: probability %v is outside (0,1)", ErrNumericDomain, p)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNumericDomain(err error) bool {
	return errors.Is(err, ErrNumericDomain)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
