package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors, fatal at startup
	ErrMalformedTree      = errors.New("malformed phylogenetic tree")
	ErrUncalibratedMetric = errors.New("metric has no calibration profile")
	ErrStaleProfile       = fmt.Errorf("%w: profile formula version is stale", ErrUncalibratedMetric)
	ErrInvalidProfile     = errors.New("invalid normalization profile")

	// Input errors
	ErrUnknownInteractionKind = errors.New("unknown interaction kind")
	ErrInvalidRecord          = errors.New("invalid input record")
	ErrEmptyPool              = errors.New("species pool is empty")

	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrProfileSetNotFound = fmt.Errorf("%w: profile set", ErrNotFound)
)

// Error constructors with context
func NewMalformedTreeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedTree, fmt.Sprintf(format, args...))
}

func NewUncalibratedMetricError(metric, stratum string) error {
	if stratum == "" {
		return fmt.Errorf("%w: %s", ErrUncalibratedMetric, metric)
	}
	return fmt.Errorf("%w: %s (stratum %s)", ErrUncalibratedMetric, metric, stratum)
}

func NewStaleProfileError(metric, have, want string) error {
	return fmt.Errorf("%w: %s calibrated with formula %s, current formula is %s", ErrStaleProfile, metric, have, want)
}

func NewInvalidProfileError(metric string, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidProfile, metric, reason)
}

func NewInvalidRecordError(source string, line int, reason string) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrInvalidRecord, source, line, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStructuralError reports errors that must prevent scoring from starting.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrMalformedTree) ||
		errors.Is(err, ErrUncalibratedMetric) ||
		errors.Is(err, ErrInvalidProfile)
}
