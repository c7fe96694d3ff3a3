package epi

import (
	"errors"
	"fmt"
)

// Sentinel categories for the two fatal error classes. SpecError aborts
// model construction; InvariantViolation aborts a single evaluation and
// must be mapped by the caller to a rejected proposal, not a crash.
var (
	// ErrSpec indicates an invalid model specification or data table.
	ErrSpec = errors.New("epi: invalid specification")

	// ErrInvariant indicates an evaluation-time invariant breach
	// (infections outside [0, S0], negative expected counts, or a
	// non-finite log-density). It signals an upstream bug, never a
	// recoverable condition.
	ErrInvariant = errors.New("epi: invariant violation")
)

// SpecError describes a construction-time specification failure.
type SpecError struct {
	Component string // which spec or table section failed
	Detail    string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("epi: invalid specification: %s: %s", e.Component, e.Detail)
}

func (e *SpecError) Unwrap() error { return ErrSpec }

func specErrf(component, format string, args ...any) error {
	return &SpecError{Component: component, Detail: fmt.Sprintf(format, args...)}
}

// InvariantViolation describes an evaluation-time breach. Population is
// the population id when the breach is population-local, "" otherwise.
type InvariantViolation struct {
	Population string
	Day        int
	Detail     string
}

func (e *InvariantViolation) Error() string {
	if e.Population == "" {
		return fmt.Sprintf("epi: invariant violation: %s", e.Detail)
	}
	return fmt.Sprintf("epi: invariant violation: population %s day %d: %s", e.Population, e.Day, e.Detail)
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariant }

// IsRejection reports whether err should be treated by a sampler as a
// rejected proposal (log-density -Inf) rather than a fatal failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvariant)
}
