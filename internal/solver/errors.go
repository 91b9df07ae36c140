package solver

import (
	"errors"
	"fmt"
)

// Configuration errors. Every one of them is returned before the first
// iteration runs.
var (
	// ErrInvalidGrid indicates a grid without interior cells.
	ErrInvalidGrid = errors.New("solver: grid must be at least 3x3")

	// ErrUnsupportedModel indicates an unknown velocity model identifier.
	ErrUnsupportedModel = errors.New("solver: unsupported velocity model")

	// ErrUnstableRelaxation indicates a relaxation time at or below 0.5.
	ErrUnstableRelaxation = errors.New("solver: relaxation outside the stable range (tau must exceed 0.5)")

	// ErrInvalidRelaxation indicates zero or several relaxation parameters.
	ErrInvalidRelaxation = errors.New("solver: exactly one of diffusivity, tau or omega must be set")

	// ErrInvalidTolerance indicates a non-positive convergence tolerance.
	ErrInvalidTolerance = errors.New("solver: tolerance must be positive")

	// ErrInvalidIterations indicates a non-positive iteration ceiling.
	ErrInvalidIterations = errors.New("solver: iteration ceiling must be positive")

	// ErrInvalidBoundary indicates an edge without a usable condition.
	ErrInvalidBoundary = errors.New("solver: invalid boundary specification")

	// ErrInvalidParameter indicates any other out-of-range setting.
	ErrInvalidParameter = errors.New("solver: parameter out of valid bounds")
)

// Run-time errors.
var (
	// ErrDiverged indicates a non-finite or out-of-bounds macroscopic value.
	ErrDiverged = errors.New("solver: numerical divergence")

	// ErrNotRunning indicates a step requested after a terminal state.
	ErrNotRunning = errors.New("solver: solver is not running")
)

// ConfigError names the offending setting.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(field string, err error, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}

// DivergenceError records the first cell that left the sane range.
type DivergenceError struct {
	Iteration int
	Row, Col  int
	Value     float64
	Lo, Hi    float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("iteration %d: cell (%d,%d) = %g outside [%g, %g]: %v",
		e.Iteration, e.Row, e.Col, e.Value, e.Lo, e.Hi, ErrDiverged)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}
