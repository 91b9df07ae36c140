package lattice

import "errors"

var (
	// ErrUnsupportedModel indicates a velocity model identifier with no table.
	ErrUnsupportedModel = errors.New("lattice: unsupported velocity model")

	// ErrShapeMismatch indicates a macroscopic field whose dimensions differ from the lattice.
	ErrShapeMismatch = errors.New("lattice: field dimensions do not match grid")

	// ErrGridTooSmall indicates a grid without interior cells.
	ErrGridTooSmall = errors.New("lattice: grid must be at least 3x3")

	// ErrInvalidBoundary indicates an edge with no kind or an unknown kind.
	ErrInvalidBoundary = errors.New("lattice: invalid boundary specification")

	// ErrInvalidModel indicates a velocity table that breaks the model invariants.
	ErrInvalidModel = errors.New("lattice: inconsistent velocity model")
)
