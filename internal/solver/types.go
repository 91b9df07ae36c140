package solver

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Kernel advances a macroscopic field by one iteration. The solver owns the
// state machine around it; a kernel only knows how to take a step.
type Kernel interface {
	// Advance performs one full iteration, boundary enforcement included.
	Advance() error
	// Field is the current macroscopic field. The solver never keeps it
	// across iterations without copying.
	Field() *mat.Dense
	// Reset returns the kernel to its initial field.
	Reset() error
}

// Metric accumulates a scalar summary of a run.
type Metric interface {
	Name() string
	Observe(iteration int, field mat.Matrix, change float64)
	Value() float64
	Reset()
}

// Progress is reported to observers every Config.ProgressEvery iterations.
type Progress struct {
	Iteration int
	Change    float64
	Min       float64
	Max       float64
}

type Observer interface {
	OnProgress(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// Result is handed to reporting code once a run stops.
type Result struct {
	Field      *mat.Dense
	Iterations int
	State      State
	Change     float64
	History    []float64
	Metrics    map[string]float64
	Elapsed    time.Duration
}
