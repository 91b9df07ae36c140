// Package convergence measures how much the macroscopic field moved between
// two iterations and decides when a run has settled.
package convergence

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidTolerance = errors.New("convergence: tolerance must be positive and finite")
	ErrUnknownNorm      = errors.New("convergence: unknown norm")
	ErrShapeMismatch    = errors.New("convergence: fields differ in shape")
)

// Norm selects how the per-cell differences are reduced to one number.
type Norm int

const (
	// RMS is sqrt(mean((new-old)^2)).
	RMS Norm = iota
	// Max is max|new-old|.
	Max
)

func (n Norm) String() string {
	switch n {
	case RMS:
		return "rms"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("norm(%d)", int(n))
	}
}

// ParseNorm maps "rms" and "max" (alias "inf") to a Norm. The empty string
// selects RMS.
func ParseNorm(s string) (Norm, error) {
	switch strings.ToLower(s) {
	case "", "rms", "l2":
		return RMS, nil
	case "max", "inf", "linf":
		return Max, nil
	}
	return RMS, fmt.Errorf("%w: %q", ErrUnknownNorm, s)
}

// Monitor compares consecutive macroscopic fields.
type Monitor struct {
	Norm      Norm
	Tolerance float64
}

func NewMonitor(norm Norm, tolerance float64) (*Monitor, error) {
	if !(tolerance > 0) || math.IsInf(tolerance, 1) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidTolerance, tolerance)
	}
	if norm != RMS && norm != Max {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNorm, int(norm))
	}
	return &Monitor{Norm: norm, Tolerance: tolerance}, nil
}

// Change is the distance between prev and next under the monitor's norm.
func (m *Monitor) Change(prev, next mat.Matrix) (float64, error) {
	r1, c1 := prev.Dims()
	r2, c2 := next.Dims()
	if r1 != r2 || c1 != c2 {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, r1, c1, r2, c2)
	}
	a, b := flatten(prev), flatten(next)
	if len(a) == 0 {
		return 0, nil
	}
	if m.Norm == Max {
		return floats.Distance(a, b, math.Inf(1)), nil
	}
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a))), nil
}

// Converged reports whether a change is strictly below the tolerance.
func (m *Monitor) Converged(change float64) bool {
	return change < m.Tolerance
}

// Check computes the change and whether it meets the tolerance.
func (m *Monitor) Check(prev, next mat.Matrix) (float64, bool, error) {
	change, err := m.Change(prev, next)
	if err != nil {
		return 0, false, err
	}
	return change, m.Converged(change), nil
}

func flatten(m mat.Matrix) []float64 {
	if d, ok := m.(*mat.Dense); ok {
		raw := d.RawMatrix()
		if raw.Stride == raw.Cols {
			return raw.Data[:raw.Rows*raw.Cols]
		}
	}
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
