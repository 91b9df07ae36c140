package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/thermolb/internal/convergence"
	"github.com/san-kum/thermolb/internal/lattice"
	"gonum.org/v1/gonum/mat"
)

// Relaxation holds the collision rate in one of three equivalent forms.
// Exactly one field must be non-zero.
type Relaxation struct {
	// Diffusivity is alpha; tau = 3*alpha*dt/dx^2 + 0.5.
	Diffusivity float64
	Tau         float64
	Omega       float64
}

func (r Relaxation) set() int {
	n := 0
	for _, v := range []float64{r.Diffusivity, r.Tau, r.Omega} {
		if v != 0 {
			n++
		}
	}
	return n
}

// Config is the immutable description of one run.
type Config struct {
	NX, NY     int
	Model      string
	Velocity   lattice.Vector
	Relaxation Relaxation
	Spacing    float64
	TimeStep   float64
	Boundary   lattice.BoundarySpec
	Initial    float64

	Tolerance     float64
	MaxIterations int
	Norm          convergence.Norm

	// ProgressEvery is the observer cadence in iterations; zero disables it.
	ProgressEvery int
	// DivergenceMargin scales the sane-value band around the boundary and
	// initial values. Zero selects 1.
	DivergenceMargin float64
}

// DefaultConfig is the advecting channel: walls at 60, a 30 inlet on the
// left and an open outlet on the right.
func DefaultConfig() Config {
	return Config{
		NX:         41,
		NY:         21,
		Model:      "d2q5",
		Velocity:   lattice.Vector{X: 0.05},
		Relaxation: Relaxation{Diffusivity: 0.01},
		Spacing:    1,
		TimeStep:   1,
		Boundary: lattice.BoundarySpec{
			Top:    lattice.FixedEdge(60),
			Bottom: lattice.FixedEdge(60),
			Left:   lattice.AdvectiveEdge(30),
			Right:  lattice.OpenEdge(),
		},
		Initial:       30,
		Tolerance:     1e-5,
		MaxIterations: 10000,
		Norm:          convergence.RMS,
		ProgressEvery: 100,
	}
}

// Validate checks everything an LBM run needs.
func (c Config) Validate() error {
	if err := c.ValidateDomain(); err != nil {
		return err
	}
	model, err := lattice.ModelByName(c.Model)
	if err != nil {
		return configErr("model", ErrUnsupportedModel, "%q (have %v)", c.Model, lattice.ModelNames())
	}
	if err := c.validateRelaxation(); err != nil {
		return err
	}
	for _, v := range model.Velocities {
		if 1+3*v.Dot(c.Velocity) < 0 {
			return configErr("velocity", ErrInvalidParameter,
				"(%g, %g) gives a negative equilibrium along %v", c.Velocity.X, c.Velocity.Y, v)
		}
	}
	return nil
}

// ValidateDomain checks the settings shared by every solver kind: grid,
// spacing, boundary, initial value and convergence settings.
func (c Config) ValidateDomain() error {
	if c.NX < 3 || c.NY < 3 {
		return configErr("grid", ErrInvalidGrid, "got %dx%d", c.NX, c.NY)
	}
	if !(c.Spacing > 0) || math.IsInf(c.Spacing, 0) {
		return configErr("spacing", ErrInvalidParameter, "must be positive, got %g", c.Spacing)
	}
	if !(c.TimeStep > 0) || math.IsInf(c.TimeStep, 0) {
		return configErr("time_step", ErrInvalidParameter, "must be positive, got %g", c.TimeStep)
	}
	if err := c.Boundary.Validate(); err != nil {
		return configErr("boundary", ErrInvalidBoundary, "%v", err)
	}
	if !finite(c.Initial) || !finite(c.Velocity.X) || !finite(c.Velocity.Y) {
		return configErr("initial", ErrInvalidParameter, "initial value and velocity must be finite")
	}
	for _, e := range lattice.Edges {
		if !finite(c.Boundary.Edge(e).Value) {
			return configErr("boundary", ErrInvalidBoundary, "%s value is not finite", e)
		}
	}
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 1) {
		return configErr("tolerance", ErrInvalidTolerance, "got %g", c.Tolerance)
	}
	if c.MaxIterations <= 0 {
		return configErr("max_iterations", ErrInvalidIterations, "got %d", c.MaxIterations)
	}
	if c.Norm != convergence.RMS && c.Norm != convergence.Max {
		return configErr("norm", ErrInvalidParameter, "unknown norm %d", int(c.Norm))
	}
	if c.ProgressEvery < 0 {
		return configErr("progress_every", ErrInvalidParameter, "got %d", c.ProgressEvery)
	}
	if c.DivergenceMargin < 0 || !finite(c.DivergenceMargin) {
		return configErr("divergence_margin", ErrInvalidParameter, "got %g", c.DivergenceMargin)
	}
	return nil
}

func (c Config) validateRelaxation() error {
	r := c.Relaxation
	if r.set() != 1 {
		return configErr("relaxation", ErrInvalidRelaxation, "%d parameters set", r.set())
	}
	tau := c.RelaxationTime()
	if !(tau > 0.5) || math.IsInf(tau, 0) {
		return configErr("relaxation", ErrUnstableRelaxation, "tau = %g", tau)
	}
	return nil
}

// RelaxationTime is tau derived from whichever relaxation form is set.
func (c Config) RelaxationTime() float64 {
	r := c.Relaxation
	switch {
	case r.Tau != 0:
		return r.Tau
	case r.Omega != 0:
		return 1 / r.Omega
	default:
		return 3*r.Diffusivity*c.TimeStep/(c.Spacing*c.Spacing) + 0.5
	}
}

// Omega is the collision rate 1/tau.
func (c Config) Omega() float64 {
	return 1 / c.RelaxationTime()
}

// Diffusivity is alpha in physical units, derived from tau when the
// relaxation was not given as a diffusivity.
func (c Config) Diffusivity() float64 {
	if c.Relaxation.Diffusivity != 0 {
		return c.Relaxation.Diffusivity
	}
	return (c.RelaxationTime() - 0.5) * c.Spacing * c.Spacing / (3 * c.TimeStep)
}

// InitialField is the uniform initial value with fixed edges already pinned.
func (c Config) InitialField() (*mat.Dense, error) {
	sb, err := lattice.NewScalarBoundary(c.Boundary, c.NY, c.NX)
	if err != nil {
		return nil, err
	}
	seed := mat.NewDense(c.NY, c.NX, nil)
	data := seed.RawMatrix().Data
	for i := range data {
		data[i] = c.Initial
	}
	sb.Pin(seed)
	return seed, nil
}

// Bounds is the band a healthy field stays inside: the fixed-edge and
// initial values widened by DivergenceMargin times their spread.
func (c Config) Bounds() (lo, hi float64) {
	lo, hi = c.Initial, c.Initial
	if blo, bhi, ok := c.Boundary.FixedRange(); ok {
		lo = math.Min(lo, blo)
		hi = math.Max(hi, bhi)
	}
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	m := c.DivergenceMargin
	if m == 0 {
		m = 1
	}
	return lo - m*span, hi + m*span
}

func (c Config) String() string {
	return fmt.Sprintf("%s %dx%d tau=%.4g u=(%g,%g) tol=%g max=%d norm=%s",
		c.Model, c.NX, c.NY, c.RelaxationTime(), c.Velocity.X, c.Velocity.Y,
		c.Tolerance, c.MaxIterations, c.Norm)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
