// Package fdm is the finite-difference comparator for the lattice Boltzmann
// solver. It advances the macroscopic field directly with a five-point
// stencil and plugs into the same solver state machine.
package fdm

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/lattice"
	"github.com/san-kum/thermolb/internal/solver"
)

var (
	ErrUnknownScheme  = errors.New("fdm: unknown scheme")
	ErrUnstableScheme = errors.New("fdm: explicit step violates the stability limit")
)

// Scheme selects the interior update.
type Scheme int

const (
	// Explicit is forward Euler with upwind advection and central diffusion.
	Explicit Scheme = iota
	// Jacobi replaces every interior cell by the mean of its four neighbors.
	Jacobi
)

func (s Scheme) String() string {
	switch s {
	case Explicit:
		return "explicit"
	case Jacobi:
		return "jacobi"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "explicit", "upwind":
		return Explicit, nil
	case "jacobi":
		return Jacobi, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Kernel holds two scalar buffers and swaps them every iteration.
type Kernel struct {
	scheme   Scheme
	boundary *lattice.ScalarBoundary
	seed     *mat.Dense
	cur      *mat.Dense
	next     *mat.Dense

	alpha, dt, dx float64
	u             lattice.Vector
}

// New builds a solver that runs the given scheme under cfg.
func New(cfg solver.Config, scheme Scheme) (*solver.Solver, error) {
	k, err := NewKernel(cfg, scheme)
	if err != nil {
		return nil, err
	}
	return solver.NewWithKernel(cfg, k)
}

func NewKernel(cfg solver.Config, scheme Scheme) (*Kernel, error) {
	if err := cfg.ValidateDomain(); err != nil {
		return nil, err
	}
	if scheme != Explicit && scheme != Jacobi {
		return nil, &solver.ConfigError{Field: "solver", Reason: scheme.String(), Err: ErrUnknownScheme}
	}
	if scheme == Explicit {
		if err := CheckStability(cfg); err != nil {
			return nil, err
		}
	}
	sb, err := lattice.NewScalarBoundary(cfg.Boundary, cfg.NY, cfg.NX)
	if err != nil {
		return nil, err
	}
	seed, err := cfg.InitialField()
	if err != nil {
		return nil, err
	}
	return &Kernel{
		scheme:   scheme,
		boundary: sb,
		seed:     seed,
		cur:      mat.DenseCopyOf(seed),
		next:     mat.DenseCopyOf(seed),
		alpha:    cfg.Diffusivity(),
		dt:       cfg.TimeStep,
		dx:       cfg.Spacing,
		u:        cfg.Velocity,
	}, nil
}

// CheckStability enforces the explicit limits: the diffusion number
// alpha*dt*(2/dx^2) at most one half and the Courant number
// (|u|+|v|)*dt/dx at most one.
func CheckStability(cfg solver.Config) error {
	alpha := cfg.Diffusivity()
	if alpha < 0 || math.IsNaN(alpha) {
		return &solver.ConfigError{Field: "diffusivity", Reason: fmt.Sprintf("got %g", alpha), Err: solver.ErrInvalidParameter}
	}
	dx2 := cfg.Spacing * cfg.Spacing
	if d := alpha * cfg.TimeStep * (2 / dx2); d > 0.5 {
		return &solver.ConfigError{
			Field:  "time_step",
			Reason: fmt.Sprintf("diffusion number %.4g exceeds 0.5", d),
			Err:    ErrUnstableScheme,
		}
	}
	if c := (math.Abs(cfg.Velocity.X) + math.Abs(cfg.Velocity.Y)) * cfg.TimeStep / cfg.Spacing; c > 1 {
		return &solver.ConfigError{
			Field:  "time_step",
			Reason: fmt.Sprintf("courant number %.4g exceeds 1", c),
			Err:    ErrUnstableScheme,
		}
	}
	return nil
}

func (k *Kernel) Field() *mat.Dense { return k.cur }

func (k *Kernel) Reset() error {
	k.cur.Copy(k.seed)
	k.next.Copy(k.seed)
	return nil
}

// Advance updates the interior from the current buffer, refreshes open
// edges from the new interior, pins fixed edges and swaps.
func (k *Kernel) Advance() error {
	rows, cols := k.cur.Dims()
	t := k.cur.RawMatrix().Data
	n := k.next.RawMatrix().Data
	copy(n, t)

	switch k.scheme {
	case Jacobi:
		for r := 1; r < rows-1; r++ {
			for c := 1; c < cols-1; c++ {
				i := r*cols + c
				n[i] = 0.25 * (t[i-cols] + t[i+cols] + t[i-1] + t[i+1])
			}
		}
	default:
		k.explicit(t, n, rows, cols)
	}

	k.boundary.CopyOpen(k.next)
	k.boundary.Pin(k.next)
	k.cur, k.next = k.next, k.cur
	return nil
}

func (k *Kernel) explicit(t, n []float64, rows, cols int) {
	ux, uy := k.u.X, k.u.Y
	inv := 1 / k.dx
	lapScale := k.alpha / (k.dx * k.dx)
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			i := r*cols + c
			var ax, ay float64
			if ux > 0 {
				ax = ux * (t[i] - t[i-1]) * inv
			} else {
				ax = ux * (t[i+1] - t[i]) * inv
			}
			// positive v moves down the rows, so its upwind cell is the row above
			if uy > 0 {
				ay = uy * (t[i] - t[i-cols]) * inv
			} else {
				ay = uy * (t[i+cols] - t[i]) * inv
			}
			lap := t[i+1] + t[i-1] + t[i+cols] + t[i-cols] - 4*t[i]
			n[i] = t[i] - k.dt*(ax+ay) + k.dt*lapScale*lap
		}
	}
}
