package fdm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/convergence"
	"github.com/san-kum/thermolb/internal/lattice"
	"github.com/san-kum/thermolb/internal/solver"
)

func channel() solver.Config {
	return solver.Config{
		NX:         5,
		NY:         5,
		Relaxation: solver.Relaxation{Diffusivity: 0.2},
		Spacing:    1,
		TimeStep:   1,
		Boundary: lattice.BoundarySpec{
			Top:    lattice.FixedEdge(60),
			Bottom: lattice.FixedEdge(60),
			Left:   lattice.FixedEdge(30),
			Right:  lattice.OpenEdge(),
		},
		Initial:       30,
		Tolerance:     1e-4,
		MaxIterations: 1000,
		Norm:          convergence.RMS,
	}
}

func plate(n int) solver.Config {
	return solver.Config{
		NX:       n,
		NY:       n,
		Spacing:  1,
		TimeStep: 1,
		Boundary: lattice.BoundarySpec{
			Top:    lattice.FixedEdge(30),
			Bottom: lattice.FixedEdge(60),
			Left:   lattice.FixedEdge(30),
			Right:  lattice.FixedEdge(30),
		},
		Initial:       30,
		Tolerance:     1e-4,
		MaxIterations: 5000,
		Norm:          convergence.Max,
	}
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("Jacobi")
	require.NoError(t, err)
	assert.Equal(t, Jacobi, s)

	s, err = ParseScheme("upwind")
	require.NoError(t, err)
	assert.Equal(t, Explicit, s)

	_, err = ParseScheme("crank-nicolson")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestJacobiPlate(t *testing.T) {
	s, err := New(plate(8), Jacobi)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, res.State)
	assert.Less(t, res.Iterations, 500)

	assert.InDelta(t, 44.26, res.Field.At(5, 3), 0.02)
	assert.InDelta(t, 31.52, res.Field.At(1, 3), 0.02)
	for r := 0; r < 8; r++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, res.Field.At(r, 7-c), res.Field.At(r, c), 1e-9)
		}
	}
	assert.Equal(t, 60.0, res.Field.At(7, 3))
	assert.Equal(t, 30.0, res.Field.At(7, 0))
}

func TestExplicitChannel(t *testing.T) {
	s, err := New(channel(), Explicit)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, res.State)

	want := [][]float64{
		{46.81, 53.52, 55.98, 55.98},
		{43.73, 51.30, 54.42, 54.42},
		{46.81, 53.52, 55.98, 55.98},
	}
	for i, row := range want {
		for j, v := range row {
			assert.InDelta(t, v, res.Field.At(i+1, j+1), 0.02, "cell (%d,%d)", i+1, j+1)
		}
	}
	for r := 1; r < 4; r++ {
		assert.Equal(t, res.Field.At(r, 3), res.Field.At(r, 4))
	}
}

func TestExplicitAdvectionCoolsDownstream(t *testing.T) {
	still, err := New(channel(), Explicit)
	require.NoError(t, err)
	base, err := still.Run(context.Background())
	require.NoError(t, err)

	cfg := channel()
	cfg.Velocity = lattice.Vector{X: 0.2}
	moving, err := New(cfg, Explicit)
	require.NoError(t, err)
	res, err := moving.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, solver.Converged, res.State)
	assert.InDelta(t, 42.76, res.Field.At(2, 2), 0.02)
	assert.Less(t, res.Field.At(2, 2), base.Field.At(2, 2))
}

func TestExplicitMatchesJacobiAtQuarterDiffusionNumber(t *testing.T) {
	cfg := plate(7)
	cfg.Relaxation = solver.Relaxation{Diffusivity: 0.25}
	cfg.Tolerance = 1e-12
	cfg.MaxIterations = 40

	ex, err := New(cfg, Explicit)
	require.NoError(t, err)
	exRes, err := ex.Run(context.Background())
	require.NoError(t, err)

	ja, err := New(cfg, Jacobi)
	require.NoError(t, err)
	jaRes, err := ja.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, solver.MaxIterationsExceeded, exRes.State)
	assert.True(t, mat.EqualApprox(exRes.Field, jaRes.Field, 1e-9))
}

func TestStabilityLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*solver.Config)
	}{
		{"diffusion number", func(c *solver.Config) { c.Relaxation = solver.Relaxation{Diffusivity: 0.3} }},
		{"courant number", func(c *solver.Config) { c.Velocity = lattice.Vector{X: 0.8, Y: 0.4} }},
		{"fine grid", func(c *solver.Config) { c.Spacing = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := channel()
			tt.mutate(&cfg)
			_, err := New(cfg, Explicit)
			assert.ErrorIs(t, err, ErrUnstableScheme)

			// Jacobi has no time step and accepts the same config
			_, err = New(cfg, Jacobi)
			assert.NoError(t, err)
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := channel()
	cfg.NX = 2
	_, err := New(cfg, Jacobi)
	assert.ErrorIs(t, err, solver.ErrInvalidGrid)

	_, err = New(channel(), Scheme(5))
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestKernelReset(t *testing.T) {
	k, err := NewKernel(channel(), Explicit)
	require.NoError(t, err)
	seed := mat.DenseCopyOf(k.Field())

	for i := 0; i < 3; i++ {
		require.NoError(t, k.Advance())
	}
	assert.False(t, mat.Equal(seed, k.Field()))

	require.NoError(t, k.Reset())
	assert.True(t, mat.Equal(seed, k.Field()))
}
