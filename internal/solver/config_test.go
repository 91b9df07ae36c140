package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/thermolb/internal/convergence"
	"github.com/san-kum/thermolb/internal/lattice"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.53, cfg.RelaxationTime(), 1e-12)
	assert.InDelta(t, 1/0.53, cfg.Omega(), 1e-12)
	assert.Equal(t, convergence.RMS, cfg.Norm)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
		field  string
	}{
		{"narrow grid", func(c *Config) { c.NX = 2 }, ErrInvalidGrid, "grid"},
		{"short grid", func(c *Config) { c.NY = 0 }, ErrInvalidGrid, "grid"},
		{"unknown model", func(c *Config) { c.Model = "d3q27" }, ErrUnsupportedModel, "model"},
		{"tau at the limit", func(c *Config) { c.Relaxation = Relaxation{Tau: 0.5} }, ErrUnstableRelaxation, "relaxation"},
		{"tau below", func(c *Config) { c.Relaxation = Relaxation{Tau: 0.4} }, ErrUnstableRelaxation, "relaxation"},
		{"omega two", func(c *Config) { c.Relaxation = Relaxation{Omega: 2} }, ErrUnstableRelaxation, "relaxation"},
		{"negative omega", func(c *Config) { c.Relaxation = Relaxation{Omega: -1} }, ErrUnstableRelaxation, "relaxation"},
		{"negative diffusivity", func(c *Config) { c.Relaxation = Relaxation{Diffusivity: -0.01} }, ErrUnstableRelaxation, "relaxation"},
		{"no relaxation", func(c *Config) { c.Relaxation = Relaxation{} }, ErrInvalidRelaxation, "relaxation"},
		{"two relaxations", func(c *Config) { c.Relaxation = Relaxation{Tau: 0.6, Omega: 1} }, ErrInvalidRelaxation, "relaxation"},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, ErrInvalidTolerance, "tolerance"},
		{"nan tolerance", func(c *Config) { c.Tolerance = math.NaN() }, ErrInvalidTolerance, "tolerance"},
		{"zero ceiling", func(c *Config) { c.MaxIterations = 0 }, ErrInvalidIterations, "max_iterations"},
		{"unset edge", func(c *Config) { c.Boundary.Right = lattice.EdgeSpec{} }, ErrInvalidBoundary, "boundary"},
		{"infinite edge", func(c *Config) { c.Boundary.Top = lattice.FixedEdge(math.Inf(1)) }, ErrInvalidBoundary, "boundary"},
		{"zero spacing", func(c *Config) { c.Spacing = 0 }, ErrInvalidParameter, "spacing"},
		{"zero time step", func(c *Config) { c.TimeStep = 0 }, ErrInvalidParameter, "time_step"},
		{"nan initial", func(c *Config) { c.Initial = math.NaN() }, ErrInvalidParameter, "initial"},
		{"negative margin", func(c *Config) { c.DivergenceMargin = -1 }, ErrInvalidParameter, "divergence_margin"},
		{"negative cadence", func(c *Config) { c.ProgressEvery = -5 }, ErrInvalidParameter, "progress_every"},
		{"unknown norm", func(c *Config) { c.Norm = convergence.Norm(9) }, ErrInvalidParameter, "norm"},
		{"supersonic flow", func(c *Config) { c.Velocity = lattice.Vector{X: 0.5} }, ErrInvalidParameter, "velocity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)

			_, err = New(cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRelaxationForms(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Relaxation = Relaxation{Diffusivity: 0.1}
	cfg.Spacing, cfg.TimeStep = 0.5, 0.25
	assert.InDelta(t, 3*0.1*0.25/0.25+0.5, cfg.RelaxationTime(), 1e-12)
	assert.InDelta(t, 0.1, cfg.Diffusivity(), 1e-15)

	cfg.Spacing, cfg.TimeStep = 1, 1
	cfg.Relaxation = Relaxation{Omega: 1}
	assert.Equal(t, 1.0, cfg.RelaxationTime())
	assert.InDelta(t, 1.0/6, cfg.Diffusivity(), 1e-15)

	cfg.Relaxation = Relaxation{Tau: 0.8}
	assert.InDelta(t, 1.25, cfg.Omega(), 1e-15)
	assert.InDelta(t, 0.1, cfg.Diffusivity(), 1e-15)
}

func TestBounds(t *testing.T) {
	cfg := DefaultConfig()
	lo, hi := cfg.Bounds()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 90.0, hi)

	cfg.DivergenceMargin = 2
	lo, hi = cfg.Bounds()
	assert.Equal(t, -30.0, lo)
	assert.Equal(t, 120.0, hi)

	cfg.DivergenceMargin = 0
	cfg.Initial = 5
	cfg.Boundary = lattice.BoundarySpec{
		Top: lattice.FixedEdge(5), Bottom: lattice.OpenEdge(),
		Left: lattice.OpenEdge(), Right: lattice.OpenEdge(),
	}
	lo, hi = cfg.Bounds()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 10.0, hi)
}

func TestInitialField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NX, cfg.NY = 4, 3
	seed, err := cfg.InitialField()
	require.NoError(t, err)

	assert.Equal(t, 30.0, seed.At(0, 0))
	assert.Equal(t, 60.0, seed.At(0, 1))
	assert.Equal(t, 60.0, seed.At(2, 3))
	assert.Equal(t, 30.0, seed.At(1, 2))
}

func TestStateNames(t *testing.T) {
	for _, s := range []State{Running, Converged, MaxIterationsExceeded, Diverged} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var back State
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	assert.False(t, Running.Terminal())
	assert.True(t, MaxIterationsExceeded.Terminal())

	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}
