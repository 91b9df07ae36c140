package convergence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestParseNorm(t *testing.T) {
	tests := []struct {
		in   string
		want Norm
		err  bool
	}{
		{"", RMS, false},
		{"RMS", RMS, false},
		{"max", Max, false},
		{"inf", Max, false},
		{"l1", RMS, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNorm(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownNorm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "rms", RMS.String())
	assert.Equal(t, "max", Max.String())
}

func TestNewMonitorRejectsBadTolerance(t *testing.T) {
	for _, tol := range []float64{0, -1e-5, math.NaN(), math.Inf(1)} {
		_, err := NewMonitor(RMS, tol)
		assert.ErrorIs(t, err, ErrInvalidTolerance, "tolerance %g", tol)
	}
	_, err := NewMonitor(Norm(7), 1e-3)
	assert.ErrorIs(t, err, ErrUnknownNorm)
}

func TestChange(t *testing.T) {
	prev := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	next := mat.NewDense(2, 2, []float64{1, 3, 1, 1})

	rms, err := NewMonitor(RMS, 1e-3)
	require.NoError(t, err)
	got, err := rms.Change(prev, next)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-15) // sqrt(4/4)

	mx, err := NewMonitor(Max, 1e-3)
	require.NoError(t, err)
	got, err = mx.Change(prev, next)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestChangeOnViews(t *testing.T) {
	big := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0, 2, 0,
		0, 0, 0,
	})
	view := big.Slice(1, 3, 1, 3)
	zero := mat.NewDense(2, 2, nil)

	m, err := NewMonitor(Max, 1)
	require.NoError(t, err)
	got, err := m.Change(zero, view)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestChangeShapeMismatch(t *testing.T) {
	m, err := NewMonitor(RMS, 1)
	require.NoError(t, err)
	_, err = m.Change(mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCheckIsStrict(t *testing.T) {
	m, err := NewMonitor(Max, 0.5)
	require.NoError(t, err)

	prev := mat.NewDense(1, 2, []float64{0, 0})
	change, ok, err := m.Check(prev, mat.NewDense(1, 2, []float64{0.5, 0}))
	require.NoError(t, err)
	assert.Equal(t, 0.5, change)
	assert.False(t, ok)

	_, ok, err = m.Check(prev, mat.NewDense(1, 2, []float64{0.25, 0}))
	require.NoError(t, err)
	assert.True(t, ok)
}
