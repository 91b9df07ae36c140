package lattice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func constant(rows, cols int, v float64) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, v)
		}
	}
	return m
}

func rawData(m *mat.Dense) []float64 {
	return mat.DenseCopyOf(m).RawMatrix().Data
}

var approx = cmpopts.EquateApprox(0, 1e-12)

// total is the sum of every population over the whole grid.
func total(fd *Field) float64 {
	sum := 0.0
	for k := range fd.f {
		for _, v := range fd.f[k] {
			sum += v
		}
	}
	return sum
}

func count(m *Mask) int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

func TestNewFieldRestEquilibrium(t *testing.T) {
	for _, m := range []VelocityModel{D2Q5(), D2Q9()} {
		fd, err := NewField(m, constant(4, 6, 30))
		require.NoError(t, err)

		rows, cols := fd.Dims()
		assert.Equal(t, 4, rows)
		assert.Equal(t, 6, cols)
		assert.InDelta(t, m.Weights[1]*30, fd.Population(1, 2, 3), 1e-15)
		assert.InDelta(t, 30*24, total(fd), 1e-9)

		if diff := cmp.Diff(rawData(constant(4, 6, 30)), rawData(fd.Project()), approx); diff != "" {
			t.Errorf("%s projection mismatch (-want +got):\n%s", m.Name, diff)
		}
	}
}

func TestNewFieldRejectsSmallGrid(t *testing.T) {
	_, err := NewField(D2Q5(), constant(2, 5, 0))
	assert.ErrorIs(t, err, ErrGridTooSmall)
}

func TestInitializeShapeMismatch(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(3, 3, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, fd.Initialize(constant(4, 3, 1)), ErrShapeMismatch)
}

func TestForceMacroscopic(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(3, 3, 1))
	require.NoError(t, err)

	mask := NewMask(3, 3)
	mask.Set(0, 2)
	fd.ForceMacroscopic(constant(3, 3, 7), mask)

	assert.Equal(t, 7.0, fd.Macro().At(0, 2))
	assert.Equal(t, 1.0, fd.Macro().At(0, 1))
	assert.Equal(t, 1, count(mask))
	// populations are untouched
	assert.InDelta(t, 1.0, fd.Project().At(0, 2), 1e-15)
}

func TestCollideWithZeroRateIsIdentity(t *testing.T) {
	fd, err := NewField(D2Q9(), constant(5, 5, 10))
	require.NoError(t, err)
	fd.SetPopulation(3, 2, 2, 4)
	fd.Reproject()
	before := total(fd)

	Collide(fd, 0, Vector{X: 0.1})

	assert.Equal(t, 4.0, fd.Population(3, 2, 2))
	assert.Equal(t, before, total(fd))
}

func TestCollideConservesCellSum(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(4, 4, 20))
	require.NoError(t, err)
	fd.SetPopulation(1, 1, 1, 9)
	fd.SetPopulation(4, 2, 3, 0.5)
	fd.Reproject()
	want := rawData(fd.Project())

	Collide(fd, 1.3, Vector{X: 0.05, Y: 0.02})

	if diff := cmp.Diff(want, rawData(fd.Project()), approx); diff != "" {
		t.Errorf("cell sums changed (-want +got):\n%s", diff)
	}
}

func populations(fd *Field) [][]float64 {
	out := make([][]float64, len(fd.f))
	for k := range fd.f {
		out[k] = append([]float64(nil), fd.f[k]...)
	}
	return out
}

func TestCollideLeavesRestEquilibriumUnchanged(t *testing.T) {
	seed := mat.NewDense(4, 5, []float64{
		30, 31, 35, 42, 60,
		30, 33, 38, 47, 60,
		30, 32, 36, 44, 60,
		30, 30, 30, 30, 30,
	})
	for _, m := range []VelocityModel{D2Q5(), D2Q9()} {
		fd, err := NewField(m, seed)
		require.NoError(t, err)
		want := populations(fd)
		for k, w := range m.Weights {
			assert.InDelta(t, w*47, want[k][1*5+3], 1e-12)
		}

		Collide(fd, 1.7, Vector{})

		if diff := cmp.Diff(want, populations(fd), approx); diff != "" {
			t.Errorf("%s equilibrium moved (-want +got):\n%s", m.Name, diff)
		}
	}
}

func TestCollideFullRelaxationReachesEquilibrium(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(3, 3, 12))
	require.NoError(t, err)
	u := Vector{X: 0.1}

	Collide(fd, 1, u)

	for k := range fd.Model().Velocities {
		assert.InDelta(t, fd.Model().Equilibrium(k, 12, u), fd.Population(k, 1, 1), 1e-12)
	}
}

func TestStreamShiftsAndWraps(t *testing.T) {
	fd, err := NewField(D2Q9(), constant(4, 5, 0))
	require.NoError(t, err)

	// direction 5 is (1, 1): one column right, one row down
	fd.SetPopulation(5, 2, 3, 1)
	fd.SetPopulation(5, 3, 4, 2)
	fd.SetPopulation(0, 1, 1, 3)

	Stream(fd)

	assert.Equal(t, 1.0, fd.Population(5, 3, 4))
	assert.Equal(t, 2.0, fd.Population(5, 0, 0))
	assert.Equal(t, 3.0, fd.Population(0, 1, 1))
	assert.Equal(t, 0.0, fd.Population(5, 2, 3))
	assert.Equal(t, 6.0, total(fd))
}

func TestStreamConservesTotal(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(5, 7, 3))
	require.NoError(t, err)
	fd.SetPopulation(2, 0, 0, 11)
	fd.SetPopulation(4, 4, 6, 5)
	before := total(fd)

	for i := 0; i < 13; i++ {
		Stream(fd)
	}

	assert.InDelta(t, before, total(fd), 1e-12)
}

func TestStreamFullPeriodRestoresField(t *testing.T) {
	fd, err := NewField(D2Q5(), constant(4, 4, 0))
	require.NoError(t, err)
	fd.SetPopulation(1, 1, 2, 1)
	fd.SetPopulation(3, 3, 0, 2)

	for i := 0; i < 4; i++ {
		Stream(fd)
	}

	assert.Equal(t, 1.0, fd.Population(1, 1, 2))
	assert.Equal(t, 2.0, fd.Population(3, 3, 0))
}
