package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mask selects cells of a grid.
type Mask struct {
	rows, cols int
	bits       []bool
}

func NewMask(rows, cols int) *Mask {
	return &Mask{rows: rows, cols: cols, bits: make([]bool, rows*cols)}
}

func (m *Mask) Set(r, c int)      { m.bits[r*m.cols+c] = true }
func (m *Mask) Has(r, c int) bool { return m.bits[r*m.cols+c] }

// Field owns the distribution arrays and the macroscopic scalar derived
// from them. Populations are stored per direction as flat row-major slices.
type Field struct {
	model VelocityModel
	rows  int
	cols  int
	f     [][]float64
	next  [][]float64
	macro *mat.Dense
}

// NewField allocates a lattice shaped like seed and initializes it at rest
// equilibrium: f[k] = w[k] * seed.
func NewField(model VelocityModel, seed *mat.Dense) (*Field, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	rows, cols := seed.Dims()
	if rows < 3 || cols < 3 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, rows, cols)
	}
	fd := &Field{
		model: model,
		rows:  rows,
		cols:  cols,
		f:     make([][]float64, model.Q()),
		next:  make([][]float64, model.Q()),
		macro: mat.NewDense(rows, cols, nil),
	}
	for k := range fd.f {
		fd.f[k] = make([]float64, rows*cols)
		fd.next[k] = make([]float64, rows*cols)
	}
	if err := fd.Initialize(seed); err != nil {
		return nil, err
	}
	return fd, nil
}

// Initialize resets every population to w[k] * seed and the macroscopic
// field to seed.
func (fd *Field) Initialize(seed *mat.Dense) error {
	if r, c := seed.Dims(); r != fd.rows || c != fd.cols {
		return fmt.Errorf("%w: seed %dx%d, lattice %dx%d", ErrShapeMismatch, r, c, fd.rows, fd.cols)
	}
	fd.macro.Copy(seed)
	data := fd.data()
	for k, w := range fd.model.Weights {
		for i, t := range data {
			fd.f[k][i] = w * t
		}
	}
	return nil
}

func (fd *Field) Model() VelocityModel { return fd.model }

// Dims returns rows (ny) and columns (nx).
func (fd *Field) Dims() (rows, cols int) { return fd.rows, fd.cols }

func (fd *Field) Population(k, r, c int) float64 {
	return fd.f[k][r*fd.cols+c]
}

func (fd *Field) SetPopulation(k, r, c int, v float64) {
	fd.f[k][r*fd.cols+c] = v
}

// Project returns the per-cell sum over directions without touching the
// stored macroscopic field.
func (fd *Field) Project() *mat.Dense {
	out := mat.NewDense(fd.rows, fd.cols, nil)
	fd.projectInto(out.RawMatrix().Data)
	return out
}

// Reproject replaces the stored macroscopic field with the projection.
func (fd *Field) Reproject() {
	fd.projectInto(fd.data())
}

func (fd *Field) projectInto(dst []float64) {
	copy(dst, fd.f[0])
	for k := 1; k < len(fd.f); k++ {
		for i, v := range fd.f[k] {
			dst[i] += v
		}
	}
}

// ForceMacroscopic overwrites the macroscopic field with values at the
// masked cells. Populations are left untouched.
func (fd *Field) ForceMacroscopic(values mat.Matrix, mask *Mask) {
	for r := 0; r < fd.rows; r++ {
		for c := 0; c < fd.cols; c++ {
			if mask.Has(r, c) {
				fd.macro.Set(r, c, values.At(r, c))
			}
		}
	}
}

// Macro exposes the current macroscopic field. It is owned by the field and
// changes on the next step.
func (fd *Field) Macro() *mat.Dense { return fd.macro }

// data is the row-major backing slice of the macroscopic field. The field is
// allocated by mat.NewDense so the stride equals the column count.
func (fd *Field) data() []float64 {
	return fd.macro.RawMatrix().Data
}
