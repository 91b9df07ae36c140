package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mean is the average of the most recently observed field.
type Mean struct {
	name  string
	value float64
}

func NewMean() *Mean {
	return &Mean{name: "mean"}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(_ int, field mat.Matrix, _ float64) {
	r, c := field.Dims()
	m.value = mat.Sum(field) / float64(r*c)
}

func (m *Mean) Value() float64 { return m.value }

func (m *Mean) Reset() { m.value = 0 }

// InteriorMean averages only the cells off the boundary layer.
type InteriorMean struct {
	name  string
	value float64
}

func NewInteriorMean() *InteriorMean {
	return &InteriorMean{name: "interior_mean"}
}

func (m *InteriorMean) Name() string { return m.name }

func (m *InteriorMean) Observe(_ int, field mat.Matrix, _ float64) {
	r, c := field.Dims()
	if r < 3 || c < 3 {
		m.value = 0
		return
	}
	sum := 0.0
	for i := 1; i < r-1; i++ {
		for j := 1; j < c-1; j++ {
			sum += field.At(i, j)
		}
	}
	m.value = sum / float64((r-2)*(c-2))
}

func (m *InteriorMean) Value() float64 { return m.value }

func (m *InteriorMean) Reset() { m.value = 0 }

// Range is max - min of the most recently observed field.
type Range struct {
	name  string
	value float64
}

func NewRange() *Range {
	return &Range{name: "range"}
}

func (m *Range) Name() string { return m.name }

func (m *Range) Observe(_ int, field mat.Matrix, _ float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	r, c := field.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := field.At(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	m.value = hi - lo
}

func (m *Range) Value() float64 { return m.value }

func (m *Range) Reset() { m.value = 0 }
