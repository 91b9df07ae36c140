package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Monotonic is the fraction of post-transient iterations whose change did
// not grow relative to the previous iteration. A well-posed run settles at
// 1.0.
type Monotonic struct {
	name       string
	transient  int
	prev       float64
	haveprev   bool
	violations int
	samples    int
}

func NewMonotonic(transient int) *Monotonic {
	return &Monotonic{
		name:      "monotonic",
		transient: max(transient, 0),
	}
}

func (m *Monotonic) Name() string {
	return m.name
}

func (m *Monotonic) Observe(iteration int, _ mat.Matrix, change float64) {
	if iteration <= m.transient {
		return
	}
	if m.haveprev {
		m.samples++
		if change > m.prev {
			m.violations++
		}
	}
	m.prev = change
	m.haveprev = true
}

func (m *Monotonic) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *Monotonic) Reset() {
	m.prev = 0
	m.haveprev = false
	m.violations = 0
	m.samples = 0
}

// DecayRate is the geometric mean ratio between consecutive post-transient
// changes. Values below one mean the run is contracting; the closer to zero,
// the faster.
type DecayRate struct {
	name      string
	transient int
	first     float64
	last      float64
	steps     int
}

func NewDecayRate(transient int) *DecayRate {
	return &DecayRate{
		name:      "decay_rate",
		transient: max(transient, 0),
	}
}

func (d *DecayRate) Name() string { return d.name }

func (d *DecayRate) Observe(iteration int, _ mat.Matrix, change float64) {
	if iteration <= d.transient || !(change > 0) || math.IsInf(change, 0) {
		return
	}
	if d.first == 0 {
		d.first = change
	} else {
		d.steps++
	}
	d.last = change
}

func (d *DecayRate) Value() float64 {
	if d.steps == 0 {
		return 0
	}
	return math.Exp((math.Log(d.last) - math.Log(d.first)) / float64(d.steps))
}

func (d *DecayRate) Reset() {
	d.first = 0
	d.last = 0
	d.steps = 0
}
