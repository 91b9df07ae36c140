package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/thermolb/internal/convergence"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solver drives a Kernel to a terminal State. One instance owns one grid and
// is not safe for concurrent use; independent instances share nothing.
type Solver struct {
	cfg       Config
	kernel    Kernel
	monitor   *convergence.Monitor
	lo, hi    float64
	metrics   []Metric
	observers []Observer

	state     State
	iteration int
	change    float64
	prev      *mat.Dense
	history   []float64
	elapsed   time.Duration
}

// New validates cfg and builds a lattice Boltzmann solver for it.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := newLBMKernel(cfg)
	if err != nil {
		return nil, err
	}
	return newSolver(cfg, k)
}

// NewWithKernel wraps an arbitrary kernel in the solver state machine. Only
// the domain settings of cfg are validated; the kernel owns its own physics.
func NewWithKernel(cfg Config, k Kernel) (*Solver, error) {
	if err := cfg.ValidateDomain(); err != nil {
		return nil, err
	}
	if r, c := k.Field().Dims(); r != cfg.NY || c != cfg.NX {
		return nil, configErr("grid", ErrInvalidGrid, "kernel field is %dx%d, config %dx%d", r, c, cfg.NY, cfg.NX)
	}
	return newSolver(cfg, k)
}

func newSolver(cfg Config, k Kernel) (*Solver, error) {
	mon, err := convergence.NewMonitor(cfg.Norm, cfg.Tolerance)
	if err != nil {
		return nil, configErr("tolerance", ErrInvalidTolerance, "%v", err)
	}
	s := &Solver{
		cfg:     cfg,
		kernel:  k,
		monitor: mon,
		prev:    mat.NewDense(cfg.NY, cfg.NX, nil),
		history: make([]float64, 0, min(cfg.MaxIterations, 4096)),
	}
	s.lo, s.hi = cfg.Bounds()
	s.change = math.Inf(1)
	return s, nil
}

func (s *Solver) AddMetric(m Metric) {
	m.Reset()
	s.metrics = append(s.metrics, m)
}

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Config() Config     { return s.cfg }
func (s *Solver) State() State       { return s.state }
func (s *Solver) Iteration() int     { return s.iteration }
func (s *Solver) Change() float64    { return s.change }
func (s *Solver) History() []float64 { return s.history }

// Field is the live macroscopic field. It changes on the next Step.
func (s *Solver) Field() *mat.Dense { return s.kernel.Field() }

// Step runs one iteration and updates the state. Calling Step on a solver
// in a terminal state returns ErrNotRunning.
func (s *Solver) Step() error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: state is %s", ErrNotRunning, s.state)
	}
	start := time.Now()
	defer func() { s.elapsed += time.Since(start) }()

	s.prev.Copy(s.kernel.Field())
	if err := s.kernel.Advance(); err != nil {
		return err
	}
	s.iteration++

	field := s.kernel.Field()
	if err := s.checkBounds(field); err != nil {
		s.state = Diverged
		return err
	}

	change, converged, err := s.monitor.Check(s.prev, field)
	if err != nil {
		return err
	}
	s.change = change
	s.history = append(s.history, change)

	for _, m := range s.metrics {
		m.Observe(s.iteration, field, change)
	}
	if s.cfg.ProgressEvery > 0 && s.iteration%s.cfg.ProgressEvery == 0 {
		s.notify(field)
	}

	switch {
	case converged:
		s.state = Converged
	case s.iteration >= s.cfg.MaxIterations:
		s.state = MaxIterationsExceeded
	}
	return nil
}

// Run steps until a terminal state is reached. The context is checked
// between iterations; on cancellation the partial result is returned with
// ctx.Err() and the state stays Running.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	for !s.state.Terminal() {
		select {
		case <-ctx.Done():
			return s.Result(), ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}

// Result snapshots the current field, counters and metric values.
func (s *Solver) Result() *Result {
	res := &Result{
		Field:      mat.DenseCopyOf(s.kernel.Field()),
		Iterations: s.iteration,
		State:      s.state,
		Change:     s.change,
		History:    append([]float64(nil), s.history...),
		Metrics:    make(map[string]float64, len(s.metrics)),
		Elapsed:    s.elapsed,
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}

// Reset rewinds the solver to iteration zero with its initial field. If the
// kernel cannot be reset the solver is left as it was.
func (s *Solver) Reset() error {
	if err := s.kernel.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.state = Running
	s.iteration = 0
	s.change = math.Inf(1)
	s.history = s.history[:0]
	s.elapsed = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	return nil
}

func (s *Solver) checkBounds(field *mat.Dense) error {
	rows, cols := field.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := field.At(r, c)
			if math.IsNaN(v) || v < s.lo || v > s.hi {
				return &DivergenceError{
					Iteration: s.iteration,
					Row:       r,
					Col:       c,
					Value:     v,
					Lo:        s.lo,
					Hi:        s.hi,
				}
			}
		}
	}
	return nil
}

func (s *Solver) notify(field *mat.Dense) {
	if len(s.observers) == 0 {
		return
	}
	data := mat.DenseCopyOf(field).RawMatrix().Data
	p := Progress{
		Iteration: s.iteration,
		Change:    s.change,
		Min:       floats.Min(data),
		Max:       floats.Max(data),
	}
	for _, o := range s.observers {
		o.OnProgress(p)
	}
}
