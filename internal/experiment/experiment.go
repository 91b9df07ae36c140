package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/thermolb/internal/config"
	"github.com/san-kum/thermolb/internal/solver"
)

// Experiment is one configured run: a file-level config resolved through
// the registry into a solver with the default metrics attached.
type Experiment struct {
	name   string
	cfg    solver.Config
	solver *solver.Solver
}

func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	sc, err := cfg.SolverConfig()
	if err != nil {
		return nil, err
	}
	s, err := reg.Build(cfg.Solver, sc)
	if err != nil {
		return nil, err
	}
	for _, m := range reg.DefaultMetrics(cfg.Transient) {
		s.AddMetric(m)
	}
	return &Experiment{name: cfg.Solver, cfg: sc, solver: s}, nil
}

func (e *Experiment) Run(ctx context.Context) (*solver.Result, error) {
	if e.solver == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	return e.solver.Run(ctx)
}

// Name is the registry name of the solver.
func (e *Experiment) Name() string { return e.name }

func (e *Experiment) Config() solver.Config { return e.cfg }

// Solver returns the underlying solver for adding observers or stepping.
func (e *Experiment) Solver() *solver.Solver { return e.solver }
