package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/thermolb/internal/fdm"
	"github.com/san-kum/thermolb/internal/metrics"
	"github.com/san-kum/thermolb/internal/solver"
)

// Registry maps solver names to factories.
type Registry struct {
	solvers map[string]solver.Factory
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]solver.Factory),
	}

	r.solvers["lbm"] = solver.New
	r.solvers["fd-explicit"] = func(cfg solver.Config) (*solver.Solver, error) {
		return fdm.New(cfg, fdm.Explicit)
	}
	r.solvers["fd-jacobi"] = func(cfg solver.Config) (*solver.Solver, error) {
		return fdm.New(cfg, fdm.Jacobi)
	}

	return r
}

// Register adds or replaces a named factory.
func (r *Registry) Register(name string, f solver.Factory) {
	r.solvers[name] = f
}

func (r *Registry) Factory(name string) (solver.Factory, error) {
	f, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s (have %v)", name, r.ListSolvers())
	}
	return f, nil
}

func (r *Registry) Build(name string, cfg solver.Config) (*solver.Solver, error) {
	f, err := r.Factory(name)
	if err != nil {
		return nil, err
	}
	return f(cfg)
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh metric set. Convergence-shape metrics
// ignore the first transient iterations.
func (r *Registry) DefaultMetrics(transient int) []solver.Metric {
	return []solver.Metric{
		metrics.NewMean(),
		metrics.NewInteriorMean(),
		metrics.NewRange(),
		metrics.NewMonotonic(transient),
		metrics.NewDecayRate(transient),
	}
}
