package automation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/thermolb/internal/config"
	"github.com/san-kum/thermolb/internal/experiment"
	"github.com/san-kum/thermolb/internal/solver"
	"github.com/san-kum/thermolb/internal/storage"
)

var ErrUnknownParam = errors.New("automation: unknown sweep parameter")

// Scenario is a scripted list of runs.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Runs        []RunSpec `yaml:"runs"`

	dir string
}

// RunSpec picks a base configuration (a preset, a config file, or the
// default) and applies overrides on top of it. Overrides use the same keys
// as a config file.
type RunSpec struct {
	Name      string    `yaml:"name"`
	Preset    string    `yaml:"preset"`
	Config    string    `yaml:"config"`
	Overrides yaml.Node `yaml:"overrides"`
}

// Outcome is one finished scenario run. RunID is empty when nothing was
// saved.
type Outcome struct {
	Name   string
	RunID  string
	Result *solver.Result
}

// LoadScenario loads a scenario from a YAML file. Relative config paths in
// the scenario resolve against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s: no runs", path)
	}
	scenario.dir = filepath.Dir(path)

	return &scenario, nil
}

// Resolve builds the file-level config for a run.
func (r RunSpec) Resolve(dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case r.Preset != "" && r.Config != "":
		return nil, fmt.Errorf("run %q: preset and config are exclusive", r.Name)
	case r.Preset != "":
		cfg, err = config.Resolve(r.Preset)
	case r.Config != "":
		path := r.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		cfg, err = config.Load(path)
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}
	if r.Overrides.Kind != 0 {
		if err := r.Overrides.Decode(cfg); err != nil {
			return nil, fmt.Errorf("run %q overrides: %w", r.Name, err)
		}
	}
	return cfg, nil
}

func (r RunSpec) label(i int) string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Preset != "":
		return r.Preset
	case r.Config != "":
		return strings.TrimSuffix(filepath.Base(r.Config), filepath.Ext(r.Config))
	}
	return fmt.Sprintf("run-%d", i+1)
}

// RunScenario executes the runs in order and saves each to store when store
// is non-nil. It stops at the first run that cannot be built or is
// cancelled; a run ending in a non-converged state is still recorded.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, spec := range scenario.Runs {
		name := spec.label(i)
		log.Printf("Running %d/%d: %s", i+1, len(scenario.Runs), name)

		cfg, err := spec.Resolve(scenario.dir)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil && !errors.Is(err, solver.ErrDiverged) {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := Outcome{Name: name, Result: result}
		if store != nil {
			out.RunID, err = store.Save(storage.RunInfo{Solver: cfg.Solver, Preset: name, Config: exp.Config()}, result)
			if err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// Sweep runs one configuration across values of a single parameter.
type Sweep struct {
	Base    *config.Config
	Param   string
	Values  []float64
	Workers int
}

// Span returns n evenly spaced values from lo to hi inclusive.
func Span(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

type SweepResult struct {
	Value  float64
	Result *solver.Result
}

// ApplyParam sets a named parameter on cfg. Relaxation parameters replace
// whichever of diffusivity, tau or omega was set before.
func ApplyParam(cfg *config.Config, param string, v float64) error {
	switch strings.ToLower(param) {
	case "tau":
		cfg.Relaxation = config.RelaxationConfig{Tau: v}
	case "omega":
		cfg.Relaxation = config.RelaxationConfig{Omega: v}
	case "diffusivity", "alpha":
		cfg.Relaxation = config.RelaxationConfig{Diffusivity: v}
	case "u":
		cfg.Velocity.U = v
	case "v":
		cfg.Velocity.V = v
	case "initial":
		cfg.Initial = v
	case "tolerance":
		cfg.Tolerance = v
	case "nx":
		cfg.Grid.NX = int(v)
	case "ny":
		cfg.Grid.NY = int(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, param)
	}
	return nil
}

// RunSweep runs every value concurrently. Results come back in value
// order. A member that could not be built has a nil Result; every member
// failure is part of the joined error.
func RunSweep(ctx context.Context, sweep *Sweep, registry *experiment.Registry) ([]SweepResult, error) {
	factory, err := registry.Factory(sweep.Base.Solver)
	if err != nil {
		return nil, err
	}

	configs := make([]solver.Config, len(sweep.Values))
	for i, v := range sweep.Values {
		c := *sweep.Base
		if err := ApplyParam(&c, sweep.Param, v); err != nil {
			return nil, err
		}
		if configs[i], err = c.SolverConfig(); err != nil {
			return nil, err
		}
	}

	transient := sweep.Base.Transient
	results, err := solver.NewEnsemble(factory, configs).
		WithWorkers(sweep.Workers).
		WithMetrics(func() []solver.Metric { return registry.DefaultMetrics(transient) }).
		Run(ctx)

	out := make([]SweepResult, len(sweep.Values))
	for i, v := range sweep.Values {
		out[i] = SweepResult{Value: v, Result: results[i]}
	}
	return out, err
}

// MonteCarloConfig perturbs the uniform initial value. The converged field
// of a well-posed problem does not depend on where it started, so the
// trials measure how far the tolerance lets runs disagree.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	Trial      int
	Initial    float64
	State      solver.State
	Iterations int
	// Deviation is the RMS difference from the unperturbed reference run.
	Deviation float64
}

// RunMonteCarlo runs an unperturbed reference plus cfg.Trials perturbed
// copies.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("monte carlo: need at least one trial")
	}
	factory, err := registry.Factory(cfg.Base.Solver)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	initials := make([]float64, cfg.Trials+1)
	configs := make([]solver.Config, cfg.Trials+1)
	for i := range configs {
		c := *cfg.Base
		if i > 0 {
			c.Initial += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		}
		initials[i] = c.Initial
		if configs[i], err = c.SolverConfig(); err != nil {
			return nil, err
		}
	}

	results, err := solver.NewEnsemble(factory, configs).WithWorkers(cfg.Workers).Run(ctx)
	if results[0] == nil {
		return nil, fmt.Errorf("monte carlo reference: %w", err)
	}
	ref := results[0].Field

	out := make([]MonteCarloResult, 0, cfg.Trials)
	for trial := 1; trial <= cfg.Trials; trial++ {
		res := results[trial]
		if res == nil {
			continue
		}
		out = append(out, MonteCarloResult{
			Trial:      trial,
			Initial:    initials[trial],
			State:      res.State,
			Iterations: res.Iterations,
			Deviation:  rmsDiff(ref, res.Field),
		})
		if trial%10 == 0 {
			log.Printf("Monte Carlo: %d/%d trials complete", trial, cfg.Trials)
		}
	}
	return out, err
}

func rmsDiff(a, b *mat.Dense) float64 {
	var d mat.Dense
	d.Sub(a, b)
	r, c := d.Dims()
	return mat.Norm(&d, 2) / math.Sqrt(float64(r*c))
}

// MonteCarloStats counts converged trials and reports the worst deviation.
func MonteCarloStats(results []MonteCarloResult) (converged, other int, worst float64) {
	for _, r := range results {
		if r.State == solver.Converged {
			converged++
		} else {
			other++
		}
		worst = math.Max(worst, r.Deviation)
	}
	return
}
