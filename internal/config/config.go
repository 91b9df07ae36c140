package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/thermolb/internal/convergence"
	"github.com/san-kum/thermolb/internal/lattice"
	"github.com/san-kum/thermolb/internal/solver"
)

const (
	DefaultSolver        = "lbm"
	DefaultModel         = "d2q5"
	DefaultNX            = 41
	DefaultNY            = 21
	DefaultDiffusivity   = 0.01
	DefaultInitial       = 30.0
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 10000
	DefaultProgressEvery = 100
	DefaultTransient     = 100
)

// Config is the file form of a run. Strings are resolved into typed values
// by SolverConfig.
type Config struct {
	Solver           string           `yaml:"solver"`
	Model            string           `yaml:"model"`
	Grid             GridConfig       `yaml:"grid"`
	Velocity         VelocityConfig   `yaml:"velocity"`
	Relaxation       RelaxationConfig `yaml:"relaxation"`
	Spacing          float64          `yaml:"spacing"`
	TimeStep         float64          `yaml:"time_step"`
	Boundary         BoundaryConfig   `yaml:"boundary"`
	Initial          float64          `yaml:"initial"`
	Tolerance        float64          `yaml:"tolerance"`
	MaxIterations    int              `yaml:"max_iterations"`
	Norm             string           `yaml:"norm"`
	ProgressEvery    int              `yaml:"progress_every"`
	DivergenceMargin float64          `yaml:"divergence_margin,omitempty"`
	Transient        int              `yaml:"transient"`
}

type GridConfig struct {
	NX int `yaml:"nx"`
	NY int `yaml:"ny"`
}

type VelocityConfig struct {
	U float64 `yaml:"u"`
	V float64 `yaml:"v"`
}

// RelaxationConfig carries exactly one of its three fields.
type RelaxationConfig struct {
	Diffusivity float64 `yaml:"diffusivity,omitempty"`
	Tau         float64 `yaml:"tau,omitempty"`
	Omega       float64 `yaml:"omega,omitempty"`
}

// UnmarshalYAML replaces the defaults wholesale, so a file that sets tau
// does not inherit the default diffusivity.
func (r *RelaxationConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RelaxationConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RelaxationConfig(p)
	return nil
}

type BoundaryConfig struct {
	Top    EdgeConfig `yaml:"top"`
	Bottom EdgeConfig `yaml:"bottom"`
	Left   EdgeConfig `yaml:"left"`
	Right  EdgeConfig `yaml:"right"`
}

type EdgeConfig struct {
	Kind       string  `yaml:"kind"`
	Value      float64 `yaml:"value,omitempty"`
	Correction string  `yaml:"correction,omitempty"`
}

func (e *EdgeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain EdgeConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = EdgeConfig(p)
	return nil
}

func Fixed(v float64) EdgeConfig     { return EdgeConfig{Kind: "fixed", Value: v} }
func Advective(v float64) EdgeConfig { return EdgeConfig{Kind: "fixed", Value: v, Correction: "advective"} }
func Open() EdgeConfig               { return EdgeConfig{Kind: "open"} }

func DefaultConfig() *Config {
	return &Config{
		Solver:     DefaultSolver,
		Model:      DefaultModel,
		Grid:       GridConfig{NX: DefaultNX, NY: DefaultNY},
		Velocity:   VelocityConfig{U: 0.05},
		Relaxation: RelaxationConfig{Diffusivity: DefaultDiffusivity},
		Spacing:    1,
		TimeStep:   1,
		Boundary: BoundaryConfig{
			Top:    Fixed(60),
			Bottom: Fixed(60),
			Left:   Advective(30),
			Right:  Open(),
		},
		Initial:       DefaultInitial,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Norm:          "rms",
		ProgressEvery: DefaultProgressEvery,
		Transient:     DefaultTransient,
	}
}

func Load(path string) (*Config, error) {
	return Overlay(path, DefaultConfig())
}

// Overlay decodes a YAML file on top of an existing configuration, the way a
// --config file refines a --preset.
func Overlay(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SolverConfig resolves the file form into a typed solver configuration.
// Unknown names come back as *solver.ConfigError.
func (c *Config) SolverConfig() (solver.Config, error) {
	norm, err := convergence.ParseNorm(c.Norm)
	if err != nil {
		return solver.Config{}, &solver.ConfigError{Field: "norm", Reason: err.Error(), Err: solver.ErrInvalidParameter}
	}
	var spec lattice.BoundarySpec
	edges := map[lattice.Edge]EdgeConfig{
		lattice.Top:    c.Boundary.Top,
		lattice.Bottom: c.Boundary.Bottom,
		lattice.Left:   c.Boundary.Left,
		lattice.Right:  c.Boundary.Right,
	}
	for _, e := range lattice.Edges {
		es, err := edges[e].spec()
		if err != nil {
			return solver.Config{}, &solver.ConfigError{
				Field:  "boundary." + e.String(),
				Reason: err.Error(),
				Err:    solver.ErrInvalidBoundary,
			}
		}
		switch e {
		case lattice.Top:
			spec.Top = es
		case lattice.Bottom:
			spec.Bottom = es
		case lattice.Left:
			spec.Left = es
		case lattice.Right:
			spec.Right = es
		}
	}
	return solver.Config{
		NX:    c.Grid.NX,
		NY:    c.Grid.NY,
		Model: c.Model,
		Velocity: lattice.Vector{
			X: c.Velocity.U,
			Y: c.Velocity.V,
		},
		Relaxation: solver.Relaxation{
			Diffusivity: c.Relaxation.Diffusivity,
			Tau:         c.Relaxation.Tau,
			Omega:       c.Relaxation.Omega,
		},
		Spacing:          c.Spacing,
		TimeStep:         c.TimeStep,
		Boundary:         spec,
		Initial:          c.Initial,
		Tolerance:        c.Tolerance,
		MaxIterations:    c.MaxIterations,
		Norm:             norm,
		ProgressEvery:    c.ProgressEvery,
		DivergenceMargin: c.DivergenceMargin,
	}, nil
}

func (e EdgeConfig) spec() (lattice.EdgeSpec, error) {
	kind, err := lattice.ParseKind(e.Kind)
	if err != nil {
		return lattice.EdgeSpec{}, err
	}
	corr, err := lattice.ParseCorrection(e.Correction)
	if err != nil {
		return lattice.EdgeSpec{}, err
	}
	return lattice.EdgeSpec{Kind: kind, Value: e.Value, Correction: corr}, nil
}
