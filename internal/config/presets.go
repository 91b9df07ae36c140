package config

import (
	"fmt"
	"sort"
	"strings"
)

func scenarioA() *Config {
	return &Config{
		Solver: "lbm", Model: "d2q5", Grid: GridConfig{NX: 5, NY: 5},
		Relaxation: RelaxationConfig{Diffusivity: 0.01}, Spacing: 1, TimeStep: 1,
		Boundary: BoundaryConfig{Top: Fixed(60), Bottom: Fixed(60), Left: Advective(30), Right: Open()},
		Initial: 30, Tolerance: 1e-4, MaxIterations: 2000, Norm: "rms", ProgressEvery: 50, Transient: 50,
	}
}

func with(c *Config, fn func(*Config)) *Config {
	fn(c)
	return c
}

// Presets groups named configurations by family: d2q5 and d2q9 for the
// lattice Boltzmann solver, fd for the finite-difference comparator.
var Presets = map[string]map[string]*Config{
	"d2q5": {
		"scenario-a": scenarioA(),
		"scenario-b": with(scenarioA(), func(c *Config) { c.Velocity.U = 0.05 }),
		"scenario-d": with(scenarioA(), func(c *Config) { c.MaxIterations = 1 }),
		"linear": with(scenarioA(), func(c *Config) {
			c.Boundary = BoundaryConfig{Top: Fixed(60), Bottom: Fixed(30), Left: Open(), Right: Open()}
		}),
		"channel": DefaultConfig(),
	},
	"d2q9": {
		"plate": {
			Solver: "lbm", Model: "d2q9", Grid: GridConfig{NX: 50, NY: 50},
			Relaxation: RelaxationConfig{Omega: 1}, Spacing: 1, TimeStep: 1,
			Boundary: BoundaryConfig{Top: Fixed(30), Bottom: Fixed(60), Left: Fixed(30), Right: Fixed(30)},
			Initial: 30, Tolerance: 1e-4, MaxIterations: 10000, Norm: "max", ProgressEvery: 500, Transient: 100,
		},
		"small-plate": {
			Solver: "lbm", Model: "d2q9", Grid: GridConfig{NX: 12, NY: 12},
			Relaxation: RelaxationConfig{Omega: 1}, Spacing: 1, TimeStep: 1,
			Boundary: BoundaryConfig{Top: Fixed(30), Bottom: Fixed(60), Left: Fixed(30), Right: Fixed(30)},
			Initial: 30, Tolerance: 1e-4, MaxIterations: 2000, Norm: "max", ProgressEvery: 50, Transient: 20,
		},
	},
	"fd": {
		"channel": {
			Solver: "fd-explicit", Model: "d2q5", Grid: GridConfig{NX: 41, NY: 21},
			Velocity: VelocityConfig{U: 1}, Relaxation: RelaxationConfig{Diffusivity: 0.01},
			Spacing: 0.05, TimeStep: 0.001,
			Boundary: BoundaryConfig{Top: Fixed(60), Bottom: Fixed(60), Left: Fixed(30), Right: Open()},
			Initial: 30, Tolerance: 1e-4, MaxIterations: 10000, Norm: "rms", ProgressEvery: 500, Transient: 100,
		},
		"plate": {
			Solver: "fd-jacobi", Model: "d2q5", Grid: GridConfig{NX: 50, NY: 50},
			Spacing: 1, TimeStep: 1,
			Boundary: BoundaryConfig{Top: Fixed(30), Bottom: Fixed(60), Left: Fixed(30), Right: Fixed(30)},
			Initial: 0, Tolerance: 1e-4, MaxIterations: 20000, Norm: "max", ProgressEvery: 500, Transient: 100,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// ListPresets returns the preset names of a group in sorted order.
func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListGroups returns the preset families in sorted order.
func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Resolve looks up a "group/name" reference such as "d2q5/scenario-a".
func Resolve(ref string) (*Config, error) {
	group, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("preset %q: want group/name (groups: %s)", ref, strings.Join(ListGroups(), ", "))
	}
	cfg := GetPreset(group, name)
	if cfg == nil {
		return nil, fmt.Errorf("preset %q not found (have %s)", ref, strings.Join(ListPresets(group), ", "))
	}
	return cfg, nil
}
