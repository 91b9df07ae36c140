package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/thermolb/internal/config"
	"github.com/san-kum/thermolb/internal/experiment"
	"github.com/san-kum/thermolb/internal/solver"
	"github.com/san-kum/thermolb/internal/storage"
)

const scenarioYAML = `name: smoke
description: short runs
runs:
  - preset: d2q5/scenario-d
  - name: short-a
    preset: d2q5/scenario-a
    overrides:
      max_iterations: 3
  - config: base.yaml
    overrides:
      grid:
        nx: 6
      max_iterations: 5
`

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	base := config.DefaultConfig()
	base.Grid = config.GridConfig{NX: 9, NY: 7}
	require.NoError(t, config.Save(filepath.Join(dir, "base.yaml"), base))

	path := filepath.Join(dir, "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	require.NoError(t, err)
	require.Len(t, sc.Runs, 3)

	store := storage.New(t.TempDir())
	require.NoError(t, store.Init())

	out, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "d2q5/scenario-d", out[0].Name)
	assert.Equal(t, 1, out[0].Result.Iterations)
	assert.Equal(t, solver.MaxIterationsExceeded, out[0].Result.State)

	assert.Equal(t, "short-a", out[1].Name)
	assert.Equal(t, 3, out[1].Result.Iterations)

	assert.Equal(t, "base", out[2].Name)
	rows, cols := out[2].Result.Field.Dims()
	assert.Equal(t, 7, rows)
	assert.Equal(t, 6, cols)
	assert.Equal(t, 5, out[2].Result.Iterations)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	for _, o := range out {
		assert.NotEmpty(t, o.RunID)
	}
}

func TestRunScenarioWithoutStore(t *testing.T) {
	sc := &Scenario{Runs: []RunSpec{{Preset: "d2q5/scenario-d"}}}
	out, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].RunID)
	assert.Equal(t, "d2q5/scenario-d", out[0].Name)
}

func TestRunScenarioBadPreset(t *testing.T) {
	sc := &Scenario{Runs: []RunSpec{{Preset: "d2q5/missing"}}}
	_, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nothing\n"), 0644))
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestOverridesReplaceRelaxation(t *testing.T) {
	sc := &Scenario{}
	src := "runs:\n  - preset: d2q5/scenario-a\n    overrides:\n      relaxation:\n        tau: 0.8\n"
	require.NoError(t, yaml.Unmarshal([]byte(src), sc))

	cfg, err := sc.Runs[0].Resolve("")
	require.NoError(t, err)
	assert.Equal(t, config.RelaxationConfig{Tau: 0.8}, cfg.Relaxation)
	assert.Equal(t, 5, cfg.Grid.NX)

	_, err = RunSpec{Preset: "d2q5/scenario-a", Config: "x.yaml"}.Resolve("")
	assert.Error(t, err)
}

func TestApplyParam(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, ApplyParam(cfg, "tau", 0.7))
	assert.Equal(t, config.RelaxationConfig{Tau: 0.7}, cfg.Relaxation)

	require.NoError(t, ApplyParam(cfg, "NX", 12))
	assert.Equal(t, 12, cfg.Grid.NX)

	assert.ErrorIs(t, ApplyParam(cfg, "viscosity", 1), ErrUnknownParam)
}

func TestSpan(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.6, 0.8, 1.0}, Span(0.6, 1.0, 3), 1e-12)
	assert.Equal(t, []float64{2}, Span(2, 5, 1))
}

func TestRunSweepTau(t *testing.T) {
	base := config.DefaultConfig()
	base.Grid = config.GridConfig{NX: 9, NY: 7}

	out, err := RunSweep(context.Background(), &Sweep{
		Base:    base,
		Param:   "tau",
		Values:  []float64{0.6, 0.8, 1.0},
		Workers: 2,
	}, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i, r := range out {
		require.NotNil(t, r.Result)
		assert.Equal(t, solver.Converged, r.Result.State, "tau %g", r.Value)
		assert.Contains(t, r.Result.Metrics, "mean")
		if i > 0 {
			assert.Less(t, r.Result.Iterations, out[i-1].Result.Iterations)
		}
	}
}

func TestRunSweepUnstableMember(t *testing.T) {
	base := config.GetPreset("d2q5", "scenario-a")
	out, err := RunSweep(context.Background(), &Sweep{
		Base:   base,
		Param:  "tau",
		Values: []float64{0.5, 0.8},
	}, experiment.NewRegistry())
	assert.ErrorIs(t, err, solver.ErrUnstableRelaxation)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Result)
	require.NotNil(t, out[1].Result)
	assert.Equal(t, solver.Converged, out[1].Result.State)
}

func TestRunSweepUnknownParam(t *testing.T) {
	_, err := RunSweep(context.Background(), &Sweep{
		Base:   config.DefaultConfig(),
		Param:  "viscosity",
		Values: []float64{1},
	}, experiment.NewRegistry())
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestRunMonteCarlo(t *testing.T) {
	base := config.GetPreset("d2q5", "scenario-a")
	out, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Base:         base,
		Perturbation: 5,
		Trials:       3,
		Seed:         1,
	}, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, out, 3)

	converged, other, worst := MonteCarloStats(out)
	assert.Equal(t, 3, converged)
	assert.Zero(t, other)
	assert.Less(t, worst, 0.05)
	for _, r := range out {
		assert.InDelta(t, 30, r.Initial, 5)
	}

	_, err = RunMonteCarlo(context.Background(), &MonteCarloConfig{Base: base}, experiment.NewRegistry())
	assert.Error(t, err)
}
