package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/thermolb/internal/automation"
	"github.com/san-kum/thermolb/internal/config"
	"github.com/san-kum/thermolb/internal/experiment"
	"github.com/san-kum/thermolb/internal/solver"
	"github.com/san-kum/thermolb/internal/storage"
	"github.com/san-kum/thermolb/internal/viz"
)

// loadConfig resolves the preset argument, overlays --config and then any
// override flag the user set. The returned name labels the run.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "default"
	if len(args) == 1 {
		var err error
		if cfg, err = config.Resolve(args[0]); err != nil {
			return nil, "", err
		}
		name = args[0]
	}

	if configFile != "" {
		var err error
		if cfg, err = config.Overlay(configFile, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) == 0 {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("solver") {
		cfg.Solver = solverName
	}
	if flags.Changed("norm") {
		cfg.Norm = normName
	}
	if flags.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	numeric := []struct {
		flag, param string
		value       float64
	}{
		{"nx", "nx", float64(nx)},
		{"ny", "ny", float64(ny)},
		{"tau", "tau", tau},
		{"omega", "omega", omega},
		{"diffusivity", "diffusivity", alpha},
		{"u", "u", velU},
		{"v", "v", velV},
		{"initial", "initial", initial},
		{"tol", "tolerance", tolerance},
	}
	for _, o := range numeric {
		if !flags.Changed(o.flag) {
			continue
		}
		if err := automation.ApplyParam(cfg, o.param, o.value); err != nil {
			return nil, "", err
		}
	}
	return cfg, name, nil
}

// interruptible cancels on Ctrl-C so long runs stop between iterations.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func logProgress(s *solver.Solver) {
	if quiet {
		return
	}
	s.AddObserver(solver.ObserverFunc(func(p solver.Progress) {
		log.Printf("iteration %d: change %.3e, field %.3f..%.3f", p.Iteration, p.Change, p.Min, p.Max)
	}))
}

func runSolver(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}
	logProgress(exp.Solver())

	ctx, cancel := interruptible()
	defer cancel()

	sc := exp.Config()
	fmt.Printf("running %s %s on %dx%d (%s)...\n", cfg.Solver, sc.Model, sc.NX, sc.NY, name)
	result, runErr := exp.Run(ctx)
	if runErr != nil && !errors.Is(runErr, solver.ErrDiverged) {
		return runErr
	}

	runID, err := st.Save(storage.RunInfo{Solver: cfg.Solver, Preset: name, Config: sc}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("state: %s after %d iterations (change %.3e)\n", result.State, result.Iterations, result.Change)
	printMetrics(result.Metrics)
	return runErr
}

func printMetrics(metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-14s %.6f\n", name, metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}
	return viz.Run(exp.Solver(), name, speed, gifOut)
}
