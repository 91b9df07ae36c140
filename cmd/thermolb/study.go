package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/thermolb/internal/automation"
	"github.com/san-kum/thermolb/internal/experiment"
	"github.com/san-kum/thermolb/internal/fdm"
	"github.com/san-kum/thermolb/internal/solver"
	"github.com/san-kum/thermolb/internal/storage"
)

func compareSolvers(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sch, err := fdm.ParseScheme(scheme)
	if err != nil {
		return err
	}
	sc, err := cfg.SolverConfig()
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	builders := []struct {
		label string
		build func() (*solver.Solver, error)
	}{
		{"lbm " + sc.Model, func() (*solver.Solver, error) { return solver.New(sc) }},
		{"fd " + sch.String(), func() (*solver.Solver, error) { return fdm.New(sc, sch) }},
	}

	fmt.Printf("comparing solvers on %s (%dx%d)\n\n", name, sc.NX, sc.NY)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tSTATE\tITERS\tCHANGE\tTIME")
	results := make([]*solver.Result, len(builders))
	for i, b := range builders {
		s, err := b.build()
		if err != nil {
			return fmt.Errorf("%s: %w", b.label, err)
		}
		res, err := s.Run(ctx)
		if err != nil && !errors.Is(err, solver.ErrDiverged) {
			return fmt.Errorf("%s: %w", b.label, err)
		}
		results[i] = res
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2e\t%v\n", b.label, res.State, res.Iterations, res.Change, res.Elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	a := results[0].Field.RawMatrix().Data
	b := results[1].Field.RawMatrix().Data
	fmt.Printf("\nrms difference: %.4f\n", floats.Distance(a, b, 2)/math.Sqrt(float64(len(a))))
	fmt.Printf("max difference: %.4f\n", floats.Distance(a, b, math.Inf(1)))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tauList) > 0 {
		param, values = "tau", tauList
	}
	if len(values) == 0 {
		return fmt.Errorf("sweep: no values (use --values or --taus)")
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("sweeping %s over %v on %s\n\n", param, values, name)
	out, runErr := automation.RunSweep(ctx, &automation.Sweep{
		Base:    cfg,
		Param:   param,
		Values:  values,
		Workers: workers,
	}, experiment.NewRegistry())
	if out == nil {
		return runErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTATE\tITERS\tCHANGE\tMONOTONIC\tRUN ID\n", param)
	for _, r := range out {
		if r.Result == nil {
			fmt.Fprintf(w, "%g\tfailed\t-\t-\t-\t-\n", r.Value)
			continue
		}
		c := *cfg
		if err := automation.ApplyParam(&c, param, r.Value); err != nil {
			return err
		}
		sc, err := c.SolverConfig()
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%s %s=%g", name, param, r.Value)
		runID, err := st.Save(storage.RunInfo{Solver: c.Solver, Preset: label, Config: sc}, r.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%g\t%s\t%d\t%.2e\t%.3f\t%s\n",
			r.Value, r.Result.State, r.Result.Iterations, r.Result.Change, r.Result.Metrics["monotonic"], runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	out, runErr := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tITERS\tCHANGE\tRUN ID")
	for _, o := range out {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2e\t%s\n", o.Name, o.Result.State, o.Result.Iterations, o.Result.Change, o.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	factory, err := reg.Factory(cfg.Solver)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%s)\n\n", name, cfg.Solver)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tITERS\tTIME\tITERS/SEC\tMLUPS")
	for _, scale := range []int{1, 2, 4} {
		c := *cfg
		c.Grid.NX *= scale
		c.Grid.NY *= scale
		c.MaxIterations = benchIters
		c.Tolerance = math.SmallestNonzeroFloat64
		c.ProgressEvery = 0
		sc, err := c.SolverConfig()
		if err != nil {
			return err
		}
		s, err := factory(sc)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := s.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		rate := float64(res.Iterations) / elapsed.Seconds()
		mlups := rate * float64(sc.NX*sc.NY) / 1e6
		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.0f\t%.2f\n", sc.NX, sc.NY, res.Iterations, elapsed, rate, mlups)
	}
	return w.Flush()
}

func runPerturb(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("perturbing the initial value of %s by up to %g over %d trials\n\n", name, perturb, trials)
	out, runErr := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		Trials:       trials,
		Seed:         seed,
		Workers:      workers,
	}, experiment.NewRegistry())
	if out == nil {
		return runErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tINITIAL\tSTATE\tITERS\tRMS DEVIATION")
	for _, r := range out {
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%d\t%.2e\n", r.Trial, r.Initial, r.State, r.Iterations, r.Deviation)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	converged, other, worst := automation.MonteCarloStats(out)
	fmt.Printf("\nconverged: %d  other: %d  worst deviation: %.2e\n", converged, other, worst)
	return runErr
}
