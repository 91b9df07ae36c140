package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/thermolb/internal/config"
	"github.com/san-kum/thermolb/internal/experiment"
	"github.com/san-kum/thermolb/internal/solver"
	"github.com/san-kum/thermolb/internal/viz"
)

var (
	dataDir    string
	quiet      bool
	configFile string
	solverName string
	normName   string
	maxIter    int
	nx, ny     int
	tau        float64
	omega      float64
	alpha      float64
	velU       float64
	velV       float64
	initial    float64
	tolerance  float64
	// live view
	speed  int
	gifOut string
	// export
	outPath string
	format  string
	history bool
	// compare
	scheme string
	// sweep
	param   string
	values  []float64
	tauList []float64
	workers int
	// bench
	benchIters int
	// perturb
	trials  int
	perturb float64
	seed    int64
)

// main registers the commands and opens the preset menu when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "thermolb",
		Short: "lattice Boltzmann heat transport lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".thermolb", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a solver to a terminal state and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolver,
	}
	addOverrideFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a stored field, its convergence history and a profile",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the final field to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export field, history and metadata to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a stored field as png, html or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&format, "format", "png", "png, html or svg")
	renderCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <run_id>.<format>)")
	renderCmd.Flags().BoolVar(&history, "history", false, "render the convergence history instead of the field (png, svg)")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "run the lattice Boltzmann and finite-difference solvers on one config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareSolvers,
	}
	addOverrideFlags(compareCmd)
	compareCmd.Flags().StringVar(&scheme, "scheme", "explicit", "finite-difference scheme: explicit or jacobi")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := config.ListGroups()
			if len(args) == 1 {
				groups = args
			}
			for _, g := range groups {
				presets := config.ListPresets(g)
				if len(presets) == 0 {
					fmt.Printf("no presets for group: %s\n", g)
					continue
				}
				fmt.Printf("presets for %s:\n", g)
				for _, p := range presets {
					fmt.Printf("  %-12s %s\n", p, describe(config.GetPreset(g, p)))
				}
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step a solver with a live terminal heatmap",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addOverrideFlags(liveCmd)
	liveCmd.Flags().IntVar(&speed, "speed", 1, "iterations per frame")
	liveCmd.Flags().StringVar(&gifOut, "gif", "thermolb.gif", "where G recordings are written")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one config across parameter values in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addOverrideFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "tau", "parameter to sweep")
	sweepCmd.Flags().Float64SliceVar(&values, "values", nil, "parameter values")
	sweepCmd.Flags().Float64SliceVar(&tauList, "taus", nil, "shorthand for --param tau --values ...")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel members (default GOMAXPROCS)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a YAML scenario and save every run",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure lattice updates per second at growing grid sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSolver,
	}
	addOverrideFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchIters, "iterations", 200, "iterations per size")

	perturbCmd := &cobra.Command{
		Use:   "perturb [preset]",
		Short: "check that the steady state does not depend on the initial value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPerturb,
	}
	addOverrideFlags(perturbCmd)
	perturbCmd.Flags().IntVar(&trials, "trials", 8, "perturbed runs")
	perturbCmd.Flags().Float64Var(&perturb, "amplitude", 10, "maximum change of the initial value")
	perturbCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	perturbCmd.Flags().IntVar(&workers, "workers", 0, "parallel members (default GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, exportCmd, exportCSVCmd, exportJSONCmd, renderCmd,
		compareCmd, presetsCmd, liveCmd, sweepCmd, batchCmd, benchCmd, perturbCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addOverrideFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml), applied on top of the preset")
	f.StringVar(&solverName, "solver", "", "lbm, fd-explicit or fd-jacobi")
	f.StringVar(&normName, "norm", "", "convergence norm: rms or max")
	f.IntVar(&maxIter, "max-iter", 0, "iteration ceiling")
	f.IntVar(&nx, "nx", 0, "grid columns")
	f.IntVar(&ny, "ny", 0, "grid rows")
	f.Float64Var(&tau, "tau", 0, "relaxation time")
	f.Float64Var(&omega, "omega", 0, "relaxation frequency")
	f.Float64Var(&alpha, "diffusivity", 0, "thermal diffusivity")
	f.Float64Var(&velU, "u", 0, "bulk velocity along x")
	f.Float64Var(&velV, "v", 0, "bulk velocity along y (downward)")
	f.Float64Var(&initial, "initial", 0, "uniform initial value")
	f.Float64Var(&tolerance, "tol", 0, "convergence tolerance")
}

func runMenu() error {
	var entries []string
	info := make(map[string]string)
	for _, g := range config.ListGroups() {
		for _, p := range config.ListPresets(g) {
			ref := g + "/" + p
			entries = append(entries, ref)
			info[ref] = describe(config.GetPreset(g, p))
		}
	}
	reg := experiment.NewRegistry()
	return viz.RunMenu(entries, info, func(ref string) (*solver.Solver, error) {
		cfg, err := config.Resolve(ref)
		if err != nil {
			return nil, err
		}
		exp, err := experiment.New(reg, cfg)
		if err != nil {
			return nil, err
		}
		return exp.Solver(), nil
	})
}

func describe(c *config.Config) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s %s %dx%d u=(%g,%g)", c.Solver, c.Model, c.Grid.NX, c.Grid.NY, c.Velocity.U, c.Velocity.V)
}
