package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/export"
	"github.com/san-kum/thermolb/internal/storage"
	"github.com/san-kum/thermolb/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOLVER\tPRESET\tGRID\tSTATE\tITERS\tCHANGE\tTIME")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\t%d\t%.2e\t%s\n",
			run.ID,
			run.Solver,
			run.Preset,
			run.NX, run.NY,
			run.State,
			run.Iterations,
			run.FinalChange(),
			run.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

// loadRun resolves a run ID prefix and loads everything stored for it.
func loadRun(st *storage.Store, prefix string) (*storage.RunMetadata, *mat.Dense, []float64, error) {
	runID, err := st.Resolve(prefix)
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	field, err := st.LoadField(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	hist, err := st.LoadHistory(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, field, hist, nil
}

func metaOf(m *storage.RunMetadata) export.Meta {
	title := m.Preset
	if title == "" {
		title = m.ID
	}
	return export.Meta{
		Title:      title,
		Solver:     m.Solver,
		Model:      m.Model,
		State:      m.State.String(),
		Iterations: m.Iterations,
		Change:     m.Change,
		Metrics:    m.Metrics,
	}
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, field, hist, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("solver: %s (%s)\n", meta.Solver, meta.Model)
	if meta.Tau > 0 {
		fmt.Printf("tau: %.4f  omega: %.4f\n", meta.Tau, meta.Omega)
	}
	fmt.Printf("state: %s after %d iterations (change %.3e)\n\n", meta.State, meta.Iterations, meta.FinalChange())

	fmt.Println(viz.Shades(field, 60, 30))
	fmt.Println()

	if graph := viz.HistoryGraph(hist, 80, 10); graph != "" {
		fmt.Println(graph)
		fmt.Println()
	}

	rows, _ := field.Dims()
	if graph := viz.Profile(field, rows/2, 80, 10); graph != "" {
		fmt.Println(graph)
	}
	printMetrics(meta.Metrics)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// output opens outPath, or stdout when it is empty.
func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, field, _, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	w, done, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, field); err != nil {
		done()
		return err
	}
	return done()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, field, hist, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	w, done, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteJSON(w, field, hist, metaOf(meta)); err != nil {
		done()
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "exported to %s\n", outPath)
	}
	return done()
}

func renderRun(cmd *cobra.Command, args []string) error {
	meta, field, hist, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		suffix := ""
		if history {
			suffix = "_history"
		}
		path = fmt.Sprintf("%s%s.%s", meta.ID, suffix, strings.ToLower(string(f)))
	}

	em := metaOf(meta)
	switch {
	case history && f == export.PNG:
		err = export.SaveHistoryImage(path, hist, em)
	case history && f == export.SVG:
		err = os.WriteFile(path, []byte(export.HistoryToSVG(hist, 800, 300, "#00ff88")), 0644)
	case history:
		err = fmt.Errorf("history renders as png or svg, not %s", f)
	default:
		err = renderTo(path, f, field, hist, em)
	}
	if err != nil {
		return err
	}
	fmt.Printf("rendered %s\n", path)
	return nil
}

func renderTo(path string, f export.Format, field *mat.Dense, hist []float64, meta export.Meta) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Render(file, f, field, hist, meta); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
