package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/solver"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run prefix matches several runs")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Solver string
	Preset string
	Config solver.Config
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Solver        string             `json:"solver"`
	Preset        string             `json:"preset,omitempty"`
	Model         string             `json:"model"`
	NX            int                `json:"nx"`
	NY            int                `json:"ny"`
	Tau           float64            `json:"tau,omitempty"`
	Omega         float64            `json:"omega,omitempty"`
	VelocityX     float64            `json:"velocity_x"`
	VelocityY     float64            `json:"velocity_y"`
	Norm          string             `json:"norm"`
	Tolerance     float64            `json:"tolerance"`
	MaxIterations int                `json:"max_iterations"`
	State         solver.State       `json:"state"`
	Iterations    int                `json:"iterations"`
	Change        *float64           `json:"change,omitempty"`
	Metrics       map[string]float64 `json:"metrics"`
	ElapsedMS     float64            `json:"elapsed_ms"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Save writes metadata.json, field.csv and history.csv into a fresh run
// directory and returns the run ID. A run that stopped before a change was
// measured is stored without one. On failure the run directory is removed.
func (s *Store) Save(info RunInfo, result *solver.Result) (id string, err error) {
	cfg := info.Config
	label := info.Solver
	if info.Solver == "lbm" {
		label = cfg.Model
	}
	runID := fmt.Sprintf("%s_%s", label, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	meta := RunMetadata{
		ID:            runID,
		Solver:        info.Solver,
		Preset:        info.Preset,
		Model:         cfg.Model,
		NX:            cfg.NX,
		NY:            cfg.NY,
		VelocityX:     cfg.Velocity.X,
		VelocityY:     cfg.Velocity.Y,
		Norm:          cfg.Norm.String(),
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		State:         result.State,
		Iterations:    result.Iterations,
		Change:        finite(result.Change),
		Metrics:       finiteMetrics(result.Metrics),
		ElapsedMS:     float64(result.Elapsed.Microseconds()) / 1000,
		Timestamp:     time.Now(),
	}
	if info.Solver == "lbm" {
		meta.Tau = cfg.RelaxationTime()
		meta.Omega = cfg.Omega()
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeField(filepath.Join(runDir, "field.csv"), result.Field); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, "history.csv"), result.History); err != nil {
		return "", err
	}
	return runID, nil
}

// FinalChange is the stored change, or +Inf when none was measured.
func (m RunMetadata) FinalChange() float64 {
	if m.Change == nil {
		return math.Inf(1)
	}
	return *m.Change
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if finite(v) != nil {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeField(path string, field *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows, cols := field.Dims()
	row := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			row[c] = strconv.FormatFloat(field.At(r, c), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeHistory(path string, history []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "change"}); err != nil {
		return err
	}
	for i, c := range history {
		if err := w.Write([]string{strconv.Itoa(i + 1), strconv.FormatFloat(c, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", metaPath, err)
	}

	return &meta, nil
}

// Resolve expands a unique prefix of a run ID.
func (s *Store) Resolve(prefix string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.baseDir, prefix, "metadata.json")); err == nil {
		return prefix, nil
	}
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
		}
		match = r.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

// LoadField reads the final macroscopic field of a run.
func (s *Store) LoadField(runID string) (*mat.Dense, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "field.csv"))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty field", runID)
	}

	rows, cols := len(records), len(records[0])
	field := mat.NewDense(rows, cols, nil)
	for r, record := range records {
		if len(record) != cols {
			return nil, fmt.Errorf("run %s: row %d has %d columns, want %d", runID, r, len(record), cols)
		}
		for c, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: cell (%d,%d): %w", runID, r, c, err)
			}
			field.Set(r, c, v)
		}
	}
	return field, nil
}

// LoadHistory reads the per-iteration change of a run.
func (s *Store) LoadHistory(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []float64{}, nil
	}

	history := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		history = append(history, v)
	}
	return history, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
