// Package export turns a finished field into files for people: PNG and HTML
// heatmaps, SVG, JSON and CSV. It only ever sees the dense field, the change
// history and a little metadata.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// Meta labels an exported field.
type Meta struct {
	Title      string             `json:"title"`
	Solver     string             `json:"solver"`
	Model      string             `json:"model"`
	State      string             `json:"state"`
	Iterations int                `json:"iterations"`
	Change     *float64           `json:"change,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

func (m Meta) subtitle() string {
	change := "none"
	if m.Change != nil {
		change = fmt.Sprintf("%.3g", *m.Change)
	}
	return fmt.Sprintf("%s %s: %s after %d iterations (change %s)",
		m.Solver, m.Model, m.State, m.Iterations, change)
}

type Format string

const (
	PNG  Format = "png"
	HTML Format = "html"
	SVG  Format = "svg"
	JSON Format = "json"
	CSV  Format = "csv"
)

var formats = []Format{PNG, HTML, SVG, JSON, CSV}

func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Render writes field in the given format.
func Render(w io.Writer, format Format, field *mat.Dense, history []float64, meta Meta) error {
	switch format {
	case PNG:
		return WritePNG(w, field, meta)
	case HTML:
		return WriteHTML(w, field, history, meta)
	case SVG:
		_, err := io.WriteString(w, FieldToSVG(field, 12))
		return err
	case JSON:
		return WriteJSON(w, field, history, meta)
	case CSV:
		return WriteCSV(w, field)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Bounds returns the smallest and largest finite value of m. A constant
// field is widened by one so color scales stay well defined.
func Bounds(m mat.Matrix) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}
