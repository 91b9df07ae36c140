package export

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyHistory = errors.New("export: no positive change values to plot")

// grid adapts a field to plotter.GridXYZ. Plot rows grow upward, so row 0
// of the field lands on the highest Y.
type grid struct {
	field mat.Matrix
	rows  int
}

func newGrid(field mat.Matrix) grid {
	r, _ := field.Dims()
	return grid{field: field, rows: r}
}

func (g grid) Dims() (c, r int) {
	r, c = g.field.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 { return g.field.At(g.rows-1-r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// FieldPlot builds a heatmap of field.
func FieldPlot(field mat.Matrix, meta Meta) *plot.Plot {
	lo, hi := Bounds(field)

	p := plot.New()
	p.Title.Text = meta.Title
	if p.Title.Text == "" {
		p.Title.Text = meta.subtitle()
	}
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row (from bottom)"

	hm := plotter.NewHeatMap(newGrid(field), palette.Heat(shades, 1))
	hm.Min, hm.Max = lo, hi
	p.Add(hm)
	return p
}

// HistoryPlot plots the per-iteration change on a log axis.
func HistoryPlot(history []float64, meta Meta) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(history))
	for i, v := range history {
		if v > 0 && !math.IsInf(v, 0) {
			pts = append(pts, plotter.XY{X: float64(i + 1), Y: v})
		}
	}
	if len(pts) == 0 {
		return nil, ErrEmptyHistory
	}

	p := plot.New()
	p.Title.Text = "Convergence"
	if meta.Title != "" {
		p.Title.Text = meta.Title + " convergence"
	}
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Change"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	line.Color = heat[shades/4]
	p.Add(line)
	return p, nil
}

func WritePNG(w io.Writer, field mat.Matrix, meta Meta) error {
	return writePlot(w, FieldPlot(field, meta), 8*vg.Inch, 6*vg.Inch, "png")
}

func WriteHistoryPNG(w io.Writer, history []float64, meta Meta) error {
	p, err := HistoryPlot(history, meta)
	if err != nil {
		return err
	}
	return writePlot(w, p, 10*vg.Inch, 5*vg.Inch, "png")
}

func writePlot(w io.Writer, p *plot.Plot, width, height vg.Length, format string) error {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveFieldImage saves a heatmap, picking the format from the extension
// (png, svg, pdf, jpg are what gonum/plot supports).
func SaveFieldImage(path string, field mat.Matrix, meta Meta) error {
	return FieldPlot(field, meta).Save(8*vg.Inch, 6*vg.Inch, path)
}

func SaveHistoryImage(path string, history []float64, meta Meta) error {
	p, err := HistoryPlot(history, meta)
	if err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}

// ExportFile writes field to path in the format implied by its extension.
func ExportFile(path string, field *mat.Dense, history []float64, meta Meta) error {
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(file, format, field, history, meta); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
