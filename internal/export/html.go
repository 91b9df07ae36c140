package export

import (
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"
)

// FieldChart builds an interactive heatmap. Category rows are listed
// bottom-up so grid row 0 renders at the top.
func FieldChart(field mat.Matrix, meta Meta) *charts.HeatMap {
	rows, cols := field.Dims()
	lo, hi := Bounds(field)

	xs := make([]string, cols)
	for c := range xs {
		xs[c] = strconv.Itoa(c)
	}
	ys := make([]string, rows)
	for i := range ys {
		ys[i] = strconv.Itoa(rows - 1 - i)
	}

	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := field.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, rows - 1 - r, v}})
		}
	}

	colors := make([]string, 0, shades/8)
	for i := 0; i < shades; i += 8 {
		colors = append(colors, Hex(heat[i]))
	}
	colors = append(colors, Hex(heat[shades-1]))

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: meta.Title,
			Width:     "900px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{Title: meta.Title, Subtitle: meta.subtitle()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	hm.SetXAxis(xs).AddSeries("field", data)
	return hm
}

// HistoryChart plots the change per iteration on a log axis.
func HistoryChart(history []float64, meta Meta) *charts.Line {
	xs := make([]int, 0, len(history))
	data := make([]opts.LineData, 0, len(history))
	for i, v := range history {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, i+1)
		data = append(data, opts.LineData{Value: v})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Convergence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "change"}),
	)
	line.SetXAxis(xs).AddSeries("change", data)
	return line
}

// WriteHTML renders a page with the field heatmap and, when there is one,
// the convergence history.
func WriteHTML(w io.Writer, field mat.Matrix, history []float64, meta Meta) error {
	page := components.NewPage()
	if meta.Title != "" {
		page.SetPageTitle(meta.Title)
	}
	page.AddCharts(FieldChart(field, meta))
	if len(history) > 0 {
		page.AddCharts(HistoryChart(history, meta))
	}
	return page.Render(w)
}
