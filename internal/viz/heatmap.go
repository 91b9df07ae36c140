package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/export"
)

// ramp runs from cold to hot.
const ramp = " .:-=+*#%@"

// sample picks at most limit evenly spaced indices out of n.
func sample(n, limit int) []int {
	if limit <= 0 || n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, limit)
	for i := range idx {
		idx[i] = i * (n - 1) / (limit - 1)
	}
	return idx
}

// Heatmap renders every cell as two colored blocks, row 0 at the top. Grids
// wider than maxCols or taller than maxRows are subsampled.
func Heatmap(field mat.Matrix, theme Theme, maxCols, maxRows int) string {
	rows, cols := field.Dims()
	lo, hi := export.Bounds(field)

	var b strings.Builder
	for _, r := range sample(rows, maxRows) {
		for _, c := range sample(cols, maxCols) {
			style := lipgloss.NewStyle().Foreground(theme.Color(field.At(r, c), lo, hi))
			b.WriteString(style.Render("██"))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Shades renders the field with plain characters, densest for the hottest
// cells. Non-finite cells show as '?'.
func Shades(field mat.Matrix, maxCols, maxRows int) string {
	rows, cols := field.Dims()
	lo, hi := export.Bounds(field)
	scale := float64(len(ramp) - 1)

	var b strings.Builder
	for _, r := range sample(rows, maxRows) {
		for _, c := range sample(cols, maxCols) {
			v := field.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				b.WriteString("??")
				continue
			}
			i := int(math.Round((v - lo) / (hi - lo) * scale))
			ch := ramp[min(max(i, 0), len(ramp)-1)]
			b.WriteByte(ch)
			b.WriteByte(ch)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// HistoryGraph plots log10 of the change per iteration, keeping only the
// most recent width*4 samples.
func HistoryGraph(history []float64, width, height int) string {
	if len(history) > width*4 {
		history = history[len(history)-width*4:]
	}
	logs := make([]float64, 0, len(history))
	for _, v := range history {
		if v > 0 && !math.IsInf(v, 0) {
			logs = append(logs, math.Log10(v))
		}
	}
	if len(logs) < 2 {
		return ""
	}
	return asciigraph.Plot(logs,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10 change"))
}

// Profile plots one grid row from left to right.
func Profile(field mat.Matrix, row, width, height int) string {
	rows, _ := field.Dims()
	if row < 0 || row >= rows {
		return ""
	}
	values := mat.Row(nil, row, field)
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("row %d", row)))
}
