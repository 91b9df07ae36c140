package export

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/palette"
)

const shades = 64

var heat = palette.Heat(shades, 1).Colors()

// Shade maps v onto the heat palette between lo and hi. Non-finite values
// come back white.
func Shade(v, lo, hi float64) color.Color {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return color.White
	}
	t := 0.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	i := int(math.Round(t * float64(shades-1)))
	return heat[min(max(i, 0), shades-1)]
}

// Hex renders c as #rrggbb.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// FieldToSVG draws one square of side cell per grid node, row 0 at the top.
func FieldToSVG(field mat.Matrix, cell float64) string {
	rows, cols := field.Dims()
	if rows == 0 || cols == 0 {
		return ""
	}
	lo, hi := Bounds(field)
	width := float64(cols) * cell
	height := float64(rows) * cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := field.At(r, c)
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%.4f</title></rect>
`, float64(c)*cell, float64(r)*cell, cell, cell, Hex(Shade(v, lo, hi)), v))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// HistoryToSVG plots log10 of the per-iteration change as a polyline.
// Non-positive entries are skipped.
func HistoryToSVG(history []float64, width, height int, strokeColor string) string {
	type point struct{ X, Y float64 }
	points := make([]point, 0, len(history))
	for i, v := range history {
		if v > 0 && !math.IsInf(v, 0) {
			points = append(points, point{float64(i + 1), math.Log10(v)})
		}
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
