package viz

import (
	"image/color"
	"math"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/plot/palette"

	"github.com/san-kum/thermolb/internal/export"
)

const themeShades = 32

// Theme is a color ramp for field cells plus the chrome colors around it.
type Theme struct {
	Name   string
	Colors []color.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
}

func gray(n int) []color.Color {
	cs := make([]color.Color, n)
	for i := range cs {
		v := uint8(40 + 215*i/(n-1))
		cs[i] = color.Gray{Y: v}
	}
	return cs
}

// Available themes
var (
	ThemeHeat = Theme{
		Name:   "heat",
		Colors: palette.Heat(themeShades, 1).Colors(),
		Accent: lipgloss.Color("#ffaa00"),
		Muted:  lipgloss.Color("#666666"),
	}

	ThemeRainbow = Theme{
		Name:   "rainbow",
		Colors: palette.Rainbow(themeShades, palette.Blue, palette.Red, 1, 1, 1).Colors(),
		Accent: lipgloss.Color("#00ffff"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	ThemeDiverging = Theme{
		Name:   "diverging",
		Colors: palette.Radial(themeShades, palette.Blue, palette.Red, 1).Colors(),
		Accent: lipgloss.Color("#ff6b6b"),
		Muted:  lipgloss.Color("#8b6b8c"),
	}

	ThemeMono = Theme{
		Name:   "mono",
		Colors: gray(themeShades),
		Accent: lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
	}

	// Default theme
	CurrentTheme = ThemeHeat

	Themes = []Theme{
		ThemeHeat,
		ThemeRainbow,
		ThemeDiverging,
		ThemeMono,
	}
)

// Index maps v onto the ramp between lo and hi. Non-finite values return
// -1.
func (t Theme) Index(v, lo, hi float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	f := 0.0
	if hi > lo {
		f = (v - lo) / (hi - lo)
	}
	i := int(math.Round(f * float64(len(t.Colors)-1)))
	return min(max(i, 0), len(t.Colors)-1)
}

func (t Theme) Color(v, lo, hi float64) lipgloss.Color {
	i := t.Index(v, lo, hi)
	if i < 0 {
		return lipgloss.Color("#ffffff")
	}
	return lipgloss.Color(export.Hex(t.Colors[i]))
}

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeHeat
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme cycles CurrentTheme.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
