package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/thermolb/internal/export"
	"github.com/san-kum/thermolb/internal/solver"
)

const (
	maxStepsPerTick = 1024
	cellPixels      = 6
)

type TickMsg time.Time

// Model drives a solver from a ticker. Each tick runs stepsPerTick
// iterations until the solver reaches a terminal state.
type Model struct {
	solver       *solver.Solver
	name         string
	running      bool
	stepsPerTick int
	err          error
	width        int
	maxCols      int
	maxRows      int
	showHelp     bool
	recording    bool
	frames       []*image.Paletted
	gifPath      string
}

func NewModel(s *solver.Solver, name string) Model {
	return Model{
		solver:       s,
		name:         name,
		running:      true,
		stepsPerTick: 1,
		width:        80,
		maxCols:      48,
		maxRows:      32,
		gifPath:      "thermolb.gif",
	}
}

// WithGIF sets where a recording is written when it stops.
func (m Model) WithGIF(path string) Model {
	m.gifPath = path
	return m
}

// WithSpeed sets the iterations run per tick.
func (m Model) WithSpeed(steps int) Model {
	m.stepsPerTick = min(max(steps, 1), maxStepsPerTick)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the solver.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.err = m.saveGIF()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.err = m.solver.Reset()
			m.running = m.err == nil
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			NextTheme()
		case "g":
			if m.recording {
				m.err = m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.maxCols = max((msg.Width-52)/2, 8)
		m.maxRows = max(msg.Height-6, 8)
	case TickMsg:
		if m.running {
			m.advance()
			if m.recording {
				m.captureFrame()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.solver.State().Terminal() {
			m.running = false
			return
		}
		if err := m.solver.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	if m.solver.State().Terminal() {
		m.running = false
	}
}

func (m Model) status() string {
	switch st := m.solver.State(); {
	case st == solver.Converged:
		return StatusDone.Render("CONVERGED")
	case st == solver.MaxIterationsExceeded:
		return StatusPaused.Render("MAX ITERATIONS")
	case st == solver.Diverged:
		return StatusFailed.Render("DIVERGED")
	case m.err != nil:
		return StatusFailed.Render("ERROR")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

// View renders the field next to the run statistics.
func (m Model) View() string {
	field := m.solver.Field()
	fieldView := fieldStyle.Render(Heatmap(field, CurrentTheme, m.maxCols, m.maxRows))

	cfg := m.solver.Config()
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status())
	if m.recording {
		s.WriteString("  " + StatusRecording.Render("REC"))
	}
	s.WriteString("\n\n")

	if chart := HistoryGraph(m.solver.History(), 30, 5); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	iter := m.solver.Iteration()
	s.WriteString(labelStyle.Render("Iteration") + valueStyle.Render(fmt.Sprintf("%d / %d", iter, cfg.MaxIterations)) + "\n")
	s.WriteString(labelStyle.Render("Budget") + ProgressBar(float64(iter)/float64(cfg.MaxIterations), 20) + "\n")
	change := "-"
	if iter > 0 {
		change = fmt.Sprintf("%.3e", m.solver.Change())
	}
	s.WriteString(labelStyle.Render("Change") + valueStyle.Render(change) + "\n")
	s.WriteString(labelStyle.Render("Tolerance") + valueStyle.Render(fmt.Sprintf("%.1e", cfg.Tolerance)) + "\n")
	s.WriteString(labelStyle.Render("Range") + valueStyle.Render(fmt.Sprintf("%.3f .. %.3f", mat.Min(field), mat.Max(field))) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%d it/tick", m.stepsPerTick)) + "\n")
	s.WriteString(labelStyle.Render("Theme") + lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(CurrentTheme.Name) + "\n")
	if m.err != nil && !errors.Is(m.err, solver.ErrNotRunning) {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\n+/-:Speed T:Theme G:Record ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, fieldView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume solver      ║
║  R        - Reset to iteration 0     ║
║  Q        - Quit                     ║
║  + / -    - More/fewer its per tick  ║
║  T        - Cycle color themes       ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// captureFrame appends the current field as a paletted image, one
// cellPixels square per node.
func (m *Model) captureFrame() {
	field := m.solver.Field()
	rows, cols := field.Dims()
	lo, hi := export.Bounds(field)

	pal := make(color.Palette, 0, len(CurrentTheme.Colors)+1)
	pal = append(pal, CurrentTheme.Colors...)
	pal = append(pal, color.White)
	nan := uint8(len(pal) - 1)

	img := image.NewPaletted(image.Rect(0, 0, cols*cellPixels, rows*cellPixels), pal)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idx := nan
			if i := CurrentTheme.Index(field.At(r, c), lo, hi); i >= 0 {
				idx = uint8(i)
			}
			for py := 0; py < cellPixels; py++ {
				for px := 0; px < cellPixels; px++ {
					img.SetColorIndex(c*cellPixels+px, r*cellPixels+py, idx)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 3)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run opens the live view for s and blocks until the user quits.
func Run(s *solver.Solver, name string, steps int, gifPath string) error {
	m := NewModel(s, name).WithSpeed(steps)
	if gifPath != "" {
		m = m.WithGIF(gifPath)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
