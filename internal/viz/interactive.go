package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/thermolb/internal/solver"
)

// Builder turns a menu entry into a ready solver.
type Builder func(name string) (*solver.Solver, error)

const (
	stateMenu = iota
	stateSim
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuItem     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// Menu lists presets and opens the live view for the chosen one.
type Menu struct {
	state   int
	cursor  int
	entries []string
	info    map[string]string
	build   Builder
	err     error
	live    Model
}

func NewMenu(entries []string, info map[string]string, build Builder) Menu {
	return Menu{entries: entries, info: info, build: build}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.entries) == 0 {
			return m, nil
		}
		name := m.entries[m.cursor]
		s, err := m.build(name)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.live = NewModel(s, name)
		m.state = stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func (m Menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("THERMOLB") + "\n    " + menuSub.Render("lattice boltzmann heat transport") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.entries {
		desc := m.info[name]
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuSelected.Render(fmt.Sprintf("%-20s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuItem.Render(fmt.Sprintf("  %-20s", name)), menuSub.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + StatusFailed.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuItem.Render(" navigate  ") + menuKey.Render("enter") + menuItem.Render(" run  ") + menuKey.Render("esc") + menuItem.Render(" back  ") + menuKey.Render("q") + menuItem.Render(" quit") + "\n")
	return b.String()
}

func RunMenu(entries []string, info map[string]string, build Builder) error {
	_, err := tea.NewProgram(NewMenu(entries, info, build), tea.WithAltScreen()).Run()
	return err
}
