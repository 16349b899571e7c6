package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/sim-bridge/scene"
	"github.com/wippyai/sim-bridge/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	slotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Step    key.Binding
	Run     key.Binding
	Rebuild key.Binding
	Play    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Step, k.Run, k.Rebuild, k.Play, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Step:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "step")),
	Run:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "run/pause")),
	Rebuild: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rebuild actor")),
	Play:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end/begin")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type inspectModel struct {
	err      error
	sess     *session.Session
	help     help.Model
	filename string
	status   string
	selected int
	running  bool
}

func newInspectModel(s *session.Session, filename string) *inspectModel {
	return &inspectModel{
		sess:     s,
		help:     help.New(),
		filename: filename,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) tick() tea.Cmd {
	dt := time.Duration(m.sess.Config().TimeStep * float64(time.Second))
	return tea.Tick(dt, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}

		case key.Matches(msg, keys.Down):
			if m.selected < len(m.sess.Scene().Components())-1 {
				m.selected++
			}

		case key.Matches(msg, keys.Step):
			m.step()

		case key.Matches(msg, keys.Run):
			if !m.sess.Live() {
				m.status = "session is not live"
				break
			}
			m.running = !m.running
			if m.running {
				return m, m.tick()
			}

		case key.Matches(msg, keys.Rebuild):
			m.rebuild()

		case key.Matches(msg, keys.Play):
			m.togglePlay()
		}

	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.step()
		if m.running {
			return m, m.tick()
		}
	}
	return m, nil
}

func (m *inspectModel) step() {
	if err := m.sess.Step(); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.err = nil
}

func (m *inspectModel) rebuild() {
	comps := m.sess.Scene().Components()
	if m.selected >= len(comps) {
		return
	}
	name := comps[m.selected].Actor().Name()
	st, err := m.sess.Reconstruct(name)
	m.err = err
	m.status = fmt.Sprintf("rebuilt %s: captured %d, restored %d, orphaned %d",
		name, st.Captured, st.Restored, st.Orphaned)
}

func (m *inspectModel) togglePlay() {
	m.running = false
	if m.sess.Live() {
		sum, err := m.sess.End()
		m.err = err
		m.status = fmt.Sprintf("ended after %d steps: %d released, %d skipped, %d instances",
			sum.Steps, sum.Released, sum.Skipped, sum.Instances)
		return
	}
	m.err = m.sess.Begin()
	m.status = fmt.Sprintf("begun with %d registered owners", m.sess.Registry().Len())
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Sim Bridge"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	st := m.sess.Engine().Stats()
	play := "ended"
	if m.sess.Live() {
		play = "live"
		if m.running {
			play = "running"
		}
	}
	b.WriteString(fmt.Sprintf("%s  steps %d  bodies %d  shapes %d  constraints %d  materials %d  properties %d\n\n",
		typeStyle.Render(play), m.sess.Steps(), st.Bodies, st.Shapes, st.Constraints, st.Materials, st.Properties))

	for i, c := range m.sess.Scene().Components() {
		line := fmt.Sprintf("%-28s %-20s %-18s %s  %s",
			c.Slot(), c.OwnerType(), c.State(), c.NativeAddress(), describe(c))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + slotStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(resultStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.help.View(keys)))
	return b.String()
}

// describe renders the live state worth watching for each component kind.
func describe(c scene.Component) string {
	switch v := c.(type) {
	case *scene.RigidBody:
		p := v.Position()
		return fmt.Sprintf("pos (%.2f, %.2f) mass %.2f", p[0], p[1], v.Mass())
	case *scene.Shape:
		if v.Sensor() {
			return fmt.Sprintf("sensor, %d overlaps", v.Overlaps())
		}
		return fmt.Sprintf("%s friction %.2f", v.Kind(), v.Friction())
	case *scene.DistanceConstraint:
		return fmt.Sprintf("length %.2f / rest %.2f", v.Length(), v.RestLength())
	}
	return ""
}
