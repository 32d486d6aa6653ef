package viz

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	spawnScale      = 0.4
)

var canvasStyle = lipgloss.NewStyle().Padding(1, 2)

type TickMsg time.Time

// Builder creates a fresh simulation and the rng its scene was drawn from.
type Builder func() (*sim.Simulation, *rand.Rand, error)

// Model drives a simulation from bubbletea ticks and draws it.
type Model struct {
	build    Builder
	sim      *sim.Simulation
	rng      *rand.Rand
	dt       float64
	name     string
	canvas   *Canvas
	camera   *Camera
	frame    *Wireframe
	theme    Theme
	running  bool
	showHelp bool
	selected *dynamo.Body
	stats    dynamo.StepStats
	energy   []float64
	hits     []float64
	err      error
}

func NewModel(name string, dt float64, build Builder) (Model, error) {
	m := Model{
		build:   build,
		dt:      dt,
		name:    name,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		theme:   CurrentTheme,
		running: true,
	}
	if err := m.reset(); err != nil {
		return m, err
	}
	return m, nil
}

// Simulation exposes the underlying simulation.
func (m Model) Simulation() *sim.Simulation { return m.sim }

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "n":
			m.spawn()
		case "d":
			m.remove()
		case "p":
			m.pick()
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case tea.WindowSizeMsg:
		w := max(20, msg.Width-50)
		h := max(8, msg.Height-4)
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	s, rng, err := m.build()
	if err != nil {
		return err
	}
	m.sim, m.rng = s, rng
	m.camera.Frame(s.Bounds())
	m.frame = BoundsWireframe(s.Bounds())
	m.selected = nil
	m.stats = dynamo.StepStats{}
	m.energy = m.energy[:0]
	m.hits = m.hits[:0]
	m.err = nil
	return nil
}

// step advances the simulation one frame and records history.
func (m *Model) step() {
	stats, err := m.sim.Step(m.dt)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.stats = stats

	var ke float64
	for _, b := range m.sim.Bodies() {
		ke += b.KineticEnergy()
	}
	m.energy = appendCapped(m.energy, ke)
	m.hits = appendCapped(m.hits, float64(stats.Collisions))
}

func appendCapped(v []float64, x float64) []float64 {
	v = append(v, x)
	if len(v) > historyCapacity {
		v = v[1:]
	}
	return v
}

func (m *Model) spawn() {
	b, err := m.sim.Spawn(m.rng, spawnScale)
	if err != nil {
		m.err = err
		return
	}
	m.selected = b
}

// remove deregisters the selected body, or the newest one.
func (m *Model) remove() {
	target := m.selected
	if target == nil {
		bodies := m.sim.Bodies()
		if len(bodies) == 0 {
			return
		}
		target = bodies[len(bodies)-1]
	}
	m.sim.Deregister(target)
	m.selected = nil
}

// pick selects the body under the screen center.
func (m *Model) pick() {
	origin, dir := m.camera.Ray()
	if b, _, ok := m.sim.NearestHit(origin, dir); ok {
		m.selected = b
		return
	}
	m.selected = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	Render3D(m.canvas, m.frame, m.camera)
	RenderBodies(m.canvas, m.sim.Bodies(), m.camera, m.selected)
	sw, sh := m.canvas.PixelSize()
	m.canvas.DrawLine(sw/2-2, sh/2, sw/2+2, sh/2, TintNone)
	m.canvas.DrawLine(sw/2, sh/2-2, sw/2, sh/2+2, TintNone)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render(m.theme))
	st := newPanelStyles(m.theme)

	var s strings.Builder
	s.WriteString(st.header.Render("MAGSIM "+strings.ToUpper(m.name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.err.Render("ERROR "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render(spinnerFrame(m.sim.Frame())+" RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	s.WriteString(st.label.Render("Collisions") + st.sparkline(m.hits, 28) + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.sim.Frame()))
	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Bodies", fmt.Sprintf("%d", m.sim.Len()))
	row("Pairs", fmt.Sprintf("%d", m.stats.Pairs))
	row("Contacts", fmt.Sprintf("%d / %d", m.stats.Collisions, m.stats.WallContacts))
	if len(m.energy) > 0 {
		row("Kinetic", fmt.Sprintf("%.1f", m.energy[len(m.energy)-1]))
	}

	s.WriteString("\n" + st.title.Render("SELECTED") + "\n")
	if b := m.selected; b != nil {
		pole := "-"
		if b.Positive {
			pole = "+"
		}
		row("Body", fmt.Sprintf("#%d (%s)", b.ID, pole))
		row("Mass", fmt.Sprintf("%.2f", b.Mass()))
		row("Strength", fmt.Sprintf("%.2f", b.Strength()))
		row("Speed", fmt.Sprintf("%.1f", b.Velocity.Len()))
	} else {
		s.WriteString(st.muted.Render("  (none)") + "\n")
	}

	s.WriteString("\n" + st.rule(36) + "\n")
	s.WriteString(st.hint.Render("SP:Pause .:Step R:Reset Q:Quit\nN:Spawn D:Remove P:Pick ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return help + "\n\n" + mainView
	}
	return mainView
}

const help = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single step while paused ║
║  R        - Rebuild the scene        ║
║  N        - Spawn a random body      ║
║  D        - Remove selected body     ║
║  P        - Pick body at crosshair   ║
║  x/X y/Y  - Rotate camera            ║
║  +/-      - Zoom                     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// RunLive opens the live view on a scene until the user quits.
func RunLive(name string, dt float64, build Builder) error {
	m, err := NewModel(name, dt, build)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
