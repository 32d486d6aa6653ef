package viz

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/magsim/internal/config"
	"github.com/san-kum/magsim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"pair":    "two opposite poles",
	"repel":   "two like poles",
	"swarm":   "forty random magnets",
	"cluster": "dense small bodies",
	"gas":     "elastic, no field",
	"slab":    "thin box",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// knob is one editable number on the config screen.
type knob struct {
	name string
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
	step float64
}

var knobs = []knob{
	{"bodies", func(c *config.Config) float64 { return float64(c.Random.Count) }, func(c *config.Config, v float64) { c.Random.Count = max(0, int(v)) }, 1},
	{"scale", func(c *config.Config) float64 { return c.Random.Scale }, func(c *config.Config, v float64) { c.Random.Scale = v }, 0.05},
	{"speed", func(c *config.Config) float64 { return c.Random.Speed }, func(c *config.Config, v float64) { c.Random.Speed = v }, 25},
	{"force", func(c *config.Config) float64 { return c.Physics.ForceConstant }, func(c *config.Config, v float64) { c.Physics.ForceConstant = v }, 10000},
	{"drag", func(c *config.Config) float64 { return c.Physics.Drag }, func(c *config.Config, v float64) { c.Physics.Drag = v }, 0.005},
	{"restitution", func(c *config.Config) float64 { return c.Physics.Restitution }, func(c *config.Config, v float64) { c.Physics.Restitution = v }, 0.05},
	{"walls", func(c *config.Config) float64 { return c.Physics.WallRestitution }, func(c *config.Config, v float64) { c.Physics.WallRestitution = v }, 0.05},
}

// App picks a preset, lets the user tweak a few knobs, then hands over to
// the live view.
type App struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	knobCursor    int
	editing       bool
	editBuf       string
	opts          []sim.Option
	live          Model
	err           error
}

func NewInteractiveApp(opts ...sim.Option) App {
	return App{state: stateMenu, presets: config.ListPresets(), opts: opts}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch a.state {
		case stateMenu:
			return a.menuKey(msg)
		case stateConfig:
			return a.configKey(msg)
		}
	}
	return a, nil
}

func (a App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.selected = a.presets[a.cursor]
		a.cfg = config.GetPreset(a.selected)
		a.state, a.knobCursor, a.err = stateConfig, 0, nil
	}
	return a, nil
}

func (a App) configKey(msg tea.KeyMsg) (App, tea.Cmd) {
	k := knobs[a.knobCursor]
	if a.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(a.editBuf, 64); err == nil {
				k.set(a.cfg, v)
			}
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				a.editBuf += s
			}
		}
		return a, nil
	}
	switch msg.String() {
	case "q", "esc":
		a.state = stateMenu
	case "up", "k":
		if a.knobCursor > 0 {
			a.knobCursor--
		}
	case "down", "j":
		if a.knobCursor < len(knobs)-1 {
			a.knobCursor++
		}
	case "enter", " ":
		a.editing, a.editBuf = true, strconv.FormatFloat(k.get(a.cfg), 'g', -1, 64)
	case "left", "h":
		k.set(a.cfg, k.get(a.cfg)-k.step)
	case "right", "l":
		k.set(a.cfg, k.get(a.cfg)+k.step)
	case "s":
		return a.start()
	}
	return a, nil
}

func (a App) start() (App, tea.Cmd) {
	if err := a.cfg.Validate(); err != nil {
		a.err = err
		return a, nil
	}
	cfg := a.cfg.Clone()
	live, err := NewModel(a.selected, cfg.Dt, func() (*sim.Simulation, *rand.Rand, error) {
		return cfg.NewSimulation(a.opts...)
	})
	if err != nil {
		a.err = err
		return a, nil
	}
	a.live, a.state = live, stateSim
	return a, a.live.Init()
}

func (a App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateConfig:
		return a.viewConfig()
	case stateSim:
		return a.live.View()
	}
	return ""
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(cyan.Render(pairs[i]) + dim.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (a App) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + cyan.Render("MAGSIM") + "\n    " + dim.Render("magnetic sphere simulation") + "\n    " + dim.Render("─────────────────────────") + "\n\n")
	for i, name := range a.presets {
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cyan.Render("▸"), white.Render(fmt.Sprintf("%-10s", name)), magenta.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", dim.Render(fmt.Sprintf("  %-10s", name)), dimmer.Render(presetInfo[name])))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (a App) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + cyan.Render(strings.ToUpper(a.selected)) + "\n    " + dim.Render(presetInfo[a.selected]) + "\n    " + dim.Render("─────────────────────────") + "\n\n")
	for i, k := range knobs {
		val := fmt.Sprintf("%10.3f", k.get(a.cfg))
		if a.editing && i == a.knobCursor {
			val = fmt.Sprintf("%10s", a.editBuf+"_")
		}
		if i == a.knobCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cyan.Render("▸"), white.Render(fmt.Sprintf("%-12s", k.name)), newPanelStyles(CurrentTheme).cursor.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", dim.Render(fmt.Sprintf("  %-12s", k.name)), dimmer.Render(val)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + newPanelStyles(CurrentTheme).err.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func RunInteractive(opts ...sim.Option) error {
	_, err := tea.NewProgram(NewInteractiveApp(opts...), tea.WithAltScreen()).Run()
	return err
}
