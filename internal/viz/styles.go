package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// panelStyles are the side panel styles derived from a Theme.
type panelStyles struct {
	panel   lipgloss.Style
	header  lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	hint    lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	err     lipgloss.Style
	cursor  lipgloss.Style
	graph   lipgloss.Style
	pos     lipgloss.Style
	neg     lipgloss.Style
}

func newPanelStyles(t Theme) panelStyles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return panelStyles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Bounds).
			Padding(1, 2).
			Width(42),
		header: fg(lipgloss.Color("#ffffff")).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Bounds),
		title:   fg(t.Accent).Bold(true),
		label:   fg(t.Muted).Width(12),
		value:   fg(t.Accent).Bold(true),
		muted:   fg(t.Muted),
		hint:    fg(t.Muted).Italic(true),
		running: fg(lipgloss.Color("#00ff88")).Bold(true),
		paused:  fg(lipgloss.Color("#ffaa00")).Bold(true),
		err:     fg(lipgloss.Color("#ff4444")).Bold(true),
		cursor:  fg(t.Selected).Bold(true),
		graph:   fg(t.Accent).Padding(1, 0),
		pos:     fg(t.Positive),
		neg:     fg(t.Negative),
	}
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerFrame(frame int) string {
	return spinner[frame%len(spinner)]
}

var sparkChars = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the last width values scaled to their own range. Bars in
// the upper half take the positive pole color, the rest the negative.
func (st panelStyles) sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return st.muted.Render(strings.Repeat("─", max(width, 0)))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		c := string(sparkChars[int(norm*float64(len(sparkChars)-1))])
		if norm > 0.5 {
			b.WriteString(st.pos.Render(c))
		} else {
			b.WriteString(st.neg.Render(c))
		}
	}
	return b.String()
}

func (st panelStyles) rule(width int) string {
	if width < 3 {
		return st.muted.Render(strings.Repeat("─", max(width, 0)))
	}
	left := (width - 3) / 2
	return st.muted.Render(strings.Repeat("─", left) + " ◆ " + strings.Repeat("─", width-3-left))
}
