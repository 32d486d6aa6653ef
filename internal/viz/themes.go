package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the live view
type Theme struct {
	Name     string
	Positive lipgloss.Color
	Negative lipgloss.Color
	Bounds   lipgloss.Color
	Selected lipgloss.Color
	Accent   lipgloss.Color
	Muted    lipgloss.Color
}

var (
	ThemeClassic = Theme{
		Name:     "classic",
		Positive: lipgloss.Color("#ff4444"),
		Negative: lipgloss.Color("#4488ff"),
		Bounds:   lipgloss.Color("#666688"),
		Selected: lipgloss.Color("#ffff00"),
		Accent:   lipgloss.Color("#00ffff"),
		Muted:    lipgloss.Color("#888888"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Positive: lipgloss.Color("#88ff88"),
		Negative: lipgloss.Color("#00aa00"),
		Bounds:   lipgloss.Color("#005500"),
		Selected: lipgloss.Color("#ffff00"),
		Accent:   lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
	}

	ThemeMinimal = Theme{
		Name:     "minimal",
		Positive: lipgloss.Color("#ffffff"),
		Negative: lipgloss.Color("#aaaaaa"),
		Bounds:   lipgloss.Color("#555555"),
		Selected: lipgloss.Color("#0088ff"),
		Accent:   lipgloss.Color("#0088ff"),
		Muted:    lipgloss.Color("#888888"),
	}

	CurrentTheme = ThemeClassic

	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to classic.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
