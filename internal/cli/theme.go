package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for the terminal UI.
type Theme struct {
	Title    lipgloss.Color
	Query    lipgloss.Color
	Response lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Selected lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Title:    lipgloss.Color("#AF87FF"), // purple
	Query:    lipgloss.Color("#5FAFD7"), // light blue
	Response: lipgloss.Color("#D0D0D0"), // light gray
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Selected: lipgloss.Color("#FFD75F"), // yellow
}

// Style functions for dynamic theming
func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) queryStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Query).Bold(true)
}

func (t Theme) responseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Response)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Selected).Bold(true)
}
