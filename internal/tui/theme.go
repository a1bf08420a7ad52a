package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	name string

	base      lipgloss.Style
	correct   lipgloss.Style
	incorrect lipgloss.Style
	pending   lipgloss.Style
	cursor    lipgloss.Style
	token     lipgloss.Style
	footer    lipgloss.Style
	history   lipgloss.Style
	closed    lipgloss.Style
	open      lipgloss.Style
	paused    lipgloss.Style
	flash     lipgloss.Style
}

func darkTheme() theme {
	pending := lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	return theme{
		name:      "dark",
		base:      lipgloss.NewStyle(),
		correct:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")),
		incorrect: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		pending:   pending,
		cursor:    pending.Underline(true),
		token:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
		footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
		history:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A")),
		closed:    badge("#1E1E1E", "#C89A3A"),
		open:      badge("#F0F0F0", "#3A3A3A"),
		paused:    badge("#F0F0F0", "#FF4D4F"),
		flash:     badge("#1E1E1E", "#52C41A"),
	}
}

func lightTheme() theme {
	pending := lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7A7A"))
	return theme{
		name:      "light",
		base:      lipgloss.NewStyle().Foreground(lipgloss.Color("#222222")).Background(lipgloss.Color("#F0F0F0")),
		correct:   lipgloss.NewStyle().Foreground(lipgloss.Color("#222222")),
		incorrect: lipgloss.NewStyle().Foreground(lipgloss.Color("#CF1322")),
		pending:   pending,
		cursor:    pending.Underline(true),
		token:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1D39C4")).Bold(true),
		footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("#595959")),
		history:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		closed:    badge("#F0F0F0", "#1D39C4"),
		open:      badge("#222222", "#D9D9D9"),
		paused:    badge("#F0F0F0", "#CF1322"),
		flash:     badge("#F0F0F0", "#389E0D"),
	}
}

func badge(fg, bg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg)).Padding(0, 1)
}

func (t theme) toggled() theme {
	if t.name == "dark" {
		return lightTheme()
	}
	return darkTheme()
}
