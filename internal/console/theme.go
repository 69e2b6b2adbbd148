// Package console renders a customer view for the terminal, used by the
// lookup command.
package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Theme centralizes all styling of the terminal view.
type Theme struct {
	// Status colors
	Green  lipgloss.Style
	Red    lipgloss.Style
	Orange lipgloss.Style
	Plain  lipgloss.Style

	// UI elements
	Border  lipgloss.Style
	Title   lipgloss.Style
	Section lipgloss.Style
	Dim     lipgloss.Style
	Key     lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Green:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00C853")),
		Red:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3D00")),
		Orange: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9100")),
		Plain:  lipgloss.NewStyle(),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")),
		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")),
		Dim: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Key: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	}
}

// Status returns the style of a status color.
func (t Theme) Status(c commerce.Color) lipgloss.Style {
	switch c {
	case commerce.ColorGreen:
		return t.Green
	case commerce.ColorRed:
		return t.Red
	case commerce.ColorOrange:
		return t.Orange
	default:
		return t.Plain
	}
}
