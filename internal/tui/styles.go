package tui

import (
	"pokedex/internal/pokedex"

	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	Title    lipgloss.Style
	Selected lipgloss.Style
	Row      lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Header   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFCB05")),
		Selected: lipgloss.NewStyle().Bold(true).PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true),
		Row:      lipgloss.NewStyle().PaddingLeft(2),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C03028")),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// typeBadge renders a type name on its table colour.
func typeBadge(typeName string) string {
	meta := pokedex.Meta(typeName)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(meta.Color)).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(meta.Emoji + " " + typeName)
}

// nameStyle tints a row by its primary type.
func nameStyle(primaryType string) lipgloss.Style {
	if primaryType == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(pokedex.Meta(primaryType).Color))
}
