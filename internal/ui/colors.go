package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	help     lipgloss.Style
}

// NewPalette builds a [Palette] from accent, success, warning and help colors.
func NewPalette(accent, ok, w, h string) *Palette {
	return &Palette{
		title:    NewBold(accent).MarginBottom(1),
		cursor:   NewBold(accent),
		selected: NewStyle(ok),
		muted:    NewStyle(w),
		help:     NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
