package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Title in Spotify green, outcomes in traffic-light colors.
var styles = NewPalette("#1DB954", "#04B575", "#FF5F57", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style // headings
	ok    lipgloss.Style // added
	err   lipgloss.Style // failed
	warn  lipgloss.Style // no match, cancelled
	help  lipgloss.Style // skipped, log lines
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
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
