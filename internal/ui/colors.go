package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F56", "#FFA500", "#626262")

var _ Painter = (*Palette)(nil)

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	active lipgloss.Style
	cursor lipgloss.Style
	banner lipgloss.Style
	notice lipgloss.Style
	muted  lipgloss.Style
	help   lipgloss.Style
	pane   lipgloss.Style
	focus  lipgloss.Style
	bar    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	border := lipgloss.RoundedBorder()
	return &Palette{
		title:  NewBold(t),
		active: NewBold(s),
		cursor: NewBold(t).Reverse(true),
		banner: NewBold(e).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color(e)).PaddingLeft(1),
		notice: NewStyle(w),
		muted:  NewStyle(h),
		help:   NewEm(h),
		pane:   lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		focus:  lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
		bar:    lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color(h)),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
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
