package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/nirimap/internal/config"
)

type styles struct {
	background    lipgloss.Style
	frame         lipgloss.Style
	window        lipgloss.Style
	windowBorder  lipgloss.Style
	focused       lipgloss.Style
	focusedBorder lipgloss.Style
	status        lipgloss.Style
	errorText     lipgloss.Style
}

func newStyles(a config.Appearance) styles {
	// Config colours may omit the '#', which lipgloss would read as an ANSI
	// index. Normalize through the parsed form.
	bgc, winc, focc, borderc := a.Colors()
	bg := lipgloss.Color(bgc.Hex())
	win := lipgloss.Color(winc.Hex())
	foc := lipgloss.Color(focc.Hex())
	border := lipgloss.Color(borderc.Hex())

	return styles{
		background:    lipgloss.NewStyle().Background(bg),
		frame:         lipgloss.NewStyle().Background(bg).Foreground(border),
		window:        lipgloss.NewStyle().Background(win),
		windowBorder:  lipgloss.NewStyle().Background(win).Foreground(border),
		focused:       lipgloss.NewStyle().Background(foc),
		focusedBorder: lipgloss.NewStyle().Background(foc).Foreground(bg).Bold(true),
		status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		errorText:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (s styles) cell(k cellKind, text string) string {
	switch k {
	case cellFrame:
		return s.frame.Render(text)
	case cellWindow:
		return s.window.Render(text)
	case cellWindowBorder:
		return s.windowBorder.Render(text)
	case cellFocused:
		return s.focused.Render(text)
	case cellFocusedBorder:
		return s.focusedBorder.Render(text)
	default:
		return s.background.Render(text)
	}
}

// anchorPosition maps an anchor to lipgloss placement.
func anchorPosition(a config.Anchor) (h, v lipgloss.Position) {
	h, v = lipgloss.Center, lipgloss.Center
	switch {
	case a.Left():
		h = lipgloss.Left
	case a.Right():
		h = lipgloss.Right
	}
	switch {
	case a.Top():
		v = lipgloss.Top
	case a.Bottom():
		v = lipgloss.Bottom
	}
	return h, v
}

// anchorMargins applies the configured margins on the anchored edges only.
func anchorMargins(d config.Display) lipgloss.Style {
	style := lipgloss.NewStyle()
	// Terminal cells are roughly 8x16 pixels.
	mx, my := d.MarginX/8, d.MarginY/16
	if d.Anchor.Left() {
		style = style.MarginLeft(mx)
	}
	if d.Anchor.Right() {
		style = style.MarginRight(mx)
	}
	if d.Anchor.Top() {
		style = style.MarginTop(my)
	}
	if d.Anchor.Bottom() {
		style = style.MarginBottom(my)
	}
	return style
}
