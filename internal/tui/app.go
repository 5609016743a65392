// Package tui renders minimap frames in a terminal and hosts the interactive
// config wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/nirimap/internal/daemon"
)

// Controller is the part of the daemon the renderer drives from key presses.
type Controller interface {
	SetVisible(ctx context.Context, visible bool) error
	Reload(ctx context.Context) error
}

// maxCanvasRows caps the canvas height so small minimaps stay small.
const maxCanvasRows = 12

const actionTimeout = 2 * time.Second

type frameMsg daemon.Frame

type framesClosedMsg struct{}

type actionResultMsg struct {
	action string
	err    error
}

// model is the root bubbletea model for the live renderer.
type model struct {
	frames <-chan daemon.Frame
	ctrl   Controller

	frame     daemon.Frame
	haveFrame bool
	styles    styles

	keys keyMap
	help help.Model

	status  string
	lastErr string

	width  int
	height int
}

func newModel(frames <-chan daemon.Frame, ctrl Controller) model {
	return model{
		frames: frames,
		ctrl:   ctrl,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

func waitForFrame(frames <-chan daemon.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

func (m model) runAction(name string, fn func(ctx context.Context) error) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{action: name, err: fn(ctx)}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = daemon.Frame(msg)
		m.haveFrame = true
		m.styles = newStyles(m.frame.Appearance)
		return m, waitForFrame(m.frames)

	case framesClosedMsg:
		return m, tea.Quit

	case actionResultMsg:
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.status = ""
		} else {
			m.lastErr = ""
			m.status = msg.action + " ok"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Show):
			return m, m.runAction("show", func(ctx context.Context) error {
				return m.ctrl.SetVisible(ctx, true)
			})
		case key.Matches(msg, m.keys.Hide):
			return m, m.runAction("hide", func(ctx context.Context) error {
				return m.ctrl.SetVisible(ctx, false)
			})
		case key.Matches(msg, m.keys.Reload):
			return m, m.runAction("reload", func(ctx context.Context) error {
				return m.ctrl.Reload(ctx)
			})
		}
	}
	return m, nil
}

func (m model) statusLine() string {
	if !m.haveFrame {
		return m.styles.status.Render("waiting for niri…")
	}
	f := m.frame
	workspace := "none"
	if f.WorkspaceID != nil {
		workspace = fmt.Sprintf("%d", *f.WorkspaceID)
	}
	visibility := "hidden"
	if f.Visible {
		visibility = "visible"
	}
	line := fmt.Sprintf("workspace %s · %d windows · %dx%d px · %s",
		workspace, len(f.Projection.Rects), f.Width, f.Height, visibility)
	if m.status != "" {
		line += " · " + m.status
	}
	out := m.styles.status.Render(line)
	if m.lastErr != "" {
		out += "\n" + m.styles.errorText.Render(m.lastErr)
	}
	return out
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	footer := lipgloss.JoinVertical(lipgloss.Left, m.statusLine(), m.help.View(m.keys))
	bodyHeight := m.height - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var block string
	if m.haveFrame && m.frame.Visible {
		margins := anchorMargins(m.frame.Display)
		maxCols := m.width - margins.GetHorizontalMargins()
		maxRows := min(bodyHeight-margins.GetVerticalMargins(), maxCanvasRows)
		cols, rows := canvasSize(m.frame.Width, m.frame.Height, maxCols, maxRows)
		if cols > 0 {
			block = margins.Render(renderCanvas(m.frame, cols, rows).render(m.styles.cell))
		}
	}

	h, v := anchorPosition(m.frame.Display.Anchor)
	body := lipgloss.Place(m.width, bodyHeight, h, v, block)
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// Run renders frames until the user quits, frames is closed, or ctx is
// cancelled.
func Run(ctx context.Context, frames <-chan daemon.Frame, ctrl Controller) error {
	p := tea.NewProgram(newModel(frames, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled)) {
		return nil
	}
	return err
}
