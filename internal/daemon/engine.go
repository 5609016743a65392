// Package daemon owns the minimap model. A single goroutine applies
// canonical updates to the store, drives the visibility controller, and
// publishes frames for the renderer.
package daemon

import (
	"io"
	"log/slog"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/tiling"
	"github.com/1broseidon/nirimap/internal/visibility"
)

// Frame is an immutable description of what the renderer should draw.
type Frame struct {
	Visible     bool              `json:"visible"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	WorkspaceID *uint64           `json:"workspace_id,omitempty"`
	Projection  tiling.Projection `json:"projection"`
	Display     config.Display    `json:"display"`
	Appearance  config.Appearance `json:"appearance"`
	Screen      display.Screen    `json:"screen"`
}

// Status summarizes the engine for status queries.
type Status struct {
	Visible         bool    `json:"visible"`
	AlwaysVisible   bool    `json:"always_visible"`
	HidePending     bool    `json:"hide_pending"`
	ActiveWorkspace *uint64 `json:"active_workspace,omitempty"`
	FocusedWindow   *uint64 `json:"focused_window,omitempty"`
	Workspaces      int     `json:"workspaces"`
	Windows         int     `json:"windows"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Output          string  `json:"output,omitempty"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
}

// Engine applies updates to the store and decides visibility. It is not safe
// for concurrent use; Runner serializes all access.
type Engine struct {
	cfg    *config.Config
	screen display.Screen
	store  *state.Store
	vis    *visibility.Controller
	logger *slog.Logger
}

// NewEngine returns an engine over an empty store. The controller starts
// visible only when cfg says always-visible.
func NewEngine(cfg *config.Config, screen display.Screen, sched visibility.Scheduler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	store := state.New()
	store.OutputName = screen.Output
	return &Engine{
		cfg:    cfg,
		screen: screen,
		store:  store,
		vis:    visibility.New(visibilityOptions(cfg), sched),
		logger: logger,
	}
}

func visibilityOptions(cfg *config.Config) visibility.Options {
	return visibility.Options{
		AlwaysVisible: cfg.Behavior.AlwaysVisible,
		HideTimeout:   cfg.HideTimeout(),
	}
}

func (e *Engine) Store() *state.Store {
	return e.store
}

func (e *Engine) Visibility() *visibility.Controller {
	return e.vis
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

// SetConfig swaps the configuration and applies the new visibility options.
func (e *Engine) SetConfig(cfg *config.Config) {
	e.cfg = cfg
	e.vis.SetOptions(visibilityOptions(cfg))
}

// SetScreen replaces the screen geometry used for width clamping.
func (e *Engine) SetScreen(screen display.Screen) {
	e.screen = screen
	if screen.Output != "" {
		e.store.OutputName = screen.Output
	}
}

// Apply mutates the store for u and runs the matching visibility transition:
// a new window shows, a property-only change does not, a focus change goes
// through the focus dedup, a newly focused workspace shows, any layout change
// shows, and a full state replacement leaves visibility alone.
func (e *Engine) Apply(u events.Update) {
	switch u := u.(type) {
	case events.FullState:
		if u.State == nil {
			return
		}
		e.store.Replace(u.State)
		e.logger.Debug("applied full state",
			"workspaces", len(e.store.Workspaces),
			"windows", e.store.WindowCount())

	case events.WindowChanged:
		_, current, known := e.store.FindWindow(u.Window.ID)
		var workspaceID uint64
		switch {
		case u.WorkspaceID != nil:
			workspaceID = *u.WorkspaceID
		case known:
			workspaceID = current.ID
		default:
			e.logger.Debug("skipping window without workspace", "window_id", u.Window.ID)
			return
		}
		e.store.UpsertWindow(workspaceID, u.Window)
		if !known {
			e.vis.Show()
		}

	case events.WindowClosed:
		e.store.RemoveWindow(u.ID)

	case events.FocusChanged:
		e.store.SetFocusedWindow(u.ID)
		e.vis.ShowOnFocusChange(u.ID)

	case events.WorkspaceActivated:
		if !u.Focused {
			return
		}
		prev, hadActive := e.store.ActiveWorkspaceID()
		e.store.SetActiveWorkspace(u.ID)
		if !hadActive || prev != u.ID {
			e.vis.Show()
		}

	case events.LayoutsChanged:
		for _, change := range u.Changes {
			if !e.store.ApplyLayout(change) {
				e.logger.Debug("layout change for unknown window", "window_id", change.ID)
			}
		}
		e.vis.Show()
	}
}

// Show forces the minimap visible, arming auto-hide as configured.
func (e *Engine) Show() {
	e.vis.Show()
}

// Hide hides the minimap and drops any pending auto-hide.
func (e *Engine) Hide() {
	e.vis.Hide()
}

// Frame projects the active workspace at the configured height.
func (e *Engine) Frame() Frame {
	height := e.cfg.Display.Height
	ws, ok := e.store.ActiveWorkspace()
	if !ok {
		ws = nil
	}

	width := tiling.BoxWidth(ws, height, tiling.DefaultPadding, e.cfg.Display.MaxWidthPercent, e.screen.Width)
	proj := tiling.Project(ws,
		tiling.Box{Width: float64(width), Height: float64(height)},
		tiling.Style{Padding: tiling.DefaultPadding, Gap: e.cfg.Appearance.Gap},
	)

	frame := Frame{
		Visible:    e.vis.Visible(),
		Width:      width,
		Height:     height,
		Projection: proj,
		Display:    e.cfg.Display,
		Appearance: e.cfg.Appearance,
		Screen:     e.screen,
	}
	if id, ok := e.store.ActiveWorkspaceID(); ok {
		frame.WorkspaceID = &id
	}
	return frame
}

// Status reports the current model and visibility.
func (e *Engine) Status() Status {
	frame := e.Frame()
	st := Status{
		Visible:       e.vis.Visible(),
		AlwaysVisible: e.vis.Options().AlwaysVisible,
		HidePending:   e.vis.Pending(),
		Workspaces:    len(e.store.Workspaces),
		Windows:       e.store.WindowCount(),
		Width:         frame.Width,
		Height:        frame.Height,
		Output:        e.store.OutputName,
	}
	if id, ok := e.store.ActiveWorkspaceID(); ok {
		st.ActiveWorkspace = &id
	}
	if id, ok := e.store.FocusedWindowID(); ok {
		st.FocusedWindow = &id
	}
	return st
}
