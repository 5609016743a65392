// Package events turns raw niri events into the canonical updates applied to
// the minimap model.
package events

import "github.com/1broseidon/nirimap/internal/state"

// Update is one canonical update. The set of implementations is closed.
type Update interface {
	isUpdate()
}

// FullState replaces the whole model. It is always the first update of a
// stream.
type FullState struct {
	State *state.Store
}

// WindowChanged carries a window that opened or whose properties changed.
// WorkspaceID is nil when niri did not attribute the window to a workspace.
type WindowChanged struct {
	Window      state.Window
	WorkspaceID *uint64
}

type WindowClosed struct {
	ID uint64
}

// FocusChanged carries the newly focused window, or nil when focus left all
// windows.
type FocusChanged struct {
	ID *uint64
}

// WorkspaceActivated reports that a workspace became active on its output.
// Focused is true when it also became the globally focused workspace.
type WorkspaceActivated struct {
	ID      uint64
	Focused bool
}

// LayoutsChanged carries layout-only changes in arrival order.
type LayoutsChanged struct {
	Changes []state.LayoutChange
}

func (FullState) isUpdate()          {}
func (WindowChanged) isUpdate()      {}
func (WindowClosed) isUpdate()       {}
func (FocusChanged) isUpdate()       {}
func (WorkspaceActivated) isUpdate() {}
func (LayoutsChanged) isUpdate()     {}
