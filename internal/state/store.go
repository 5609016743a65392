package state

import "sort"

// LayoutChange is a layout-only update for one window. A nil Pos keeps the
// window's current position.
type LayoutChange struct {
	ID       uint64
	Pos      *Point
	Size     Size
	Floating bool
	Column   int
	Index    int
}

// Store is the canonical model: workspaces keyed by id, plus the active
// workspace and focused window.
//
// Every mutation keeps these invariants:
//   - at most one window carries Focused, and it is the focused id when set;
//   - at most one workspace carries Active, and the active id is a key of
//     Workspaces when set;
//   - a window id lives in at most one workspace.
type Store struct {
	Workspaces map[uint64]*Workspace

	// OutputName is display metadata tracked alongside the model. Clear keeps
	// it.
	OutputName string

	activeID   uint64
	hasActive  bool
	focusedID  uint64
	hasFocused bool
}

// New returns an empty store.
func New() *Store {
	return &Store{Workspaces: make(map[uint64]*Workspace)}
}

// ActiveWorkspaceID returns the active workspace id, if set.
func (s *Store) ActiveWorkspaceID() (uint64, bool) {
	return s.activeID, s.hasActive
}

// FocusedWindowID returns the focused window id, if set.
func (s *Store) FocusedWindowID() (uint64, bool) {
	return s.focusedID, s.hasFocused
}

// ActiveWorkspace returns the active workspace, or false when none is set or
// the id no longer resolves.
func (s *Store) ActiveWorkspace() (*Workspace, bool) {
	if !s.hasActive {
		return nil, false
	}
	ws, ok := s.Workspaces[s.activeID]
	return ws, ok
}

// Workspace looks up a workspace by id.
func (s *Store) Workspace(id uint64) (*Workspace, bool) {
	ws, ok := s.Workspaces[id]
	return ws, ok
}

// FindWindow locates a window and the workspace holding it.
func (s *Store) FindWindow(id uint64) (*Window, *Workspace, bool) {
	for _, ws := range s.Workspaces {
		if w, ok := ws.Windows[id]; ok {
			return w, ws, true
		}
	}
	return nil, nil, false
}

// WindowCount is the number of windows across all workspaces.
func (s *Store) WindowCount() int {
	n := 0
	for _, ws := range s.Workspaces {
		n += len(ws.Windows)
	}
	return n
}

// EnsureWorkspace returns the workspace with id, creating it when absent.
func (s *Store) EnsureWorkspace(id uint64) *Workspace {
	ws, ok := s.Workspaces[id]
	if !ok {
		ws = newWorkspace(id)
		s.Workspaces[id] = ws
	}
	return ws
}

// UpsertWindow inserts or fully replaces a window in the given workspace,
// creating the workspace when absent. The window is first removed from any
// other workspace. The incoming Focused flag is authoritative: true moves focus
// to this window, false clears focus if this window held it.
func (s *Store) UpsertWindow(workspaceID uint64, w Window) {
	for id, ws := range s.Workspaces {
		if id != workspaceID {
			delete(ws.Windows, w.ID)
		}
	}

	ws := s.EnsureWorkspace(workspaceID)
	focused := w.Focused
	w.Focused = false
	stored := w
	ws.Windows[w.ID] = &stored

	switch {
	case focused:
		id := w.ID
		s.SetFocusedWindow(&id)
	case s.hasFocused && s.focusedID == w.ID:
		s.SetFocusedWindow(nil)
	}
}

// ApplyLayout applies a layout-only update to the window with the change's id
// wherever it lives. Identity, title, focus and workspace membership are
// untouched. It reports whether the window was found.
func (s *Store) ApplyLayout(c LayoutChange) bool {
	w, _, ok := s.FindWindow(c.ID)
	if !ok {
		return false
	}
	if c.Pos != nil {
		w.Pos = *c.Pos
	}
	w.Size = c.Size
	w.Floating = c.Floating
	if c.Floating {
		w.Column, w.Index = 0, 0
	} else {
		w.Column, w.Index = c.Column, c.Index
	}
	return true
}

// RemoveWindow removes the window from every workspace. Removing the focused
// window clears the focused id. Unknown ids are a no-op.
func (s *Store) RemoveWindow(id uint64) {
	for _, ws := range s.Workspaces {
		delete(ws.Windows, id)
	}
	if s.hasFocused && s.focusedID == id {
		s.focusedID, s.hasFocused = 0, false
	}
}

// SetFocusedWindow moves focus to id, or clears it when id is nil. The
// previous focus flag is cleared before the new one is set.
func (s *Store) SetFocusedWindow(id *uint64) {
	if s.hasFocused {
		if w, _, ok := s.FindWindow(s.focusedID); ok {
			w.Focused = false
		}
	}

	if id == nil {
		s.focusedID, s.hasFocused = 0, false
		return
	}

	s.focusedID, s.hasFocused = *id, true
	if w, _, ok := s.FindWindow(*id); ok {
		w.Focused = true
	}
}

// SetActiveWorkspace marks id as the only active workspace, creating it when
// the store has not seen it yet.
func (s *Store) SetActiveWorkspace(id uint64) {
	for _, ws := range s.Workspaces {
		ws.Active = false
	}
	s.activeID, s.hasActive = id, true
	s.EnsureWorkspace(id).Active = true
}

// Clear drops all workspaces and resets the active and focused ids.
// OutputName is kept.
func (s *Store) Clear() {
	s.Workspaces = make(map[uint64]*Workspace)
	s.activeID, s.hasActive = 0, false
	s.focusedID, s.hasFocused = 0, false
}

// Replace clears the store and adopts the contents of next. OutputName is
// kept unless next carries one.
func (s *Store) Replace(next *Store) {
	s.Clear()
	if next == nil {
		return
	}
	for id, ws := range next.Workspaces {
		s.Workspaces[id] = ws.clone()
	}
	s.activeID, s.hasActive = next.activeID, next.hasActive
	s.focusedID, s.hasFocused = next.focusedID, next.hasFocused
	if next.OutputName != "" {
		s.OutputName = next.OutputName
	}
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	cp := New()
	cp.Replace(s)
	cp.OutputName = s.OutputName
	return cp
}

// Snapshot is a read-only, ordered view of a store.
type Snapshot struct {
	OutputName        string              `json:"output_name,omitempty"`
	ActiveWorkspaceID *uint64             `json:"active_workspace_id"`
	FocusedWindowID   *uint64             `json:"focused_window_id"`
	Workspaces        []WorkspaceSnapshot `json:"workspaces"`
}

type WorkspaceSnapshot struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Output  string   `json:"output,omitempty"`
	Active  bool     `json:"active"`
	Windows []Window `json:"windows"`
}

// Snapshot returns workspaces and windows sorted by id.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{OutputName: s.OutputName, Workspaces: []WorkspaceSnapshot{}}
	if s.hasActive {
		id := s.activeID
		snap.ActiveWorkspaceID = &id
	}
	if s.hasFocused {
		id := s.focusedID
		snap.FocusedWindowID = &id
	}

	ids := make([]uint64, 0, len(s.Workspaces))
	for id := range s.Workspaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		ws := s.Workspaces[id]
		entry := WorkspaceSnapshot{
			ID:      ws.ID,
			Name:    ws.Name,
			Output:  ws.Output,
			Active:  ws.Active,
			Windows: make([]Window, 0, len(ws.Windows)),
		}
		for _, w := range ws.SortedWindows() {
			entry.Windows = append(entry.Windows, *w)
		}
		snap.Workspaces = append(snap.Workspaces, entry)
	}
	return snap
}
