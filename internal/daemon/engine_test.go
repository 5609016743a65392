package daemon

import (
	"math"
	"testing"
	"time"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/visibility"
)

func u64(v uint64) *uint64 { return &v }

func testConfig(alwaysVisible bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Behavior.AlwaysVisible = alwaysVisible
	cfg.Behavior.HideTimeoutMs = 1000
	return cfg
}

var testScreen = display.Screen{Output: "DP-1", Width: 1920, Height: 1080, Source: display.SourceNiri}

func newTestEngine(alwaysVisible bool) (*Engine, *visibility.ManualScheduler) {
	sched := visibility.NewManualScheduler()
	return NewEngine(testConfig(alwaysVisible), testScreen, sched, nil), sched
}

func singleWindowState() *state.Store {
	s := state.New()
	s.SetActiveWorkspace(1)
	s.UpsertWindow(1, state.Window{
		ID:      10,
		Size:    state.Size{Width: 100, Height: 100},
		Focused: true,
	})
	return s
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEngine_FullStateProjectsWithoutShowing(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})

	f := e.Frame()
	if f.Visible {
		t.Fatal("full state must not make the minimap visible")
	}
	if sched.Pending() != 0 {
		t.Fatalf("full state armed %d timers", sched.Pending())
	}
	if f.Width != 100 || f.Height != 100 {
		t.Fatalf("frame size = %dx%d, want 100x100", f.Width, f.Height)
	}
	if len(f.Projection.Rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(f.Projection.Rects))
	}
	r := f.Projection.Rects[0]
	if r.WindowID != 10 || !r.Focused {
		t.Fatalf("rect = %+v", r)
	}
	if !near(r.X, 5) || !near(r.Y, 5) || !near(r.Width, 90) || !near(r.Height, 90) {
		t.Fatalf("rect geometry = %+v, want 90x90 at (5,5)", r)
	}
	if f.WorkspaceID == nil || *f.WorkspaceID != 1 {
		t.Fatalf("workspace id = %v", f.WorkspaceID)
	}
}

func TestEngine_FullStateAlwaysVisible(t *testing.T) {
	e, sched := newTestEngine(true)
	e.Apply(events.FullState{State: singleWindowState()})
	if !e.Frame().Visible {
		t.Fatal("always-visible engine should start visible")
	}
	if sched.Pending() != 0 {
		t.Fatal("always-visible must not arm timers")
	}
}

func TestEngine_FocusDedup(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})

	e.Apply(events.FocusChanged{ID: u64(5)})
	e.Apply(events.FocusChanged{ID: u64(5)})

	if sched.Armed() != 1 {
		t.Fatalf("armed %d timers, want exactly 1", sched.Armed())
	}
	if !e.Visibility().Visible() {
		t.Fatal("focus change should show")
	}

	sched.Advance(time.Second)
	if e.Visibility().Visible() {
		t.Fatal("auto-hide did not fire")
	}
}

func TestEngine_NewWindowShowsPropertyChangeDoesNot(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})

	e.Apply(events.WindowChanged{
		Window: state.Window{ID: 10, Title: "renamed", Size: state.Size{Width: 100, Height: 100}, Focused: true},
	})
	if e.Visibility().Visible() || sched.Armed() != 0 {
		t.Fatal("property update of an existing window must not show")
	}
	w, ws, ok := e.Store().FindWindow(10)
	if !ok || w.Title != "renamed" || ws.ID != 1 {
		t.Fatalf("existing window should stay on workspace 1 with new title, got %+v", w)
	}

	e.Apply(events.WindowChanged{Window: state.Window{ID: 11, Size: state.Size{Width: 50, Height: 100}}, WorkspaceID: u64(1)})
	if !e.Visibility().Visible() || sched.Armed() != 1 {
		t.Fatal("new window should show and arm auto-hide")
	}
}

func TestEngine_WindowWithoutWorkspaceSkippedWhenNew(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.WindowChanged{Window: state.Window{ID: 42}})
	if _, _, ok := e.Store().FindWindow(42); ok {
		t.Fatal("window without a workspace should be skipped")
	}
	if sched.Armed() != 0 {
		t.Fatal("skipped window must not show")
	}
}

func TestEngine_WorkspaceActivation(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})

	e.Apply(events.WorkspaceActivated{ID: 1, Focused: true})
	if sched.Armed() != 0 {
		t.Fatal("re-activating the active workspace must not show")
	}

	e.Apply(events.WorkspaceActivated{ID: 2, Focused: false})
	if id, _ := e.Store().ActiveWorkspaceID(); id != 1 || sched.Armed() != 0 {
		t.Fatal("unfocused activation must not change the active workspace")
	}

	e.Apply(events.WorkspaceActivated{ID: 2, Focused: true})
	if id, _ := e.Store().ActiveWorkspaceID(); id != 2 {
		t.Fatalf("active workspace = %d, want 2", id)
	}
	if sched.Armed() != 1 || !e.Visibility().Visible() {
		t.Fatal("newly focused workspace should show")
	}

	f := e.Frame()
	if !f.Projection.Empty || f.Width != f.Height {
		t.Fatalf("empty workspace should project empty square, got %+v", f)
	}
}

func TestEngine_LayoutsChangedShows(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})

	e.Apply(events.LayoutsChanged{Changes: []state.LayoutChange{
		{ID: 10, Size: state.Size{Width: 200, Height: 100}},
		{ID: 999, Size: state.Size{Width: 1, Height: 1}},
	}})
	if sched.Armed() != 1 {
		t.Fatalf("layout change armed %d timers, want 1", sched.Armed())
	}
	w, _, _ := e.Store().FindWindow(10)
	if w.Size.Width != 200 {
		t.Fatalf("layout not applied: %+v", w.Size)
	}
	// 200x100 natural at scale 0.92 -> ceil(184+8) = 192.
	if f := e.Frame(); f.Width != 192 {
		t.Fatalf("frame width = %d, want 192", f.Width)
	}
}

func TestEngine_WindowClosedClearsFocus(t *testing.T) {
	e, sched := newTestEngine(false)
	e.Apply(events.FullState{State: singleWindowState()})
	e.Apply(events.WindowClosed{ID: 10})

	if _, ok := e.Store().FocusedWindowID(); ok {
		t.Fatal("closing the focused window should clear focus")
	}
	if sched.Armed() != 0 {
		t.Fatal("closing a window does not change visibility")
	}
	if st := e.Status(); st.Windows != 0 || st.Workspaces != 1 {
		t.Fatalf("status = %+v", st)
	}
}

func TestEngine_FrameWidthClampsToScreen(t *testing.T) {
	e, _ := newTestEngine(true)
	s := state.New()
	s.SetActiveWorkspace(1)
	for i := 0; i < 20; i++ {
		s.UpsertWindow(1, state.Window{ID: uint64(i + 1), Column: i, Size: state.Size{Width: 1000, Height: 100}})
	}
	e.Apply(events.FullState{State: s})

	if f := e.Frame(); f.Width != 960 {
		t.Fatalf("frame width = %d, want 960 (half the screen)", f.Width)
	}

	e.SetScreen(display.Screen{Width: 400})
	if f := e.Frame(); f.Width != 200 {
		t.Fatalf("frame width = %d, want 200", f.Width)
	}
}

func TestEngine_SetConfigTogglesAlwaysVisible(t *testing.T) {
	e, sched := newTestEngine(true)

	e.SetConfig(testConfig(false))
	if !e.Visibility().Visible() || sched.Pending() != 1 {
		t.Fatal("leaving always-visible while visible should arm auto-hide")
	}

	e.SetConfig(testConfig(true))
	if !e.Visibility().Visible() || sched.Pending() != 0 {
		t.Fatal("entering always-visible should show and disarm")
	}
}
