package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/nirimap/internal/daemon"
	"github.com/1broseidon/nirimap/internal/tiling"
)

type fakeController struct {
	visible []bool
	reloads int
	err     error
}

func (f *fakeController) SetVisible(_ context.Context, v bool) error {
	f.visible = append(f.visible, v)
	return f.err
}

func (f *fakeController) Reload(context.Context) error {
	f.reloads++
	return f.err
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_FrameUpdatesView(t *testing.T) {
	frames := make(chan daemon.Frame, 1)
	m := newModel(frames, nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(model)
	if !strings.Contains(m.View(), "waiting for niri") {
		t.Fatalf("view before first frame:\n%s", m.View())
	}

	id := uint64(3)
	f := testFrame(tiling.Rect{WindowID: 1, X: 5, Y: 5, Width: 90, Height: 90, Focused: true})
	f.WorkspaceID = &id
	next, cmd := m.Update(frameMsg(f))
	m = next.(model)
	if cmd == nil {
		t.Fatal("frame must re-arm the frame wait")
	}
	view := m.View()
	if !strings.Contains(view, "workspace 3") || !strings.Contains(view, "1 windows") {
		t.Fatalf("status line missing:\n%s", view)
	}
	if !strings.Contains(view, "┏") {
		t.Fatalf("focused window not drawn:\n%s", view)
	}
}

func TestModel_HiddenFrameDrawsNothing(t *testing.T) {
	m := newModel(make(chan daemon.Frame), nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	f := testFrame(tiling.Rect{WindowID: 1, X: 5, Y: 5, Width: 90, Height: 90, Focused: true})
	f.Visible = false
	next, _ = next.(model).Update(frameMsg(f))
	view := next.(model).View()
	if strings.Contains(view, "┏") {
		t.Fatalf("hidden frame drawn:\n%s", view)
	}
	if !strings.Contains(view, "hidden") {
		t.Fatalf("status should say hidden:\n%s", view)
	}
}

func TestModel_KeysDriveController(t *testing.T) {
	ctrl := &fakeController{}
	m := newModel(make(chan daemon.Frame), ctrl)

	tests := []struct {
		key    rune
		action string
	}{
		{'s', "show"},
		{'h', "hide"},
		{'r', "reload"},
	}
	for _, tt := range tests {
		_, cmd := m.Update(runeKey(tt.key))
		if cmd == nil {
			t.Fatalf("key %q: no command", tt.key)
		}
		msg, ok := cmd().(actionResultMsg)
		if !ok || msg.action != tt.action || msg.err != nil {
			t.Fatalf("key %q: result = %+v", tt.key, msg)
		}
	}
	if len(ctrl.visible) != 2 || !ctrl.visible[0] || ctrl.visible[1] {
		t.Fatalf("SetVisible calls = %v", ctrl.visible)
	}
	if ctrl.reloads != 1 {
		t.Fatalf("reloads = %d", ctrl.reloads)
	}
}

func TestModel_ActionErrorShown(t *testing.T) {
	m := newModel(make(chan daemon.Frame), nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.(model).Update(actionResultMsg{action: "reload", err: errors.New("bad yaml")})
	if !strings.Contains(next.(model).View(), "reload failed: bad yaml") {
		t.Fatalf("error not shown:\n%s", next.(model).View())
	}
}

func TestModel_NilControllerIgnoresKeys(t *testing.T) {
	m := newModel(make(chan daemon.Frame), nil)
	if _, cmd := m.Update(runeKey('s')); cmd != nil {
		t.Fatal("expected no command without a controller")
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel(make(chan daemon.Frame), nil)
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}

	_, cmd = m.Update(framesClosedMsg{})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("closed frames did not quit")
	}
}
