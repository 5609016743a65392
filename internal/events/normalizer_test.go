package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/nirimap/internal/niri"
)

type fakeStream struct {
	mu     sync.Mutex
	events []*niri.Event
	err    error
	block  bool
	closed chan struct{}
	once   sync.Once
}

func newFakeStream(err error, events ...*niri.Event) *fakeStream {
	return &fakeStream{events: events, err: err, closed: make(chan struct{})}
}

func (s *fakeStream) Next() (*niri.Event, error) {
	s.mu.Lock()
	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		s.mu.Unlock()
		return ev, nil
	}
	block := s.block
	s.mu.Unlock()

	if block {
		<-s.closed
		return nil, errors.New("use of closed network connection")
	}
	return nil, s.err
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeSource struct {
	workspaces []niri.Workspace
	windows    []niri.Window
	stream     *fakeStream
	fetchErr   error
	calls      []string
}

func (f *fakeSource) Workspaces(context.Context) ([]niri.Workspace, error) {
	f.calls = append(f.calls, "Workspaces")
	return f.workspaces, f.fetchErr
}

func (f *fakeSource) Windows(context.Context) ([]niri.Window, error) {
	f.calls = append(f.calls, "Windows")
	return f.windows, nil
}

func (f *fakeSource) EventStream(context.Context) (Stream, error) {
	f.calls = append(f.calls, "EventStream")
	return f.stream, nil
}

func strp(s string) *string { return &s }
func uptr(v uint64) *uint64 { return &v }

func tiledLayout(col, idx uint32, w, h float64) niri.WindowLayout {
	return niri.WindowLayout{
		PosInScrollingLayout:   &niri.Vec2[uint32]{X: col, Y: idx},
		TileSize:               niri.Vec2[float64]{X: w, Y: h},
		TilePosInWorkspaceView: &niri.Vec2[float64]{X: 0, Y: 0},
	}
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func drain(ch chan Update) []Update {
	var out []Update
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestRun_FullStateFirstThenEvents(t *testing.T) {
	src := &fakeSource{
		workspaces: []niri.Workspace{
			{ID: 1, Name: strp("main"), Output: strp("DP-1"), IsFocused: true, IsActive: true},
			{ID: 2, Output: strp("DP-1")},
		},
		windows: []niri.Window{
			{ID: 10, Title: strp("term"), WorkspaceID: uptr(1), IsFocused: true, Layout: tiledLayout(1, 1, 100, 100)},
			{ID: 11, WorkspaceID: uptr(2), Layout: tiledLayout(2, 1, 50, 50)},
			{ID: 12, Layout: tiledLayout(1, 1, 50, 50)},
		},
		stream: newFakeStream(io.EOF,
			&niri.Event{Kind: "WindowClosed", WindowClosed: &niri.WindowClosed{ID: 11}},
			&niri.Event{Kind: "OverviewOpenedOrClosed"},
			&niri.Event{Kind: "WindowFocusChanged", WindowFocusChanged: &niri.WindowFocusChanged{ID: nil}},
		),
	}

	out := make(chan Update, 16)
	err := NewNormalizer(src, nil).Run(context.Background(), out)
	if !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("Run() error = %v, want ErrStreamClosed", err)
	}

	if strings.Join(src.calls, ",") != "Workspaces,Windows,EventStream" {
		t.Fatalf("calls = %v", src.calls)
	}

	updates := drain(out)
	if len(updates) != 3 {
		t.Fatalf("got %d updates, want 3: %#v", len(updates), updates)
	}

	full, ok := updates[0].(FullState)
	if !ok {
		t.Fatalf("first update = %T, want FullState", updates[0])
	}
	st := full.State
	if id, ok := st.ActiveWorkspaceID(); !ok || id != 1 {
		t.Fatalf("active workspace = %d,%v, want 1", id, ok)
	}
	if id, ok := st.FocusedWindowID(); !ok || id != 10 {
		t.Fatalf("focused window = %d,%v, want 10", id, ok)
	}
	if st.OutputName != "DP-1" {
		t.Fatalf("output name = %q", st.OutputName)
	}
	if st.Workspaces[1].Name != "main" {
		t.Fatalf("workspace name = %q", st.Workspaces[1].Name)
	}
	if st.WindowCount() != 2 {
		t.Fatalf("window count = %d, want 2 (window without workspace skipped)", st.WindowCount())
	}
	if w := st.Workspaces[2].Windows[11]; w.Column != 1 || w.Index != 0 {
		t.Fatalf("window 11 col/idx = %d/%d, want 1/0", w.Column, w.Index)
	}

	if c, ok := updates[1].(WindowClosed); !ok || c.ID != 11 {
		t.Fatalf("second update = %#v", updates[1])
	}
	if f, ok := updates[2].(FocusChanged); !ok || f.ID != nil {
		t.Fatalf("third update = %#v", updates[2])
	}
}

func TestRun_FetchErrorIsReturned(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("connection refused")}
	out := make(chan Update, 1)

	err := NewNormalizer(src, nil).Run(context.Background(), out)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Run() error = %v", err)
	}
	if len(drain(out)) != 0 {
		t.Fatal("no update should be sent when the initial fetch fails")
	}
}

func TestRun_MalformedEventIsFatal(t *testing.T) {
	parseErr := errors.New("failed to parse event: unexpected end of JSON input")
	src := &fakeSource{stream: newFakeStream(parseErr)}
	out := make(chan Update, 4)

	err := NewNormalizer(src, nil).Run(context.Background(), out)
	if !errors.Is(err, parseErr) {
		t.Fatalf("Run() error = %v, want wrapped parse error", err)
	}
}

func TestRun_CancelReturnsNil(t *testing.T) {
	stream := newFakeStream(nil)
	stream.block = true
	src := &fakeSource{stream: stream}
	out := make(chan Update, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewNormalizer(src, nil).Run(ctx, out) }()

	<-out // FullState
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_CancelWhileConsumerGone(t *testing.T) {
	src := &fakeSource{stream: newFakeStream(io.EOF)}
	out := make(chan Update) // nobody receives

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewNormalizer(src, nil).Run(ctx, out) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked on send after cancel")
	}
}

func TestNormalize_IndexConversion(t *testing.T) {
	logger, buf := captureLogger()
	n := NewNormalizer(nil, logger)

	u, ok := n.Normalize(&niri.Event{
		Kind: "WindowLayoutsChanged",
		WindowLayoutsChanged: &niri.WindowLayoutsChanged{Changes: []niri.LayoutChange{
			{ID: 1, Layout: tiledLayout(1, 1, 10, 10)},
			{ID: 2, Layout: tiledLayout(0, 3, 10, 10)},
		}},
	})
	if !ok {
		t.Fatal("layouts event ignored")
	}
	changes := u.(LayoutsChanged).Changes
	if changes[0].Column != 0 || changes[0].Index != 0 {
		t.Fatalf("(1,1) -> (%d,%d), want (0,0)", changes[0].Column, changes[0].Index)
	}
	if changes[1].Column != 0 || changes[1].Index != 2 {
		t.Fatalf("(0,3) -> (%d,%d), want (0,2)", changes[1].Column, changes[1].Index)
	}
	if !strings.Contains(buf.String(), "zero 1-based index") || !strings.Contains(buf.String(), "window_id=2") {
		t.Fatalf("expected warning for window 2, log:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "window_id=1 ") {
		t.Fatal("valid index should not warn")
	}
}

func TestNormalize_FloatingClassification(t *testing.T) {
	n := NewNormalizer(nil, nil)

	u, _ := n.Normalize(&niri.Event{
		Kind: "WindowOpenedOrChanged",
		WindowOpenedOrChanged: &niri.WindowOpenedOrChanged{Window: niri.Window{
			ID:          3,
			WorkspaceID: uptr(1),
			Layout: niri.WindowLayout{
				TileSize:               niri.Vec2[float64]{X: 300, Y: 200},
				TilePosInWorkspaceView: &niri.Vec2[float64]{X: -40, Y: 12},
			},
		}},
	})
	wc := u.(WindowChanged)
	if !wc.Window.Floating || wc.Window.Column != 0 || wc.Window.Index != 0 {
		t.Fatalf("window = %+v, want floating at 0/0", wc.Window)
	}
	if wc.Window.Pos.X != -40 || wc.Window.Size.Width != 300 {
		t.Fatalf("window geometry = %+v", wc.Window)
	}

	u, _ = n.Normalize(&niri.Event{
		Kind:                 "WindowLayoutsChanged",
		WindowLayoutsChanged: &niri.WindowLayoutsChanged{Changes: []niri.LayoutChange{{ID: 3}}},
	})
	c := u.(LayoutsChanged).Changes[0]
	if !c.Floating || c.Pos != nil {
		t.Fatalf("change = %+v, want floating with absent position", c)
	}
}

func TestNormalize_WorkspaceActivated(t *testing.T) {
	n := NewNormalizer(nil, nil)
	u, ok := n.Normalize(&niri.Event{
		Kind:               "WorkspaceActivated",
		WorkspaceActivated: &niri.WorkspaceActivated{ID: 4, Focused: true},
	})
	if !ok {
		t.Fatal("workspace activation ignored")
	}
	if wa := u.(WorkspaceActivated); wa.ID != 4 || !wa.Focused {
		t.Fatalf("update = %+v", wa)
	}
}
