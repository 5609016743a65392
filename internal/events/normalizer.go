package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/nirimap/internal/niri"
	"github.com/1broseidon/nirimap/internal/state"
)

// ErrStreamClosed is returned by Run when niri closes the event stream.
var ErrStreamClosed = errors.New("niri closed the event stream")

// Stream yields decoded raw events until it fails or is closed.
type Stream interface {
	Next() (*niri.Event, error)
	Close() error
}

// Source is the transport the normalizer reads from.
type Source interface {
	Workspaces(ctx context.Context) ([]niri.Workspace, error)
	Windows(ctx context.Context) ([]niri.Window, error)
	EventStream(ctx context.Context) (Stream, error)
}

// ClientSource adapts a niri.Client to Source.
type ClientSource struct {
	*niri.Client
}

func (s ClientSource) EventStream(ctx context.Context) (Stream, error) {
	stream, err := s.Client.EventStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Normalizer converts raw niri data into canonical updates.
type Normalizer struct {
	source Source
	logger *slog.Logger
}

func NewNormalizer(source Source, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{source: source, logger: logger}
}

// Run fetches the initial state, sends it as a FullState, then subscribes to
// the event stream and sends one update per relevant event, in order.
//
// Run blocks until the stream fails or ctx is cancelled. Transport failures
// and malformed events end the stream and are returned; nothing is retried.
// After cancellation Run returns nil and pending sends are dropped.
//
// out is never closed by Run. If the consumer stops receiving, Run blocks on
// the send and stops reading the socket, leaving backpressure to niri.
func (n *Normalizer) Run(ctx context.Context, out chan<- Update) error {
	full, err := n.FetchFullState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to fetch initial state: %w", err)
	}
	if !send(ctx, out, FullState{State: full}) {
		return nil
	}

	stream, err := n.source.EventStream(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer stream.Close()

	// Closing the stream unblocks the pending read on cancellation.
	stop := context.AfterFunc(ctx, func() { stream.Close() })
	defer stop()

	n.logger.Debug("subscribed to niri event stream")

	for {
		ev, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrStreamClosed
			}
			return fmt.Errorf("event stream: %w", err)
		}

		update, ok := n.Normalize(ev)
		if !ok {
			continue
		}
		if !send(ctx, out, update) {
			return nil
		}
	}
}

func send(ctx context.Context, out chan<- Update, u Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// FetchFullState queries workspaces then windows and builds a store from
// them. The globally focused workspace becomes active; windows attach to their
// reported workspace, and windows without one are skipped.
func (n *Normalizer) FetchFullState(ctx context.Context) (*state.Store, error) {
	workspaces, err := n.source.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	windows, err := n.source.Windows(ctx)
	if err != nil {
		return nil, err
	}

	st := state.New()
	for _, raw := range workspaces {
		ws := st.EnsureWorkspace(raw.ID)
		ws.Name = niri.StringValue(raw.Name)
		ws.Output = niri.StringValue(raw.Output)
		if raw.IsFocused {
			st.SetActiveWorkspace(raw.ID)
			st.OutputName = ws.Output
		}
	}

	for _, raw := range windows {
		if raw.WorkspaceID == nil {
			n.logger.Debug("skipping window without workspace", "window_id", raw.ID)
			continue
		}
		st.UpsertWindow(*raw.WorkspaceID, n.window(raw))
	}

	return st, nil
}

// Normalize maps one raw event to an update. It reports false for event kinds
// the minimap does not track.
func (n *Normalizer) Normalize(ev *niri.Event) (Update, bool) {
	switch {
	case ev == nil:
		return nil, false
	case ev.WindowOpenedOrChanged != nil:
		raw := ev.WindowOpenedOrChanged.Window
		return WindowChanged{Window: n.window(raw), WorkspaceID: raw.WorkspaceID}, true
	case ev.WindowClosed != nil:
		return WindowClosed{ID: ev.WindowClosed.ID}, true
	case ev.WindowFocusChanged != nil:
		return FocusChanged{ID: ev.WindowFocusChanged.ID}, true
	case ev.WorkspaceActivated != nil:
		return WorkspaceActivated{ID: ev.WorkspaceActivated.ID, Focused: ev.WorkspaceActivated.Focused}, true
	case ev.WindowLayoutsChanged != nil:
		changes := make([]state.LayoutChange, 0, len(ev.WindowLayoutsChanged.Changes))
		for _, c := range ev.WindowLayoutsChanged.Changes {
			changes = append(changes, n.layoutChange(c.ID, c.Layout))
		}
		return LayoutsChanged{Changes: changes}, true
	default:
		n.logger.Debug("ignoring niri event", "kind", ev.Kind)
		return nil, false
	}
}

func (n *Normalizer) window(raw niri.Window) state.Window {
	lc := n.layoutChange(raw.ID, raw.Layout)
	w := state.Window{
		ID:       raw.ID,
		AppID:    niri.StringValue(raw.AppID),
		Title:    niri.StringValue(raw.Title),
		Size:     lc.Size,
		Column:   lc.Column,
		Index:    lc.Index,
		Focused:  raw.IsFocused,
		Floating: lc.Floating,
	}
	if lc.Pos != nil {
		w.Pos = *lc.Pos
	}
	return w
}

// layoutChange derives the layout fields. A window is floating exactly when
// it has no scrolling-layout position; floating windows keep column and index
// at zero.
func (n *Normalizer) layoutChange(id uint64, layout niri.WindowLayout) state.LayoutChange {
	c := state.LayoutChange{
		ID:   id,
		Size: state.Size{Width: layout.TileSize.X, Height: layout.TileSize.Y},
	}
	if p := layout.TilePosInWorkspaceView; p != nil {
		c.Pos = &state.Point{X: p.X, Y: p.Y}
	}
	if pos := layout.PosInScrollingLayout; pos != nil {
		c.Column = n.zeroBased(id, "column", pos.X)
		c.Index = n.zeroBased(id, "index", pos.Y)
	} else {
		c.Floating = true
	}
	return c
}

// zeroBased converts a 1-based index. A raw zero is invalid; it is logged and
// treated as 1 so the window stays in the model.
func (n *Normalizer) zeroBased(id uint64, field string, raw uint32) int {
	if raw == 0 {
		n.logger.Warn("niri reported a zero 1-based index", "window_id", id, "field", field, "raw", raw)
		return 0
	}
	return int(raw - 1)
}
