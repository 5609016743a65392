package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/tiling"
)

func (s *Server) handleGetState(ctx context.Context, _ *mcpsdk.CallToolRequest, args GetStateInput) (*mcpsdk.CallToolResult, GetStateOutput, error) {
	snap, source, err := s.snapshot(ctx)
	if err != nil {
		return nil, GetStateOutput{}, err
	}

	if args.WorkspaceID != nil {
		filtered := snap.Workspaces[:0:0]
		for _, ws := range snap.Workspaces {
			if ws.ID == *args.WorkspaceID {
				filtered = append(filtered, ws)
			}
		}
		if len(filtered) == 0 {
			return nil, GetStateOutput{}, fmt.Errorf("workspace %d not found", *args.WorkspaceID)
		}
		snap.Workspaces = filtered
	}

	return nil, GetStateOutput{Source: source, State: snap}, nil
}

// snapshot prefers the daemon's model and falls back to a one-shot niri query.
func (s *Server) snapshot(ctx context.Context) (state.Snapshot, string, error) {
	if s.daemon != nil {
		snap, err := s.daemon.GetState()
		if err == nil {
			return *snap, "daemon", nil
		}
		s.logger.Debug("daemon state unavailable, querying niri", "error", err)
	}
	store, err := s.fetch(ctx)
	if err != nil {
		return state.Snapshot{}, "", err
	}
	return store.Snapshot(), "niri", nil
}

func (s *Server) fetch(ctx context.Context) (*state.Store, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("niri is not available (is NIRI_SOCKET set?)")
	}
	store, err := s.fetcher.FetchFullState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query niri: %w", err)
	}
	return store, nil
}

func (s *Server) handleGetLayout(ctx context.Context, _ *mcpsdk.CallToolRequest, args GetLayoutInput) (*mcpsdk.CallToolResult, GetLayoutOutput, error) {
	if args.Height < 0 || args.ScreenWidth < 0 {
		return nil, GetLayoutOutput{}, fmt.Errorf("height and screen_width must be >= 0")
	}
	if args.Height != 0 && args.Height < config.MinHeight {
		return nil, GetLayoutOutput{}, fmt.Errorf("height must be >= %d", config.MinHeight)
	}

	store, err := s.fetch(ctx)
	if err != nil {
		return nil, GetLayoutOutput{}, err
	}

	var ws *state.Workspace
	if args.WorkspaceID != nil {
		found, ok := store.Workspace(*args.WorkspaceID)
		if !ok {
			return nil, GetLayoutOutput{}, fmt.Errorf("workspace %d not found", *args.WorkspaceID)
		}
		ws = found
	} else if active, ok := store.ActiveWorkspace(); ok {
		ws = active
	}

	height := args.Height
	if height == 0 {
		height = s.config.Display.Height
	}
	screenWidth := args.ScreenWidth
	if screenWidth == 0 {
		screenWidth = display.FallbackWidth
		if s.screen != nil {
			screenWidth = s.screen.Detect(ctx).Width
		}
	}

	width := tiling.BoxWidth(ws, height, tiling.DefaultPadding, s.config.Display.MaxWidthPercent, screenWidth)
	proj := tiling.Project(ws,
		tiling.Box{Width: float64(width), Height: float64(height)},
		tiling.Style{Padding: tiling.DefaultPadding, Gap: s.config.Appearance.Gap},
	)

	out := GetLayoutOutput{
		Width:       width,
		Height:      height,
		ScreenWidth: screenWidth,
		Empty:       proj.Empty,
		Natural:     proj.Natural,
		Scale:       proj.Scale,
		Rects:       proj.Rects,
	}
	if out.Rects == nil {
		out.Rects = []tiling.Rect{}
	}
	if ws != nil {
		id := ws.ID
		out.WorkspaceID = &id
	}
	return nil, out, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	if s.daemon == nil {
		return nil, GetStatusOutput{Error: "daemon client not configured"}, nil
	}
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{Error: err.Error()}, nil
	}
	return nil, GetStatusOutput{
		Running:         st.DaemonRunning,
		Visible:         st.Visible,
		ActiveWorkspace: st.ActiveWorkspace,
		WindowCount:     st.WindowCount,
		Width:           st.Width,
		Height:          st.Height,
		UptimeSeconds:   st.UptimeSeconds,
	}, nil
}
