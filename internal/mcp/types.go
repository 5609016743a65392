package mcp

import (
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/tiling"
)

// GetStateInput is the input for the get_minimap_state tool.
type GetStateInput struct {
	WorkspaceID *uint64 `json:"workspace_id,omitempty" jsonschema:"Only return this workspace. Default: all workspaces."`
}

// GetStateOutput is the output for the get_minimap_state tool.
type GetStateOutput struct {
	Source string         `json:"source"`
	State  state.Snapshot `json:"state"`
}

// GetLayoutInput is the input for the get_minimap_layout tool.
type GetLayoutInput struct {
	WorkspaceID *uint64 `json:"workspace_id,omitempty" jsonschema:"Workspace to project (default: the active workspace)"`
	Height      int     `json:"height,omitempty" jsonschema:"Minimap height in pixels (default: display.height from config)"`
	ScreenWidth int     `json:"screen_width,omitempty" jsonschema:"Screen width used for the max_width_percent clamp (default: detected)"`
}

// GetLayoutOutput is the output for the get_minimap_layout tool.
type GetLayoutOutput struct {
	WorkspaceID *uint64       `json:"workspace_id,omitempty"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ScreenWidth int           `json:"screen_width"`
	Empty       bool          `json:"empty"`
	Natural     state.Size    `json:"natural"`
	Scale       float64       `json:"scale"`
	Rects       []tiling.Rect `json:"rects"`
}

// GetStatusInput is the input for the get_minimap_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_minimap_status tool.
type GetStatusOutput struct {
	Running         bool    `json:"running"`
	Visible         bool    `json:"visible"`
	ActiveWorkspace *uint64 `json:"active_workspace,omitempty"`
	WindowCount     int     `json:"window_count"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	Error           string  `json:"error,omitempty"`
}
