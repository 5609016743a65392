package niri

import (
	"encoding/json"
	"fmt"
)

// Window is a toplevel window as reported by niri.
type Window struct {
	ID          uint64       `json:"id"`
	Title       *string      `json:"title"`
	AppID       *string      `json:"app_id"`
	PID         *int32       `json:"pid"`
	WorkspaceID *uint64      `json:"workspace_id"`
	IsFocused   bool         `json:"is_focused"`
	IsFloating  bool         `json:"is_floating"`
	IsUrgent    bool         `json:"is_urgent"`
	Layout      WindowLayout `json:"layout"`
}

// WindowLayout holds position and size properties of a window.
//
// All values are in logical pixels and may be fractional. Optional fields are
// absent for some window kinds (floating windows have no scrolling position).
type WindowLayout struct {
	// 1-based (column, tile) location in the scrolling layout. Nil when the
	// window is floating.
	PosInScrollingLayout   *Vec2[uint32]  `json:"pos_in_scrolling_layout"`
	TileSize               Vec2[float64]  `json:"tile_size"`
	WindowSize             Vec2[int32]    `json:"window_size"`
	TilePosInWorkspaceView *Vec2[float64] `json:"tile_pos_in_workspace_view"`
	WindowOffsetInTile     Vec2[float64]  `json:"window_offset_in_tile"`
}

// Workspace is a niri workspace.
type Workspace struct {
	ID             uint64  `json:"id"`
	Index          uint8   `json:"idx"`
	Name           *string `json:"name"`
	Output         *string `json:"output"`
	IsUrgent       bool    `json:"is_urgent"`
	IsActive       bool    `json:"is_active"`
	IsFocused      bool    `json:"is_focused"`
	ActiveWindowID *uint64 `json:"active_window_id"`
}

// Output is a connected output (monitor).
type Output struct {
	Name    string         `json:"name"`
	Make    string         `json:"make"`
	Model   string         `json:"model"`
	Logical *LogicalOutput `json:"logical"`
}

// LogicalOutput is the logical (scaled) geometry of an output. It is nil for
// disabled outputs.
type LogicalOutput struct {
	X         int32   `json:"x"`
	Y         int32   `json:"y"`
	Width     uint32  `json:"width"`
	Height    uint32  `json:"height"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
}

// Numeric is a type constraint for the component types of Vec2.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Vec2 is a pair encoded on the wire as a 2-element JSON array.
type Vec2[T Numeric] struct {
	X T
	Y T
}

func (v Vec2[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]T{v.X, v.Y})
}

func (v *Vec2[T]) UnmarshalJSON(data []byte) error {
	var arr []T
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("expected array of length 2, got %d", len(arr))
	}
	v.X = arr[0]
	v.Y = arr[1]
	return nil
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
