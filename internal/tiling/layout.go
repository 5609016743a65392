package tiling

import (
	"math"

	"github.com/1broseidon/nirimap/internal/state"
)

// DefaultPadding is the inset between the minimap edge and its content.
const DefaultPadding = 4.0

// Rect is a projected window in minimap pixel coordinates.
type Rect struct {
	WindowID uint64  `json:"window_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Focused  bool    `json:"focused"`
}

// Box is the pixel area the workspace is projected into.
type Box struct {
	Width  float64
	Height float64
}

// Style holds the drawing parameters that affect geometry.
type Style struct {
	Padding float64
	Gap     float64
}

// Projection is the result of fitting a workspace into a Box. When Empty is
// true there is nothing to draw and the other fields are zero.
type Projection struct {
	Empty   bool       `json:"empty"`
	Natural state.Size `json:"natural"`
	Scale   float64    `json:"scale"`
	Rects   []Rect     `json:"rects"`
}

// Measure returns the natural (unscaled) size of the workspace's tiled content.
// It reports false when there is no tiled content.
func Measure(ws *state.Workspace) (state.Size, bool) {
	if ws == nil {
		return state.Size{}, false
	}
	size := state.Size{Width: ws.TiledWidth(), Height: ws.TiledHeight()}
	if size.Empty() {
		return state.Size{}, false
	}
	return size, true
}

// Scale is the height-fit factor mapping natural height into the box height
// minus padding on both sides.
func Scale(natural state.Size, height, padding float64) float64 {
	if natural.Height <= 0 {
		return 0
	}
	return (height - 2*padding) / natural.Height
}

// IdealWidth is the box width that fits the natural content at the height-fit
// scale, rounded up to whole pixels.
func IdealWidth(natural state.Size, height, padding float64) int {
	scale := Scale(natural, height, padding)
	return int(math.Ceil(natural.Width*scale + 2*padding))
}

// FitWidth clamps an ideal width into [height, maxWidthPercent*screenWidth].
// The lower bound wins so the minimap is never narrower than it is tall.
func FitWidth(ideal, height int, maxWidthPercent float64, screenWidth int) int {
	width := float64(ideal)
	if maxWidth := maxWidthPercent * float64(screenWidth); width > maxWidth {
		width = maxWidth
	}
	if width < float64(height) {
		width = float64(height)
	}
	return int(width)
}

// BoxWidth sizes the minimap for a workspace: the fitted ideal width, or a
// square of the given height when there is nothing to project.
func BoxWidth(ws *state.Workspace, height int, padding, maxWidthPercent float64, screenWidth int) int {
	natural, ok := Measure(ws)
	if !ok {
		return height
	}
	ideal := IdealWidth(natural, float64(height), padding)
	return FitWidth(ideal, height, maxWidthPercent, screenWidth)
}

// Project scales the workspace's tiled windows into box. Rects are ordered by
// column, then by position in the column. Floating windows are never
// projected. Identical inputs always yield identical output.
func Project(ws *state.Workspace, box Box, style Style) Projection {
	natural, ok := Measure(ws)
	if !ok {
		return Projection{Empty: true}
	}

	scale := Scale(natural, box.Height, style.Padding)
	if scale <= 0 {
		return Projection{Empty: true}
	}

	innerWidth := box.Width - 2*style.Padding
	offsetX := style.Padding + math.Max(innerWidth-natural.Width*scale, 0)/2
	offsetY := style.Padding
	halfGap := style.Gap / 2

	var rects []Rect
	colX := 0.0
	for _, col := range ws.Columns() {
		y := 0.0
		for _, win := range col.Windows {
			w := win.Size.Width * scale
			h := win.Size.Height * scale
			x0 := offsetX + colX*scale
			y0 := offsetY + y*scale
			y += win.Size.Height

			if math.Round(w) < 1 || math.Round(h) < 1 {
				continue
			}

			rects = append(rects, Rect{
				WindowID: win.ID,
				X:        x0 + halfGap,
				Y:        y0 + halfGap,
				Width:    math.Max(w-style.Gap, 1),
				Height:   math.Max(h-style.Gap, 1),
				Focused:  win.Focused,
			})
		}
		colX += col.Width()
	}

	return Projection{
		Natural: natural,
		Scale:   scale,
		Rects:   rects,
	}
}
