package tui

import (
	"math"
	"strings"

	"github.com/1broseidon/nirimap/internal/daemon"
	"github.com/1broseidon/nirimap/internal/tiling"
)

type cellKind uint8

const (
	cellBackground cellKind = iota
	cellFrame
	cellWindow
	cellWindowBorder
	cellFocused
	cellFocusedBorder
)

// canvas is a character grid standing in for the minimap surface. The outer
// ring holds the frame border; window rects are mapped into the interior.
type canvas struct {
	cols, rows int
	runes      [][]rune
	kinds      [][]cellKind
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.runes = make([][]rune, rows)
	c.kinds = make([][]cellKind, rows)
	for y := range c.runes {
		c.runes[y] = make([]rune, cols)
		c.kinds[y] = make([]cellKind, cols)
		for x := range c.runes[y] {
			c.runes[y][x] = ' '
		}
	}
	return c
}

// canvasSize picks a grid that keeps the frame's aspect ratio, assuming
// terminal cells are twice as tall as they are wide.
func canvasSize(frameW, frameH, maxCols, maxRows int) (cols, rows int) {
	if frameW <= 0 || frameH <= 0 || maxCols < 3 || maxRows < 3 {
		return 0, 0
	}
	rows = maxRows
	cols = int(math.Round(float64(rows) * 2 * float64(frameW) / float64(frameH)))
	if cols > maxCols {
		cols = maxCols
		rows = int(math.Round(float64(cols) * float64(frameH) / (2 * float64(frameW))))
	}
	if cols < 3 {
		cols = 3
	}
	if rows < 3 {
		rows = 3
	}
	return cols, rows
}

// renderCanvas draws the frame's projection into a cols x rows grid.
func renderCanvas(f daemon.Frame, cols, rows int) *canvas {
	if cols < 3 || rows < 3 {
		return newCanvas(0, 0)
	}
	c := newCanvas(cols, rows)
	if f.Appearance.BorderWidth > 0 {
		c.drawBorder(f.Appearance.BorderRadius > 0)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return c
	}
	for _, r := range f.Projection.Rects {
		c.drawRect(r, float64(f.Width), float64(f.Height))
	}
	return c
}

func (c *canvas) set(x, y int, r rune, k cellKind) {
	if y < 0 || y >= c.rows || x < 0 || x >= c.cols {
		return
	}
	c.runes[y][x] = r
	c.kinds[y][x] = k
}

func (c *canvas) drawBorder(rounded bool) {
	w, h := c.cols, c.rows
	for x := 0; x < w; x++ {
		c.set(x, 0, '─', cellFrame)
		c.set(x, h-1, '─', cellFrame)
	}
	for y := 0; y < h; y++ {
		c.set(0, y, '│', cellFrame)
		c.set(w-1, y, '│', cellFrame)
	}
	if rounded {
		c.set(0, 0, '╭', cellFrame)
		c.set(w-1, 0, '╮', cellFrame)
		c.set(0, h-1, '╰', cellFrame)
		c.set(w-1, h-1, '╯', cellFrame)
		return
	}
	c.set(0, 0, '┌', cellFrame)
	c.set(w-1, 0, '┐', cellFrame)
	c.set(0, h-1, '└', cellFrame)
	c.set(w-1, h-1, '┘', cellFrame)
}

// drawRect maps a rect from frame pixels into the interior cells.
func (c *canvas) drawRect(r tiling.Rect, frameW, frameH float64) {
	innerW := float64(c.cols - 2)
	innerH := float64(c.rows - 2)

	x1 := 1 + int(math.Floor(r.X*innerW/frameW))
	y1 := 1 + int(math.Floor(r.Y*innerH/frameH))
	x2 := int(math.Ceil((r.X+r.Width)*innerW/frameW)) // inclusive, already offset by the border
	y2 := int(math.Ceil((r.Y+r.Height)*innerH/frameH))

	x1, x2 = clampSpan(x1, x2, c.cols-2)
	y1, y2 = clampSpan(y1, y2, c.rows-2)

	fill, border := cellWindow, cellWindowBorder
	h, v, tl, tr, bl, br := '─', '│', '┌', '┐', '└', '┘'
	if r.Focused {
		fill, border = cellFocused, cellFocusedBorder
		h, v, tl, tr, bl, br = '━', '┃', '┏', '┓', '┗', '┛'
	}

	// Too small for a box: mark the cells.
	if x2 == x1 || y2 == y1 {
		for y := y1; y <= y2; y++ {
			for x := x1; x <= x2; x++ {
				c.set(x, y, '▪', fill)
			}
		}
		return
	}

	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			c.set(x, y, ' ', fill)
		}
	}
	for x := x1; x <= x2; x++ {
		c.set(x, y1, h, border)
		c.set(x, y2, h, border)
	}
	for y := y1; y <= y2; y++ {
		c.set(x1, y, v, border)
		c.set(x2, y, v, border)
	}
	c.set(x1, y1, tl, border)
	c.set(x2, y1, tr, border)
	c.set(x1, y2, bl, border)
	c.set(x2, y2, br, border)
}

// clampSpan keeps [lo, hi] inside [1, limit] with lo <= hi.
func clampSpan(lo, hi, limit int) (int, int) {
	if lo < 1 {
		lo = 1
	}
	if lo > limit {
		lo = limit
	}
	if hi > limit {
		hi = limit
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// lines returns the grid as plain text.
func (c *canvas) lines() []string {
	out := make([]string, c.rows)
	for y, row := range c.runes {
		out[y] = string(row)
	}
	return out
}

// render joins the grid, styling each run of equal cell kinds with style.
func (c *canvas) render(style func(cellKind, string) string) string {
	var sb strings.Builder
	for y := 0; y < c.rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.cols; x++ {
			if x < c.cols && c.kinds[y][x] == c.kinds[y][start] {
				continue
			}
			sb.WriteString(style(c.kinds[y][start], string(c.runes[y][start:x])))
			start = x
		}
	}
	return sb.String()
}
