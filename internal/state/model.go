// Package state holds the canonical in-memory model of niri workspaces and
// windows. A Store has a single owner and is not safe for concurrent use.
package state

import "sort"

// Point is a position in logical pixels. Components may be negative.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a non-negative extent in logical pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Window is one toplevel window. Column and Index are 0-based and are zero for
// floating windows.
type Window struct {
	ID       uint64 `json:"id"`
	AppID    string `json:"app_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Pos      Point  `json:"pos"`
	Size     Size   `json:"size"`
	Column   int    `json:"column"`
	Index    int    `json:"index"`
	Focused  bool   `json:"focused"`
	Floating bool   `json:"floating"`
}

// Workspace groups windows by id.
type Workspace struct {
	ID      uint64             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Output  string             `json:"output,omitempty"`
	Windows map[uint64]*Window `json:"-"`
	Active  bool               `json:"active"`
}

func newWorkspace(id uint64) *Workspace {
	return &Workspace{ID: id, Windows: make(map[uint64]*Window)}
}

// Column is one column of the scrolling layout, top to bottom.
type Column struct {
	Index   int
	Windows []*Window
}

// Width is the widest window in the column; zero for a column with no
// windows.
func (c Column) Width() float64 {
	var w float64
	for _, win := range c.Windows {
		if win.Size.Width > w {
			w = win.Size.Width
		}
	}
	return w
}

// Height is the summed height of the column's windows.
func (c Column) Height() float64 {
	var h float64
	for _, win := range c.Windows {
		h += win.Size.Height
	}
	return h
}

// Columns groups tiled windows by column index in ascending order. Windows
// within a column are ordered by Index, then by ID. Floating windows are
// excluded. Column indices with no windows are skipped; they would contribute
// zero width to the natural size.
func (ws *Workspace) Columns() []Column {
	if ws == nil {
		return nil
	}

	byIndex := make(map[int]*Column)
	for _, w := range ws.Windows {
		if w.Floating {
			continue
		}
		c, ok := byIndex[w.Column]
		if !ok {
			c = &Column{Index: w.Column}
			byIndex[w.Column] = c
		}
		c.Windows = append(c.Windows, w)
	}
	if len(byIndex) == 0 {
		return nil
	}

	cols := make([]Column, 0, len(byIndex))
	for _, c := range byIndex {
		sort.Slice(c.Windows, func(a, b int) bool {
			wa, wb := c.Windows[a], c.Windows[b]
			if wa.Index != wb.Index {
				return wa.Index < wb.Index
			}
			return wa.ID < wb.ID
		})
		cols = append(cols, *c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })
	return cols
}

// TiledWidth is the sum of column widths.
func (ws *Workspace) TiledWidth() float64 {
	var total float64
	for _, c := range ws.Columns() {
		total += c.Width()
	}
	return total
}

// TiledHeight is the tallest column height.
func (ws *Workspace) TiledHeight() float64 {
	var h float64
	for _, c := range ws.Columns() {
		if ch := c.Height(); ch > h {
			h = ch
		}
	}
	return h
}

// MinTiledX is the smallest x position among tiled windows, or zero when the
// workspace has none.
func (ws *Workspace) MinTiledX() float64 {
	first := true
	var minX float64
	if ws == nil {
		return 0
	}
	for _, w := range ws.Windows {
		if w.Floating {
			continue
		}
		if first || w.Pos.X < minX {
			minX = w.Pos.X
			first = false
		}
	}
	return minX
}

// SortedWindows returns the workspace's windows ordered by id.
func (ws *Workspace) SortedWindows() []*Window {
	if ws == nil {
		return nil
	}
	out := make([]*Window, 0, len(ws.Windows))
	for _, w := range ws.Windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (ws *Workspace) clone() *Workspace {
	cp := *ws
	cp.Windows = make(map[uint64]*Window, len(ws.Windows))
	for id, w := range ws.Windows {
		wc := *w
		cp.Windows[id] = &wc
	}
	return &cp
}
