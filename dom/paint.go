// ABOUTME: Hit testing and character-cell painting of a laid out document
// ABOUTME: Scroll offsets and clipping of non-visible overflow apply to both

package dom

import (
	"math"

	"scrollspeed/scroll"
)

// Rect is an absolute box in px
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside r
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of r and o, zero sized when they do not meet
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.X+r.W, o.X+o.W)
	y1 := math.Min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether r has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// visitFunc sees each element with its absolute box and the clip its parent imposes
type visitFunc func(el *Element, box, clip Rect)

// visit walks the rendered tree of d placed at origin, parents first
func (d *Document) visit(originX, originY float64, clip Rect, fn visitFunc) {
	d.visitElement(d.root, originX, originY, clip, fn)
}

func (d *Document) visitElement(el *Element, originX, originY float64, clip Rect, fn visitFunc) {
	box := Rect{X: originX + el.x, Y: originY + el.y, W: el.w, H: el.h}
	fn(el, box, clip)

	childClip := clip
	if el == d.root || el.clips() {
		childClip = clip.Intersect(box)
	}
	if childClip.Empty() {
		return
	}

	contentX := box.X - el.scrollX
	contentY := box.Y - el.scrollY
	for _, c := range el.children {
		d.visitElement(c, contentX, contentY, childClip, fn)
	}
}

// clips reports whether overflowing content is cut at the element's box
func (e *Element) clips() bool {
	return e.style.OverflowX != scroll.OverflowVisible || e.style.OverflowY != scroll.OverflowVisible
}

// ElementAt returns the innermost element drawn at the viewport point (x, y),
// descending into frames. It returns nil outside the viewport.
func (d *Document) ElementAt(x, y float64) *Element {
	viewport := Rect{W: d.viewport.Width, H: d.viewport.Height}
	if !viewport.Contains(x, y) {
		return nil
	}

	var hit *Element
	var hitBox Rect
	d.visit(0, 0, viewport, func(el *Element, box, clip Rect) {
		if box.Intersect(clip).Contains(x, y) {
			hit, hitBox = el, box
		}
	})

	if hit != nil && hit.frameDoc != nil {
		if inner := hit.frameDoc.ElementAt(x-hitBox.X, y-hitBox.Y); inner != nil {
			return inner
		}
	}
	return hit
}

// CellKind classifies a painted cell
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellScrollTrack
	CellScrollThumb
)

// Cell is one character position on a canvas
type Cell struct {
	Ch    rune
	Kind  CellKind
	Frame int // frame nesting depth, 0 for the top document
}

// Canvas is a grid of cells, one per CellWidth x CellHeight px
type Canvas struct {
	Cols, Rows int
	Cells      []Cell
}

// NewCanvas returns a blank canvas
func NewCanvas(cols, rows int) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &Canvas{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	c.Clear()
	return c
}

// Clear resets every cell to a blank
func (c *Canvas) Clear() {
	for i := range c.Cells {
		c.Cells[i] = Cell{Ch: ' '}
	}
}

// At returns the cell at col, row; out of range positions read as blank
func (c *Canvas) At(col, row int) Cell {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return Cell{Ch: ' '}
	}
	return c.Cells[row*c.Cols+col]
}

// Row returns one row of cells
func (c *Canvas) Row(row int) []Cell {
	if row < 0 || row >= c.Rows {
		return nil
	}
	return c.Cells[row*c.Cols : (row+1)*c.Cols]
}

// String renders the canvas as plain text, one line per row
func (c *Canvas) String() string {
	buf := make([]rune, 0, (c.Cols+1)*c.Rows)
	for r := 0; r < c.Rows; r++ {
		for _, cell := range c.Row(r) {
			buf = append(buf, cell.Ch)
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// set writes a cell if the px position is inside clip
func (c *Canvas) set(px, py float64, clip Rect, cell Cell) {
	if !clip.Contains(px+CellWidth/2, py+CellHeight/2) {
		return
	}
	col := int(math.Floor(px / CellWidth))
	row := int(math.Floor(py / CellHeight))
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return
	}
	c.Cells[row*c.Cols+col] = cell
}

// Paint draws the document into c, which is cleared first
func (d *Document) Paint(c *Canvas) {
	c.Clear()
	viewport := Rect{W: d.viewport.Width, H: d.viewport.Height}
	d.paint(c, 0, 0, viewport, 0)
}

func (d *Document) paint(c *Canvas, originX, originY float64, clip Rect, depth int) {
	d.visit(originX, originY, clip, func(el *Element, box, clip Rect) {
		contentX := box.X - el.scrollX
		contentY := box.Y - el.scrollY

		textClip := clip
		if el == d.root || el.clips() {
			textClip = clip.Intersect(box)
		}
		for _, tb := range el.texts {
			for i, line := range tb.lines {
				y := contentY + tb.y + float64(i)*CellHeight
				col := 0
				for _, r := range line {
					c.set(contentX+float64(col)*CellWidth, y, textClip, Cell{Ch: r, Kind: CellText, Frame: depth})
					col++
				}
			}
		}

		if el.frameDoc != nil {
			el.frameDoc.paint(c, box.X, box.Y, clip.Intersect(box), depth+1)
		}

		el.paintScrollbar(c, box, clip, depth)
	})
}

// paintScrollbar draws a vertical bar on the last column of a scrollable box
func (e *Element) paintScrollbar(c *Canvas, box, clip Rect, depth int) {
	if !isScrollContainer(e.style.OverflowY) || e.style.OverflowY == scroll.OverflowHidden {
		if e != e.doc.root {
			return
		}
	}
	if !e.Overflows(scroll.AxisY) {
		return
	}

	rows := int(box.H / CellHeight)
	if rows < 1 {
		return
	}
	scrollH := e.ScrollSize(scroll.AxisY)
	thumb := int(math.Max(1, math.Round(float64(rows)*e.h/scrollH)))
	start := int(math.Round(float64(rows) * e.scrollY / scrollH))
	if start+thumb > rows {
		start = rows - thumb
	}

	x := box.X + box.W - CellWidth
	for r := 0; r < rows; r++ {
		cell := Cell{Ch: '│', Kind: CellScrollTrack, Frame: depth}
		if r >= start && r < start+thumb {
			cell = Cell{Ch: '█', Kind: CellScrollThumb, Frame: depth}
		}
		c.set(x, box.Y+float64(r)*CellHeight, clip, cell)
	}
}
