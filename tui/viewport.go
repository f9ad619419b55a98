// ABOUTME: Viewport manager mapping terminal cells to page pixels
// ABOUTME: Tracks where the page panel sits on screen and how large its viewport is

package tui

import "scrollspeed/dom"

// ViewportManager places the page panel on the terminal
// Cells are dom.CellWidth x dom.CellHeight px; the page origin is the panel's top-left cell.
type ViewportManager struct {
	col, row   int // panel origin in terminal cells
	cols, rows int // panel size in cells
}

// NewViewportManager creates a viewport manager for a panel at col, row
func NewViewportManager(col, row, cols, rows int) *ViewportManager {
	vm := &ViewportManager{col: col, row: row}
	vm.SetSize(cols, rows)
	return vm
}

// SetOrigin moves the panel
func (vm *ViewportManager) SetOrigin(col, row int) {
	vm.col = col
	vm.row = row
}

// SetSize updates the panel size in cells; sizes below one cell are raised to one
func (vm *ViewportManager) SetSize(cols, rows int) {
	vm.cols = max(cols, 1)
	vm.rows = max(rows, 1)
}

// Cells returns the panel size in cells
func (vm *ViewportManager) Cells() (cols, rows int) {
	return vm.cols, vm.rows
}

// Size returns the page viewport in px
func (vm *ViewportManager) Size() dom.Size {
	return dom.Size{
		Width:  float64(vm.cols) * dom.CellWidth,
		Height: float64(vm.rows) * dom.CellHeight,
	}
}

// Contains reports whether a terminal cell is inside the panel
func (vm *ViewportManager) Contains(col, row int) bool {
	return col >= vm.col && col < vm.col+vm.cols &&
		row >= vm.row && row < vm.row+vm.rows
}

// CellToPage returns the page px at the centre of a terminal cell
// ok is false when the cell is outside the panel
func (vm *ViewportManager) CellToPage(col, row int) (x, y float64, ok bool) {
	if !vm.Contains(col, row) {
		return 0, 0, false
	}
	x = float64(col-vm.col)*dom.CellWidth + dom.CellWidth/2
	y = float64(row-vm.row)*dom.CellHeight + dom.CellHeight/2
	return x, y, true
}

// Center returns the page px at the middle of the panel
func (vm *ViewportManager) Center() (x, y float64) {
	size := vm.Size()
	return size.Width / 2, size.Height / 2
}
