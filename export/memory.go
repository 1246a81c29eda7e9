package export

import (
	"sort"
	"sync"
)

type cellKey struct {
	col int
	row int
}

// Grid is an in-memory Sheet used for previews and tests.
// Merging follows the workbook semantics: a new merge replaces any overlapping one
// and cell values are retained.
type Grid struct {
	mu      sync.RWMutex
	cells   map[cellKey]any
	bold    map[cellKey]bool
	merges  []CellRange
	freeze  cellKey
	highest int
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]any),
		bold:  make(map[cellKey]bool),
	}
}

// SetCellValue stores a value. Nil clears the cell.
func (g *Grid) SetCellValue(col, row int, value any) error {
	if col < 1 || row < 1 {
		return NewError(KindValidation, "cell coordinates must be positive", nil)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	key := cellKey{col: col, row: row}
	if value == nil {
		delete(g.cells, key)
		return nil
	}
	g.cells[key] = value
	if row > g.highest {
		g.highest = row
	}
	return nil
}

// CellValue returns the stored value or nil.
func (g *Grid) CellValue(col, row int) (any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[cellKey{col: col, row: row}], nil
}

// MergeCells records a merged range, replacing overlapping ranges.
func (g *Grid) MergeCells(r CellRange) error {
	r = r.normalized()
	if r.StartCol < 1 || r.StartRow < 1 {
		return NewError(KindValidation, "merge range must be positive", nil)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.merges[:0]
	for _, existing := range g.merges {
		if !existing.Overlaps(r) {
			kept = append(kept, existing)
		}
	}
	g.merges = append(kept, r)
	if r.EndRow > g.highest {
		g.highest = r.EndRow
	}
	return nil
}

// InsertRowBefore shifts row and everything below it down by one.
func (g *Grid) InsertRowBefore(row int) error {
	if row < 1 {
		return NewError(KindValidation, "row must be positive", nil)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = shiftCells(g.cells, row)
	g.bold = shiftCells(g.bold, row)
	for i, m := range g.merges {
		if m.StartRow >= row {
			m.StartRow++
			m.EndRow++
		} else if m.EndRow >= row {
			m.EndRow++
		}
		g.merges[i] = m
	}
	if g.freeze.row >= row {
		g.freeze.row++
	}
	if g.highest >= row {
		g.highest++
	}
	return nil
}

func shiftCells[T any](cells map[cellKey]T, row int) map[cellKey]T {
	shifted := make(map[cellKey]T, len(cells))
	for key, value := range cells {
		if key.row >= row {
			key.row++
		}
		shifted[key] = value
	}
	return shifted
}

// HighestRow returns the last row holding a value or merge.
func (g *Grid) HighestRow() (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.highest, nil
}

// SetBold marks the range bold.
func (g *Grid) SetBold(r CellRange) error {
	r = r.normalized()
	g.mu.Lock()
	defer g.mu.Unlock()
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			g.bold[cellKey{col: col, row: row}] = true
		}
	}
	return nil
}

// FreezePane records the top-left unfrozen cell.
func (g *Grid) FreezePane(col, row int) error {
	g.mu.Lock()
	g.freeze = cellKey{col: col, row: row}
	g.mu.Unlock()
	return nil
}

// Merges returns merged ranges ordered by position.
func (g *Grid) Merges() []CellRange {
	g.mu.RLock()
	merges := append([]CellRange(nil), g.merges...)
	g.mu.RUnlock()
	sort.Slice(merges, func(i, j int) bool {
		if merges[i].StartRow != merges[j].StartRow {
			return merges[i].StartRow < merges[j].StartRow
		}
		return merges[i].StartCol < merges[j].StartCol
	})
	return merges
}

// IsBold reports whether a cell was styled bold.
func (g *Grid) IsBold(col, row int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bold[cellKey{col: col, row: row}]
}

// Frozen returns the top-left unfrozen cell, or zeros when no pane is frozen.
func (g *Grid) Frozen() (col, row int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.freeze.col, g.freeze.row
}

// Rows returns cell values row by row up to the highest row and widest column.
func (g *Grid) Rows() [][]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	width := 0
	for key := range g.cells {
		if key.col > width {
			width = key.col
		}
	}
	rows := make([][]any, g.highest)
	for r := range rows {
		rows[r] = make([]any, width)
		for c := 0; c < width; c++ {
			rows[r][c] = g.cells[cellKey{col: c + 1, row: r + 1}]
		}
	}
	return rows
}
