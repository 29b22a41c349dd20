package gridlib

import "sort"

// Range is the axis-aligned bounding rectangle of a selection.
type Range struct {
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

// Selection is an arbitrary, possibly non-rectangular set of cells plus a
// cached bounding rectangle. An empty selection is represented as a nil
// *Selection, never as an empty set; RemoveCell reports when the caller
// should drop the pointer.
type Selection struct {
	cells  map[CellKey]struct{}
	bounds Range
}

// NewSelection creates a selection containing a single cell.
func NewSelection(row, col int) *Selection {
	s := &Selection{cells: make(map[CellKey]struct{})}
	s.AddCell(row, col)
	return s
}

// NewRectSelection creates a selection covering the rectangle spanned by
// two corner cells, in either order.
func NewRectSelection(aRow, aCol, bRow, bCol int) *Selection {
	s := &Selection{cells: make(map[CellKey]struct{})}
	s.SetRectangle(aRow, aCol, bRow, bCol)
	return s
}

func (s *Selection) AddCell(row, col int) {
	s.cells[CellKey{Row: row, Col: col}] = struct{}{}
	s.recomputeBounds()
}

// RemoveCell drops a cell and reports whether the selection is now empty.
func (s *Selection) RemoveCell(row, col int) bool {
	delete(s.cells, CellKey{Row: row, Col: col})
	if len(s.cells) == 0 {
		return true
	}
	s.recomputeBounds()
	return false
}

// SetRectangle replaces the whole selection with the rectangle spanned by
// the two corners, regardless of which corner is the anchor.
func (s *Selection) SetRectangle(aRow, aCol, bRow, bCol int) {
	startRow, endRow := aRow, bRow
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	startCol, endCol := aCol, bCol
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	s.cells = make(map[CellKey]struct{}, (endRow-startRow+1)*(endCol-startCol+1))
	for r := startRow; r <= endRow; r++ {
		for c := startCol; c <= endCol; c++ {
			s.cells[CellKey{Row: r, Col: c}] = struct{}{}
		}
	}
	s.bounds = Range{StartRow: startRow, EndRow: endRow, StartCol: startCol, EndCol: endCol}
}

func (s *Selection) Contains(row, col int) bool {
	if s == nil {
		return false
	}
	_, ok := s.cells[CellKey{Row: row, Col: col}]
	return ok
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cells)
}

// Bounds returns the cached bounding rectangle.
func (s *Selection) Bounds() Range {
	return s.bounds
}

// Cells returns the selected cells sorted by (row, col).
func (s *Selection) Cells() []CellKey {
	if s == nil {
		return nil
	}
	keys := make([]CellKey, 0, len(s.cells))
	for key := range s.cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	return keys
}

func (s *Selection) recomputeBounds() {
	first := true
	var b Range
	for key := range s.cells {
		if first {
			b = Range{StartRow: key.Row, EndRow: key.Row, StartCol: key.Col, EndCol: key.Col}
			first = false
			continue
		}
		if key.Row < b.StartRow {
			b.StartRow = key.Row
		}
		if key.Row > b.EndRow {
			b.EndRow = key.Row
		}
		if key.Col < b.StartCol {
			b.StartCol = key.Col
		}
		if key.Col > b.EndCol {
			b.EndCol = key.Col
		}
	}
	s.bounds = b
}
