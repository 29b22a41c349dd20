package gridlib

import (
	"reflect"
	"testing"
)

func TestSelectionAddRemove(t *testing.T) {
	s := NewSelection(1, 2)
	if !s.Contains(1, 2) {
		t.Fatal("new selection should contain its seed cell")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	s.AddCell(3, 0)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := s.Bounds(); got != (Range{StartRow: 1, EndRow: 3, StartCol: 0, EndCol: 2}) {
		t.Errorf("Bounds() = %+v", got)
	}

	if empty := s.RemoveCell(3, 0); empty {
		t.Error("selection should not report empty with one cell left")
	}
	if got := s.Bounds(); got != (Range{StartRow: 1, EndRow: 1, StartCol: 2, EndCol: 2}) {
		t.Errorf("Bounds() after remove = %+v", got)
	}
	if empty := s.RemoveCell(1, 2); !empty {
		t.Error("removing the last cell should report empty")
	}
}

func TestSelectionRectangleCornerOrder(t *testing.T) {
	a := NewRectSelection(0, 0, 2, 1)
	b := NewRectSelection(2, 1, 0, 0)

	if a.Len() != 6 || b.Len() != 6 {
		t.Fatalf("rect lens = %d, %d, want 6", a.Len(), b.Len())
	}
	if !reflect.DeepEqual(a.Cells(), b.Cells()) {
		t.Error("corner order should not change the selected set")
	}
	if a.Bounds() != b.Bounds() {
		t.Error("corner order should not change the bounds")
	}
}

func TestSelectionCellsSorted(t *testing.T) {
	s := NewSelection(2, 1)
	s.AddCell(0, 3)
	s.AddCell(0, 1)
	s.AddCell(2, 0)

	want := []CellKey{{Row: 0, Col: 1}, {Row: 0, Col: 3}, {Row: 2, Col: 0}, {Row: 2, Col: 1}}
	if got := s.Cells(); !reflect.DeepEqual(got, want) {
		t.Errorf("Cells() = %v, want %v", got, want)
	}
}

func TestNilSelectionIsSafe(t *testing.T) {
	var s *Selection
	if s.Contains(0, 0) {
		t.Error("nil selection should contain nothing")
	}
	if s.Len() != 0 {
		t.Error("nil selection should have zero length")
	}
	if s.Cells() != nil {
		t.Error("nil selection should have no cells")
	}
}
