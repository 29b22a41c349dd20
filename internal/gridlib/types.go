package gridlib

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// should be configurable
const NullDisplay = "null"
const EmptyDisplay = "·"

// QueryResult is the immutable snapshot produced by executing a statement.
// Columns are in display order; every row has exactly len(Columns) cells.
// Cell values are nil, bool, int64, float64, string, or a structured
// map/slice value that is rendered as canonical JSON wherever it has to
// appear inside SQL or copied text.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Normalize pads short rows with nil so every row has len(Columns) cells.
func (r *QueryResult) Normalize() {
	for i, row := range r.Rows {
		for len(row) < len(r.Columns) {
			row = append(row, nil)
		}
		r.Rows[i] = row
	}
}

// shallowCopy shares row slices with the receiver; callers must
// copy-on-write any row they mutate.
func (r QueryResult) shallowCopy() QueryResult {
	rows := make([][]any, len(r.Rows))
	copy(rows, r.Rows)
	return QueryResult{Columns: r.Columns, Rows: rows}
}

// Clone deep-copies the grid, including structured cell values.
func (r QueryResult) Clone() QueryResult {
	rows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cloneValue(v)
		}
		rows[i] = cells
	}
	cols := make([]string, len(r.Columns))
	copy(cols, r.Columns)
	return QueryResult{Columns: cols, Rows: rows}
}

// CellKey addresses a cell by its position in the original, unfiltered
// result. Row and Col never refer to a display index.
type CellKey struct {
	Row int
	Col int
}

// CellMod records one cell changed away from baseline. OldValue is the
// baseline value captured the first time the cell was touched and is never
// overwritten by later edits to the same cell.
type CellMod struct {
	Row      int
	Column   string
	OldValue any
	NewValue any
}

// Ledger maps edited cells to their modification records. Iteration order
// is first-touch order, which is what the SET clause ordering relies on.
type Ledger struct {
	mods  map[CellKey]CellMod
	order []CellKey
}

func NewLedger() *Ledger {
	return &Ledger{mods: make(map[CellKey]CellMod)}
}

func (l *Ledger) Len() int {
	return len(l.mods)
}

func (l *Ledger) Get(key CellKey) (CellMod, bool) {
	mod, ok := l.mods[key]
	return mod, ok
}

// Set upserts a modification. The first write for a key fixes its position
// in the iteration order; later writes replace the record in place.
func (l *Ledger) Set(key CellKey, mod CellMod) {
	if _, ok := l.mods[key]; !ok {
		l.order = append(l.order, key)
	}
	l.mods[key] = mod
}

// Keys returns the cell keys in first-touch order.
func (l *Ledger) Keys() []CellKey {
	keys := make([]CellKey, len(l.order))
	copy(keys, l.order)
	return keys
}

func (l *Ledger) Clone() *Ledger {
	clone := &Ledger{
		mods:  make(map[CellKey]CellMod, len(l.mods)),
		order: make([]CellKey, len(l.order)),
	}
	copy(clone.order, l.order)
	for key, mod := range l.mods {
		mod.OldValue = cloneValue(mod.OldValue)
		mod.NewValue = cloneValue(mod.NewValue)
		clone.mods[key] = mod
	}
	return clone
}

// cloneValue deep-copies structured cell values; scalars are returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// cellText is the canonical text form of a cell value, used for display,
// clipboard output, and stringified equality checks. nil renders as the
// empty string; structured values render as their JSON text.
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case map[string]any, []any:
		text, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(text)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// CellText is the exported form of cellText for renderers.
func CellText(v any) string {
	return cellText(v)
}

// sameText reports whether two cell values are equal under stringified
// comparison, the equality the ledger and no-op checks use.
func sameText(a, b any) bool {
	return cellText(a) == cellText(b)
}
