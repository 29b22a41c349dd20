package gridlib

// HistoryLimit bounds the undo stack; the oldest entry is evicted first.
const HistoryLimit = 50

// HistoryEntry is a full-state snapshot: the edited grid and the ledger,
// both deep-copied so later mutations cannot reach back into history.
type HistoryEntry struct {
	Grid   QueryResult
	Ledger *Ledger
}

// History is a bounded undo/redo stack of pre-mutation snapshots. The
// cursor points at the entry undo would restore; -1 means "at baseline,
// nothing to undo".
type History struct {
	entries []HistoryEntry
	cursor  int
}

func NewHistory() *History {
	return &History{cursor: -1}
}

// Save captures the given pre-mutation state. Callers invoke it before
// applying a mutation. Any redo entries beyond the cursor are truncated,
// the snapshot is appended, and the oldest entry is evicted once the stack
// exceeds HistoryLimit.
func (h *History) Save(grid QueryResult, ledger *Ledger) {
	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, HistoryEntry{
		Grid:   grid.Clone(),
		Ledger: ledger.Clone(),
	})
	h.cursor++
	if len(h.entries) > HistoryLimit {
		h.entries = h.entries[1:]
		h.cursor = len(h.entries) - 1
	}
}

// Undo returns the entry at the cursor (the state to restore) and steps
// the cursor back, or nil when already at baseline. The returned snapshot
// is cloned: the entry stays on the stack for redo, and a caller adopting
// the grid and ledger must not be able to write through into it.
func (h *History) Undo() *HistoryEntry {
	if h.cursor < 0 {
		return nil
	}
	entry := h.entries[h.cursor]
	h.cursor--
	return &HistoryEntry{Grid: entry.Grid.Clone(), Ledger: entry.Ledger.Clone()}
}

// Redo steps the cursor forward and returns a clone of the entry now at
// the cursor, or nil when already at the newest entry.
func (h *History) Redo() *HistoryEntry {
	if h.cursor >= len(h.entries)-1 {
		return nil
	}
	h.cursor++
	entry := h.entries[h.cursor]
	return &HistoryEntry{Grid: entry.Grid.Clone(), Ledger: entry.Ledger.Clone()}
}

func (h *History) Reset() {
	h.entries = nil
	h.cursor = -1
}

func (h *History) CanUndo() bool {
	return h.cursor >= 0
}

func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len reports the number of entries currently on the stack.
func (h *History) Len() int {
	return len(h.entries)
}
