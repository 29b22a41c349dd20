package gridlib

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Executor runs a statement against a connection and returns its result.
// Passing the resolved database selects the database for engines that
// support it; the empty string is passed for SQLite, whose connections
// have no separate database concept.
type Executor interface {
	Execute(ctx context.Context, connectionID, sql, database string) (QueryResult, error)
}

var (
	// ErrSaveInProgress rejects a second Save while one is outstanding.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNotEditing is returned by edit operations outside a pending edit.
	ErrNotEditing = errors.New("no cell edit in progress")
)

// Engine owns the edited grid and the modification ledger for one query
// result and is the single mutation point for all editing operations.
// All state transitions are synchronous; grid and ledger are replaced by
// whole-value assignment so a reader never observes a partial update.
type Engine struct {
	exec Executor
	clip Clipboard

	dbType       DatabaseType
	connectionID string
	originalSQL  string
	dbHint       string

	baseline QueryResult
	grid     QueryResult
	ledger   *Ledger
	history  *History
	sel      *Selection

	editing      *CellKey
	editingValue string
	saving       bool
}

// NewEngine enters edit mode over a fresh query result. The result is the
// immutable baseline for the session; a nil clipboard falls back to the
// system clipboard.
func NewEngine(exec Executor, clip Clipboard, dbType DatabaseType, connectionID, originalSQL, dbHint string, result QueryResult) *Engine {
	if clip == nil {
		clip = SystemClipboard{}
	}
	e := &Engine{
		exec:         exec,
		clip:         clip,
		dbType:       dbType,
		connectionID: connectionID,
		originalSQL:  originalSQL,
		dbHint:       dbHint,
		history:      NewHistory(),
	}
	e.adopt(result)
	return e
}

// adopt installs a new baseline and discards all per-session edit state.
func (e *Engine) adopt(result QueryResult) {
	result.Normalize()
	e.baseline = result
	e.grid = result.shallowCopy()
	e.ledger = NewLedger()
	e.history.Reset()
	e.sel = nil
	e.editing = nil
	e.editingValue = ""
}

// Replace discards the session and adopts a new query result, e.g. after
// re-running the query.
func (e *Engine) Replace(result QueryResult) {
	e.adopt(result)
}

// Grid returns the edited grid: baseline overlaid with every ledger entry.
// This is the only thing ever rendered or copied.
func (e *Engine) Grid() QueryResult {
	return e.grid
}

func (e *Engine) Baseline() QueryResult {
	return e.baseline
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Dirty reports whether any cell differs from baseline.
func (e *Engine) Dirty() bool {
	return e.ledger.Len() > 0
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }
func (e *Engine) Saving() bool  { return e.saving }

// StatementSQL returns the statement the baseline came from.
func (e *Engine) StatementSQL() string {
	return e.originalSQL
}

// Selection management. The selection lives on the engine so grid
// replacement and reset can clear it; an empty selection is nil.

func (e *Engine) Selection() *Selection {
	return e.sel
}

func (e *Engine) SelectCell(row, col int) {
	if e.sel == nil {
		e.sel = NewSelection(row, col)
		return
	}
	e.sel.AddCell(row, col)
}

func (e *Engine) DeselectCell(row, col int) {
	if e.sel == nil {
		return
	}
	if e.sel.RemoveCell(row, col) {
		e.sel = nil
	}
}

func (e *Engine) SelectRect(aRow, aCol, bRow, bCol int) {
	e.sel = NewRectSelection(aRow, aCol, bRow, bCol)
}

func (e *Engine) ClearSelection() {
	e.sel = nil
}

func (e *Engine) Selected(row, col int) bool {
	return e.sel.Contains(row, col)
}

// BeginCellEdit starts editing a cell, seeding the editing value from the
// current (possibly already edited) cell text; nil seeds an empty string.
func (e *Engine) BeginCellEdit(row, col int) error {
	if row < 0 || row >= len(e.grid.Rows) || col < 0 || col >= len(e.grid.Columns) {
		return fmt.Errorf("cell %d:%d outside grid", row, col)
	}
	key := CellKey{Row: row, Col: col}
	e.editing = &key
	e.editingValue = cellText(e.grid.Rows[row][col])
	return nil
}

func (e *Engine) EditingValue() (string, bool) {
	if e.editing == nil {
		return "", false
	}
	return e.editingValue, true
}

func (e *Engine) SetEditingValue(text string) error {
	if e.editing == nil {
		return ErrNotEditing
	}
	e.editingValue = text
	return nil
}

func (e *Engine) CancelCellEdit() {
	e.editing = nil
	e.editingValue = ""
}

// CommitCellEdit applies the pending edit to the addressed cell. The old
// value recorded in the ledger always comes from the original baseline,
// not the live grid, so the true pre-edit value survives repeated edits.
// Empty or whitespace-only text commits NULL. A commit whose value equals
// the baseline value, or the cell's current value, is discarded as a no-op
// without touching history or the ledger.
func (e *Engine) CommitCellEdit(row, col int) error {
	key := CellKey{Row: row, Col: col}
	if e.editing == nil || *e.editing != key {
		return nil
	}
	text := e.editingValue
	e.editing = nil
	e.editingValue = ""

	if row >= len(e.baseline.Rows) || col >= len(e.baseline.Columns) {
		return fmt.Errorf("cell %d:%d outside baseline", row, col)
	}
	oldValue := e.baseline.Rows[row][col]

	var newValue any
	if strings.TrimSpace(text) != "" {
		newValue = text
	}
	if sameText(oldValue, newValue) || sameText(e.grid.Rows[row][col], newValue) {
		return nil
	}

	e.history.Save(e.grid, e.ledger)
	e.setCell(key, newValue)
	return nil
}

// BatchEdit types text into every selected cell at once. The selection is
// classified by its effective values: all still at baseline means the text
// replaces each value; all modified to one identical value from identical
// baselines means the text is appended to that shared value (so typing one
// character at a time feels like simultaneous typing); anything else,
// including cells that only converged from divergent baselines, replaces
// the values with just the text.
func (e *Engine) BatchEdit(text string) {
	cells := e.sel.Cells()
	if len(cells) == 0 {
		return
	}
	e.history.Save(e.grid, e.ledger)

	allUnmodified := true
	allModified := true
	identical := true
	baselineIdentical := true
	var shared, baselineShared string
	for i, key := range cells {
		_, modified := e.ledger.Get(key)
		if modified {
			allUnmodified = false
		} else {
			allModified = false
		}
		current := ""
		if key.Row < len(e.grid.Rows) && key.Col < len(e.grid.Rows[key.Row]) {
			current = cellText(e.grid.Rows[key.Row][key.Col])
		}
		base := ""
		if key.Row < len(e.baseline.Rows) && key.Col < len(e.baseline.Rows[key.Row]) {
			base = cellText(e.baseline.Rows[key.Row][key.Col])
		}
		if i == 0 {
			shared = current
			baselineShared = base
		} else {
			if current != shared {
				identical = false
			}
			if base != baselineShared {
				baselineIdentical = false
			}
		}
	}

	composed := text
	if !allUnmodified && allModified && identical && baselineIdentical {
		composed = shared + text
	}
	var newValue any
	if strings.TrimSpace(composed) != "" {
		newValue = composed
	}

	for _, key := range cells {
		if key.Row >= len(e.grid.Rows) || key.Col >= len(e.grid.Columns) {
			continue
		}
		if sameText(e.grid.Rows[key.Row][key.Col], newValue) {
			continue
		}
		e.setCell(key, newValue)
	}
}

// CopySelection renders the selection as clipboard text: rows ascending,
// each row covering the union of all selected columns in ascending order,
// cells joined with tabs and rows with newlines. Unselected intersections
// and NULLs render as empty text.
func (e *Engine) CopySelection() string {
	cells := e.sel.Cells()
	if len(cells) == 0 {
		return ""
	}

	var rows []int
	rowSeen := make(map[int]bool)
	var cols []int
	colSeen := make(map[int]bool)
	for _, key := range cells {
		if !rowSeen[key.Row] {
			rowSeen[key.Row] = true
			rows = append(rows, key.Row)
		}
		if !colSeen[key.Col] {
			colSeen[key.Col] = true
			cols = append(cols, key.Col)
		}
	}
	// Cells() is (row, col) sorted, so rows arrive ascending; columns need
	// their own ordering since the union spans all rows.
	sort.Ints(cols)

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		fields := make([]string, 0, len(cols))
		for _, col := range cols {
			text := ""
			if e.sel.Contains(row, col) && row < len(e.grid.Rows) && col < len(e.grid.Rows[row]) {
				text = cellText(e.grid.Rows[row][col])
			}
			fields = append(fields, text)
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	return strings.Join(lines, "\n")
}

// CopyToClipboard writes the selection text to the system clipboard.
func (e *Engine) CopyToClipboard() error {
	text := e.CopySelection()
	if text == "" {
		return nil
	}
	return e.clip.WriteText(text)
}

// PasteFromClipboard reads the clipboard and pastes into the selection.
// The read completes before any state is mutated.
func (e *Engine) PasteFromClipboard() error {
	if e.sel.Len() == 0 {
		return nil
	}
	text, err := e.clip.ReadText()
	if err != nil {
		return err
	}
	e.PasteText(text)
	return nil
}

// PasteText distributes clipboard text over the selection. A single
// parsed value broadcasts to every selected cell; otherwise values map
// positionally from the selection's top-left corner, leaving selected
// cells beyond the parsed extent untouched. Out-of-range coordinates are
// skipped, and a ledger entry is only written when the pasted value
// differs from the baseline value. The history snapshot is deferred until
// the first cell actually changes, so a paste that changes nothing leaves
// no undo step.
func (e *Engine) PasteText(text string) {
	cells := e.sel.Cells()
	if len(cells) == 0 {
		return
	}
	parsed := parseClipboard(text)
	if len(parsed) == 0 {
		return
	}

	saved := false
	paste := func(key CellKey, value any) {
		if key.Row < 0 || key.Row >= len(e.grid.Rows) || key.Col < 0 || key.Col >= len(e.grid.Columns) {
			return
		}
		if sameText(e.baseline.Rows[key.Row][key.Col], value) {
			return
		}
		if !saved {
			e.history.Save(e.grid, e.ledger)
			saved = true
		}
		e.setCell(key, value)
	}

	if len(parsed) == 1 && len(parsed[0]) == 1 {
		value := pasteValue(parsed[0][0])
		for _, key := range cells {
			paste(key, value)
		}
		return
	}

	bounds := e.sel.Bounds()
	for _, key := range cells {
		lineIdx := key.Row - bounds.StartRow
		fieldIdx := key.Col - bounds.StartCol
		if lineIdx < 0 || lineIdx >= len(parsed) {
			continue
		}
		if fieldIdx < 0 || fieldIdx >= len(parsed[lineIdx]) {
			continue
		}
		paste(key, pasteValue(parsed[lineIdx][fieldIdx]))
	}
}

// setCell copy-on-writes the affected row into the edited grid and
// upserts the ledger entry, preserving a previously recorded old value.
func (e *Engine) setCell(key CellKey, newValue any) {
	row := make([]any, len(e.grid.Rows[key.Row]))
	copy(row, e.grid.Rows[key.Row])
	row[key.Col] = newValue
	e.grid.Rows[key.Row] = row

	oldValue := e.baseline.Rows[key.Row][key.Col]
	if prev, ok := e.ledger.Get(key); ok {
		oldValue = prev.OldValue
	}
	e.ledger.Set(key, CellMod{
		Row:      key.Row,
		Column:   e.grid.Columns[key.Col],
		OldValue: oldValue,
		NewValue: newValue,
	})
}

// Undo restores the previous snapshot, replacing grid and ledger
// wholesale. Reports whether anything was undone.
func (e *Engine) Undo() bool {
	entry := e.history.Undo()
	if entry == nil {
		return false
	}
	e.grid = entry.Grid
	e.ledger = entry.Ledger
	return true
}

func (e *Engine) Redo() bool {
	entry := e.history.Redo()
	if entry == nil {
		return false
	}
	e.grid = entry.Grid
	e.ledger = entry.Ledger
	return true
}

// ResetAll discards every edit back to baseline: ledger, history,
// selection, and any pending cell edit.
func (e *Engine) ResetAll() {
	e.grid = e.baseline.shallowCopy()
	e.ledger = NewLedger()
	e.history.Reset()
	e.sel = nil
	e.editing = nil
	e.editingValue = ""
}

// PendingStatements synthesizes the UPDATE statements the current ledger
// would execute on Save, without executing them.
func (e *Engine) PendingStatements() ([]string, error) {
	statements, _, err := SynthesizeUpdates(e.ledger, e.originalSQL, e.baseline, e.dbType, e.dbHint)
	return statements, err
}

// Save synthesizes one statement per modified row and executes them
// sequentially. If the table cannot be resolved nothing is executed. A
// failed statement does not stop the batch; after a partial failure the
// ledger is kept and the grid is not refreshed so the edits can be
// retried. On full success the ledger is cleared and the original query
// is re-run, replacing the baseline (which resets history and selection).
func (e *Engine) Save(ctx context.Context) error {
	if e.saving {
		return ErrSaveInProgress
	}
	e.saving = true
	defer func() { e.saving = false }()

	if e.ledger.Len() == 0 {
		return nil
	}
	statements, database, err := SynthesizeUpdates(e.ledger, e.originalSQL, e.baseline, e.dbType, e.dbHint)
	if err != nil {
		return err
	}

	databaseParam := database
	if e.dbType == SQLite {
		databaseParam = ""
	}

	failed := 0
	var lastErr error
	for _, stmt := range statements {
		if _, err := e.exec.Execute(ctx, e.connectionID, stmt, databaseParam); err != nil {
			failed++
			lastErr = err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed: %w", failed, len(statements), lastErr)
	}

	e.ledger = NewLedger()
	fresh, err := e.exec.Execute(ctx, e.connectionID, e.originalSQL, databaseParam)
	if err != nil {
		return fmt.Errorf("saved %d statements but refresh failed: %w", len(statements), err)
	}
	e.Replace(fresh)
	return nil
}

// parseClipboard splits pasted text into a line/field grid: tab-separated
// fields when a tab is present, else comma-separated, else one field per
// line.
func parseClipboard(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	parsed := make([][]string, len(lines))
	for i, line := range lines {
		switch {
		case strings.Contains(line, "\t"):
			parsed[i] = strings.Split(line, "\t")
		case strings.Contains(line, ","):
			parsed[i] = strings.Split(line, ",")
		default:
			parsed[i] = []string{line}
		}
	}
	return parsed
}

// pasteValue applies the null-on-empty rule to a pasted field.
func pasteValue(field string) any {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	return field
}
