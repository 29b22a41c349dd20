package gridlib

import (
	"fmt"
	"strings"
)

// ErrNoTable is reported when the originating statement's table cannot be
// re-derived, which makes every synthesized statement impossible.
var ErrNoTable = fmt.Errorf("cannot resolve table from statement")

// SynthesizeUpdates turns the ledger into one UPDATE statement per
// modified row. The WHERE clause matches every baseline column of the row
// by value (IS NULL for nil cells): full-row equality is what lets the
// engine locate rows without a primary key. Returns the statements and the
// database name resolved for qualification and the execute call.
//
// When the baseline contains exact duplicate rows the predicate is
// ambiguous and an UPDATE can affect more than the intended row; that is
// an accepted trade-off of keyless editing, not something to paper over.
func SynthesizeUpdates(ledger *Ledger, originalSQL string, baseline QueryResult, dbType DatabaseType, dbHint string) ([]string, string, error) {
	ref, ok := ResolveTable(originalSQL)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrNoTable, strings.TrimSpace(originalSQL))
	}
	database := ref.Database
	if database == "" {
		database = dbHint
	}
	table := QualifyTable(dbType, ref.Table, database)

	// Group ledger entries by row, preserving first-touch order for both
	// the row sequence and the SET clause within each row.
	var rowOrder []int
	byRow := make(map[int][]CellMod)
	for _, key := range ledger.Keys() {
		mod, _ := ledger.Get(key)
		if _, seen := byRow[mod.Row]; !seen {
			rowOrder = append(rowOrder, mod.Row)
		}
		byRow[mod.Row] = append(byRow[mod.Row], mod)
	}

	statements := make([]string, 0, len(rowOrder))
	for _, row := range rowOrder {
		if row < 0 || row >= len(baseline.Rows) {
			return nil, "", fmt.Errorf("modified row %d not present in baseline", row)
		}
		setParts := make([]string, 0, len(byRow[row]))
		for _, mod := range byRow[row] {
			setParts = append(setParts, fmt.Sprintf("%s = %s",
				QuoteIdent(dbType, mod.Column), EscapeValue(dbType, mod.NewValue)))
		}
		where := wholeRowPredicate(dbType, baseline.Columns, baseline.Rows[row])
		statements = append(statements, fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
			table, strings.Join(setParts, ", "), where))
	}
	return statements, database, nil
}

// SynthesizeRowUpdates builds one whole-row UPDATE per selected row index:
// SET covers every column's current grid value, WHERE matches the full
// baseline row. Used by bulk row edit flows that operate on row selections
// instead of a ledger.
func SynthesizeRowUpdates(rows []int, grid, baseline QueryResult, originalSQL string, dbType DatabaseType, dbHint string) ([]string, string, error) {
	ref, ok := ResolveTable(originalSQL)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrNoTable, strings.TrimSpace(originalSQL))
	}
	database := ref.Database
	if database == "" {
		database = dbHint
	}
	table := QualifyTable(dbType, ref.Table, database)

	statements := make([]string, 0, len(rows))
	for _, row := range rows {
		if row < 0 || row >= len(baseline.Rows) || row >= len(grid.Rows) {
			return nil, "", fmt.Errorf("selected row %d not present in baseline", row)
		}
		setParts := make([]string, 0, len(grid.Columns))
		for col, name := range grid.Columns {
			var value any
			if col < len(grid.Rows[row]) {
				value = grid.Rows[row][col]
			}
			setParts = append(setParts, fmt.Sprintf("%s = %s",
				QuoteIdent(dbType, name), EscapeValue(dbType, value)))
		}
		where := wholeRowPredicate(dbType, baseline.Columns, baseline.Rows[row])
		statements = append(statements, fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
			table, strings.Join(setParts, ", "), where))
	}
	return statements, database, nil
}

// SynthesizeInserts builds a single multi-row VALUES INSERT duplicating
// the selected grid rows.
func SynthesizeInserts(rows []int, grid QueryResult, originalSQL string, dbType DatabaseType, dbHint string) (string, string, error) {
	ref, ok := ResolveTable(originalSQL)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrNoTable, strings.TrimSpace(originalSQL))
	}
	database := ref.Database
	if database == "" {
		database = dbHint
	}
	table := QualifyTable(dbType, ref.Table, database)

	cols := make([]string, len(grid.Columns))
	for i, name := range grid.Columns {
		cols[i] = QuoteIdent(dbType, name)
	}
	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		if row < 0 || row >= len(grid.Rows) {
			return "", "", fmt.Errorf("selected row %d not present in grid", row)
		}
		values := make([]string, len(grid.Columns))
		for col := range grid.Columns {
			var value any
			if col < len(grid.Rows[row]) {
				value = grid.Rows[row][col]
			}
			values[col] = EscapeValue(dbType, value)
		}
		tuples = append(tuples, "("+strings.Join(values, ", ")+")")
	}
	if len(tuples) == 0 {
		return "", "", fmt.Errorf("no rows selected for insert")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		table, strings.Join(cols, ", "), strings.Join(tuples, ", ")), database, nil
}

// wholeRowPredicate AND-joins an equality check over every baseline column
// of the row. nil cells compare with IS NULL, never = NULL.
func wholeRowPredicate(dbType DatabaseType, columns []string, row []any) string {
	parts := make([]string, 0, len(columns))
	for col, name := range columns {
		var value any
		if col < len(row) {
			value = row[col]
		}
		if value == nil {
			parts = append(parts, QuoteIdent(dbType, name)+" IS NULL")
		} else {
			parts = append(parts, fmt.Sprintf("%s = %s",
				QuoteIdent(dbType, name), EscapeValue(dbType, value)))
		}
	}
	return strings.Join(parts, " AND ")
}
