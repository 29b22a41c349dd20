package connlib

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rowed/internal/gridlib"
)

// Executor runs SQL against stored connections and records every
// execution, successful or not, in the history store. It is the concrete
// execution capability behind gridlib.Executor.
type Executor struct {
	store   *Store
	pools   *PoolManager
	history *HistoryStore
}

func NewExecutor(store *Store, pools *PoolManager, history *HistoryStore) *Executor {
	return &Executor{store: store, pools: pools, history: history}
}

// Execute runs one statement on the named connection. SELECT-shaped
// statements return their rows; statements without a row set return the
// single-column affected_rows result. database selects the database for
// engines that support it (empty string for the connection default and
// always for SQLite).
func (x *Executor) Execute(ctx context.Context, connectionID, sqlText, database string) (gridlib.QueryResult, error) {
	conn, err := x.store.Get(connectionID)
	if err != nil {
		return gridlib.QueryResult{}, err
	}
	result, err := x.executeOn(ctx, conn, sqlText, database)
	x.record(conn, sqlText, result, err)
	if err != nil {
		return gridlib.QueryResult{}, err
	}
	return result, nil
}

func (x *Executor) executeOn(ctx context.Context, conn Connection, sqlText, database string) (gridlib.QueryResult, error) {
	db, err := x.pools.Get(ctx, conn, database)
	if err != nil {
		return gridlib.QueryResult{}, err
	}

	// Drivers happily run an UPDATE through Query and hand back an empty
	// row set, which would lose the affected count, so classify by the
	// leading keyword instead of probing.
	if isRowReturning(sqlText) {
		rows, err := db.QueryContext(ctx, sqlText)
		if err != nil {
			return gridlib.QueryResult{}, fmt.Errorf("SQL execution failed: %w", err)
		}
		defer rows.Close()
		return scanResult(rows)
	}

	res, err := db.ExecContext(ctx, sqlText)
	if err != nil {
		return gridlib.QueryResult{}, fmt.Errorf("SQL execution failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return gridlib.QueryResult{
		Columns: []string{"affected_rows"},
		Rows:    [][]any{{affected}},
	}, nil
}

// isRowReturning reports whether a statement produces a row set.
func isRowReturning(sqlText string) bool {
	trimmed := strings.TrimSpace(sqlText)
	for _, keyword := range []string{"select", "with", "values", "show", "describe", "explain", "pragma"} {
		if len(trimmed) < len(keyword) {
			continue
		}
		if strings.EqualFold(trimmed[:len(keyword)], keyword) {
			rest := trimmed[len(keyword):]
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == '(' || rest[0] == '*' {
				return true
			}
		}
	}
	return false
}

// scanResult drains rows into a QueryResult, normalizing driver values to
// nil, bool, int64, float64, or string cells.
func scanResult(rows *sql.Rows) (gridlib.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return gridlib.QueryResult{}, err
	}
	result := gridlib.QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return gridlib.QueryResult{}, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return gridlib.QueryResult{}, err
	}
	return result, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// record appends the execution to history; history failures are not
// surfaced, an unrecorded statement is still an executed statement.
func (x *Executor) record(conn Connection, sqlText string, result gridlib.QueryResult, execErr error) {
	if x.history == nil {
		return
	}
	entry := HistoryEntry{
		ConnectionID:   conn.ID,
		ConnectionName: conn.Name,
		SQL:            sqlText,
		Success:        execErr == nil,
	}
	if execErr != nil {
		msg := execErr.Error()
		entry.ErrorMessage = &msg
	} else {
		affected := rowsAffected(result)
		entry.RowsAffected = affected
	}
	_ = x.history.Add(entry)
}

// rowsAffected mirrors the result shape convention: a single
// affected_rows column carries the driver's count, anything else counts
// the returned rows. Empty results report nothing.
func rowsAffected(result gridlib.QueryResult) *int64 {
	if len(result.Rows) == 0 {
		return nil
	}
	if len(result.Columns) == 1 && result.Columns[0] == "affected_rows" {
		if n, ok := result.Rows[0][0].(int64); ok {
			return &n
		}
		return nil
	}
	n := int64(len(result.Rows))
	return &n
}
