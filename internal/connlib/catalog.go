package connlib

import (
	"context"
	"database/sql"
	"fmt"
)

// ListDatabases returns the database names visible on the connection.
// SQLite reports its attached databases (normally just "main").
func (x *Executor) ListDatabases(ctx context.Context, connectionID string) ([]string, error) {
	conn, err := x.store.Get(connectionID)
	if err != nil {
		return nil, err
	}
	db, err := x.pools.Get(ctx, conn, "")
	if err != nil {
		return nil, err
	}

	switch conn.Type {
	case "sqlite":
		rows, err := db.QueryContext(ctx, "PRAGMA database_list")
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var names []string
		for rows.Next() {
			var seq int
			var name string
			var file sql.NullString
			if err := rows.Scan(&seq, &name, &file); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, rows.Err()

	case "postgres":
		return scanStrings(db.QueryContext(ctx,
			"SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname"))

	case "mysql":
		return scanStrings(db.QueryContext(ctx, "SHOW DATABASES"))

	default:
		return nil, fmt.Errorf("unsupported database type for ListDatabases: %s", conn.Type)
	}
}

// ListTables returns the table names in the given database (empty string
// for the connection default).
func (x *Executor) ListTables(ctx context.Context, connectionID, database string) ([]string, error) {
	conn, err := x.store.Get(connectionID)
	if err != nil {
		return nil, err
	}
	db, err := x.pools.Get(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	switch conn.Type {
	case "sqlite":
		return scanStrings(db.QueryContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))

	case "postgres":
		return scanStrings(db.QueryContext(ctx,
			"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"))

	case "mysql":
		if database == "" {
			database = conn.Config.Database
		}
		return scanStrings(db.QueryContext(ctx,
			"SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name", database))

	default:
		return nil, fmt.Errorf("unsupported database type for ListTables: %s", conn.Type)
	}
}

// scanStrings drains a single-column result into a string slice.
func scanStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}
