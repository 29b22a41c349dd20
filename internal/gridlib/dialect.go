package gridlib

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type DatabaseType int

const (
	SQLite DatabaseType = iota
	PostgreSQL
	MySQL
	SQLServer
)

func (t DatabaseType) String() string {
	switch t {
	case SQLite:
		return "sqlite"
	case PostgreSQL:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLServer:
		return "sqlserver"
	default:
		return "unknown"
	}
}

// ParseDatabaseType maps a connection type tag to a DatabaseType.
func ParseDatabaseType(tag string) (DatabaseType, error) {
	switch strings.ToLower(tag) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return PostgreSQL, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return SQLite, fmt.Errorf("unsupported database type: %s", tag)
	}
}

type databaseFeature struct {
	// booleanLiterals: TRUE/FALSE literals instead of 1/0
	booleanLiterals bool
	// statementQualified: database prefix allowed on table references;
	// false where the active database is bound to the connection/session
	statementQualified bool
}

var databaseFeatures = map[DatabaseType]databaseFeature{
	SQLite: {
		booleanLiterals:    false,
		statementQualified: false,
	},
	PostgreSQL: {
		booleanLiterals:    true,
		statementQualified: false,
	},
	MySQL: {
		booleanLiterals:    false,
		statementQualified: true,
	},
	SQLServer: {
		booleanLiterals:    false,
		statementQualified: true,
	},
}

// QuoteIdent quotes an identifier for the target database:
// backticks for MySQL, double quotes for PostgreSQL, brackets for
// SQL Server. Embedded closing delimiters are escaped by doubling.
// SQLite identifiers (and unknown types) pass through unchanged.
func QuoteIdent(dbType DatabaseType, ident string) string {
	switch dbType {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case PostgreSQL:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	case SQLServer:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return ident
	}
}

// QualifyTable returns the table reference to use in a statement. The
// database prefix is only emitted for types whose statements can address
// another database; SQLite has no database concept and PostgreSQL binds
// the database to the connection.
func QualifyTable(dbType DatabaseType, table, database string) string {
	if database != "" && databaseFeatures[dbType].statementQualified {
		return QuoteIdent(dbType, database) + "." + QuoteIdent(dbType, table)
	}
	return QuoteIdent(dbType, table)
}

// EscapeValue renders a cell value as an inline SQL literal. It never
// fails on well-formed input and never emits a bound parameter.
func EscapeValue(dbType DatabaseType, v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if databaseFeatures[dbType].booleanLiterals {
			if val {
				return "TRUE"
			}
			return "FALSE"
		}
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case string:
		return quoteStringLiteral(val)
	case map[string]any, []any:
		text, err := json.Marshal(val)
		if err != nil {
			return quoteStringLiteral(fmt.Sprintf("%v", val))
		}
		return quoteStringLiteral(string(text))
	default:
		return quoteStringLiteral(fmt.Sprintf("%v", val))
	}
}

func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
