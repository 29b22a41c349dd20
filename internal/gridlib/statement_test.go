package gridlib

import "testing"

func TestResolveTable(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		table    string
		database string
		ok       bool
	}{
		{
			name:  "simple select",
			sql:   "SELECT * FROM users",
			table: "users",
			ok:    true,
		},
		{
			name:  "lowercase keywords",
			sql:   "select id, name from users where id = 1",
			table: "users",
			ok:    true,
		},
		{
			name:     "database qualified",
			sql:      "SELECT * FROM app.users",
			table:    "users",
			database: "app",
			ok:       true,
		},
		{
			name:  "backtick quoted",
			sql:   "SELECT * FROM `weird table`",
			table: "weird table",
			ok:    true,
		},
		{
			name:  "double quoted",
			sql:   `SELECT * FROM "weird table"`,
			table: "weird table",
			ok:    true,
		},
		{
			name:  "bracket quoted",
			sql:   "SELECT * FROM [weird table]",
			table: "weird table",
			ok:    true,
		},
		{
			name:     "quoted qualified pair",
			sql:      "SELECT * FROM `app db`.`users`",
			table:    "users",
			database: "app db",
			ok:       true,
		},
		{
			name:  "doubled delimiter is literal",
			sql:   "SELECT * FROM `we``ird`",
			table: "we`ird",
			ok:    true,
		},
		{
			name:  "join resolves first table only",
			sql:   "SELECT * FROM users JOIN orders ON orders.user_id = users.id",
			table: "users",
			ok:    true,
		},
		{
			name:  "from inside string literal ignored",
			sql:   "SELECT 'from fake' AS label FROM users",
			table: "users",
			ok:    true,
		},
		{
			name:  "line comment stripped",
			sql:   "SELECT * -- from commented\nFROM users",
			table: "users",
			ok:    true,
		},
		{
			name:  "block comment stripped",
			sql:   "SELECT * /* from commented */ FROM users",
			table: "users",
			ok:    true,
		},
		{
			name:  "newlines and tabs around from",
			sql:   "SELECT *\n\tFROM\n\tusers",
			table: "users",
			ok:    true,
		},
		{
			name: "cte rejected",
			sql:  "WITH recent AS (SELECT * FROM users) SELECT * FROM recent",
			ok:   false,
		},
		{
			name: "no from clause",
			sql:  "SELECT 1",
			ok:   false,
		},
		{
			name: "from with nothing after",
			sql:  "SELECT * FROM",
			ok:   false,
		},
		{
			name: "empty statement",
			sql:  "",
			ok:   false,
		},
		{
			name:  "fromage is not from",
			sql:   "SELECT fromage FROM cheeses",
			table: "cheeses",
			ok:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ResolveTable(tt.sql)
			if ok != tt.ok {
				t.Fatalf("ResolveTable(%q) ok = %v, want %v", tt.sql, ok, tt.ok)
			}
			if !ok {
				return
			}
			if ref.Table != tt.table {
				t.Errorf("ResolveTable(%q).Table = %q, want %q", tt.sql, ref.Table, tt.table)
			}
			if ref.Database != tt.database {
				t.Errorf("ResolveTable(%q).Database = %q, want %q", tt.sql, ref.Database, tt.database)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"line comment", "a -- rest\nb", "a  \nb"},
		{"block comment", "a /* x */ b", "a   b"},
		{"unterminated block", "a /* x", "a  "},
		{"dashes in string survive", "'a -- b'", "'a -- b'"},
		{"comment markers in identifier quotes survive", "`a /* b`", "`a /* b`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripComments(tt.input); got != tt.expected {
				t.Errorf("stripComments(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
