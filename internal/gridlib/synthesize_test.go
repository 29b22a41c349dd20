package gridlib

import "testing"

func baselineUsers() QueryResult {
	return QueryResult{
		Columns: []string{"id", "name", "email"},
		Rows: [][]any{
			{int64(1), "eric", "eric@example.com"},
			{int64(2), "dana", nil},
		},
	}
}

func TestSynthesizeUpdates(t *testing.T) {
	baseline := baselineUsers()
	ledger := NewLedger()
	ledger.Set(CellKey{Row: 0, Col: 1}, CellMod{Row: 0, Column: "name", OldValue: "eric", NewValue: "erik"})

	statements, database, err := SynthesizeUpdates(ledger, "SELECT * FROM users", baseline, PostgreSQL, "")
	if err != nil {
		t.Fatal(err)
	}
	if database != "" {
		t.Errorf("database = %q, want empty", database)
	}
	want := `UPDATE "users" SET "name" = 'erik' WHERE "id" = 1 AND "name" = 'eric' AND "email" = 'eric@example.com';`
	if len(statements) != 1 || statements[0] != want {
		t.Errorf("statements = %v, want [%s]", statements, want)
	}
}

func TestSynthesizeUpdatesNullPredicate(t *testing.T) {
	baseline := baselineUsers()
	ledger := NewLedger()
	ledger.Set(CellKey{Row: 1, Col: 2}, CellMod{Row: 1, Column: "email", OldValue: nil, NewValue: "dana@example.com"})

	statements, _, err := SynthesizeUpdates(ledger, "SELECT * FROM users", baseline, MySQL, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "UPDATE `users` SET `email` = 'dana@example.com' WHERE `id` = 2 AND `name` = 'dana' AND `email` IS NULL;"
	if len(statements) != 1 || statements[0] != want {
		t.Errorf("statements = %v, want [%s]", statements, want)
	}
}

func TestSynthesizeUpdatesQualification(t *testing.T) {
	baseline := QueryResult{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}
	ledger := NewLedger()
	ledger.Set(CellKey{Row: 0, Col: 0}, CellMod{Row: 0, Column: "id", OldValue: int64(1), NewValue: int64(2)})

	tests := []struct {
		name   string
		dbType DatabaseType
		sql    string
		dbHint string
		want   string
		wantDB string
	}{
		{
			name:   "mysql statement database wins",
			dbType: MySQL,
			sql:    "SELECT * FROM app.users",
			dbHint: "other",
			want:   "UPDATE `app`.`users` SET `id` = 2 WHERE `id` = 1;",
			wantDB: "app",
		},
		{
			name:   "mysql falls back to hint",
			dbType: MySQL,
			sql:    "SELECT * FROM users",
			dbHint: "app",
			want:   "UPDATE `app`.`users` SET `id` = 2 WHERE `id` = 1;",
			wantDB: "app",
		},
		{
			name:   "postgres never qualifies",
			dbType: PostgreSQL,
			sql:    "SELECT * FROM users",
			dbHint: "app",
			want:   `UPDATE "users" SET "id" = 2 WHERE "id" = 1;`,
			wantDB: "app",
		},
		{
			name:   "sqlite passthrough",
			dbType: SQLite,
			sql:    "SELECT * FROM users",
			want:   "UPDATE users SET id = 2 WHERE id = 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, database, err := SynthesizeUpdates(ledger, tt.sql, baseline, tt.dbType, tt.dbHint)
			if err != nil {
				t.Fatal(err)
			}
			if len(statements) != 1 || statements[0] != tt.want {
				t.Errorf("statements = %v, want [%s]", statements, tt.want)
			}
			if database != tt.wantDB {
				t.Errorf("database = %q, want %q", database, tt.wantDB)
			}
		})
	}
}

func TestSynthesizeUpdatesGroupsByRow(t *testing.T) {
	baseline := baselineUsers()
	ledger := NewLedger()
	ledger.Set(CellKey{Row: 0, Col: 2}, CellMod{Row: 0, Column: "email", OldValue: "eric@example.com", NewValue: nil})
	ledger.Set(CellKey{Row: 1, Col: 1}, CellMod{Row: 1, Column: "name", OldValue: "dana", NewValue: "dana2"})
	ledger.Set(CellKey{Row: 0, Col: 1}, CellMod{Row: 0, Column: "name", OldValue: "eric", NewValue: "erik"})

	statements, _, err := SynthesizeUpdates(ledger, "SELECT * FROM users", baseline, SQLite, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(statements))
	}
	// Row order and SET order follow first touch.
	want0 := "UPDATE users SET email = NULL, name = 'erik' WHERE id = 1 AND name = 'eric' AND email = 'eric@example.com';"
	want1 := "UPDATE users SET name = 'dana2' WHERE id = 2 AND name = 'dana' AND email IS NULL;"
	if statements[0] != want0 {
		t.Errorf("statements[0] = %s, want %s", statements[0], want0)
	}
	if statements[1] != want1 {
		t.Errorf("statements[1] = %s, want %s", statements[1], want1)
	}
}

func TestSynthesizeUpdatesNoTable(t *testing.T) {
	ledger := NewLedger()
	ledger.Set(CellKey{Row: 0, Col: 0}, CellMod{Row: 0, Column: "id", NewValue: int64(2)})

	for _, sql := range []string{"SELECT 1", "WITH x AS (SELECT * FROM users) SELECT * FROM x"} {
		if _, _, err := SynthesizeUpdates(ledger, sql, baselineUsers(), SQLite, ""); err == nil {
			t.Errorf("expected error for %q", sql)
		}
	}
}

func TestSynthesizeRowUpdates(t *testing.T) {
	baseline := baselineUsers()
	grid := baseline.Clone()
	grid.Rows[0][1] = "erik"

	statements, _, err := SynthesizeRowUpdates([]int{0}, grid, baseline, "SELECT * FROM users", SQLite, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "UPDATE users SET id = 1, name = 'erik', email = 'eric@example.com' WHERE id = 1 AND name = 'eric' AND email = 'eric@example.com';"
	if len(statements) != 1 || statements[0] != want {
		t.Errorf("statements = %v, want [%s]", statements, want)
	}
}

func TestSynthesizeInserts(t *testing.T) {
	grid := baselineUsers()

	stmt, _, err := SynthesizeInserts([]int{0, 1}, grid, "SELECT * FROM users", PostgreSQL, "")
	if err != nil {
		t.Fatal(err)
	}
	want := `INSERT INTO "users" ("id", "name", "email") VALUES (1, 'eric', 'eric@example.com'), (2, 'dana', NULL);`
	if stmt != want {
		t.Errorf("stmt = %s, want %s", stmt, want)
	}

	if _, _, err := SynthesizeInserts(nil, grid, "SELECT * FROM users", PostgreSQL, ""); err == nil {
		t.Error("expected error for empty row selection")
	}
}
