package connlib

import (
	"os"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	conn, err := store.Create("local", "sqlite", Config{Filepath: "/tmp/test.db"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conn.ID == "" {
		t.Error("created connection should have an id")
	}

	got, err := store.Get(conn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "local" || got.Type != "sqlite" || got.Config.Filepath != "/tmp/test.db" {
		t.Errorf("got %+v", got)
	}
}

func TestStoreCreateRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create("bad", "oracle", Config{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestStoreResolveByName(t *testing.T) {
	store := newTestStore(t)

	conn, err := store.Create("local", "sqlite", Config{Filepath: "/tmp/test.db"})
	if err != nil {
		t.Fatal(err)
	}

	byID, err := store.Resolve(conn.ID)
	if err != nil || byID.ID != conn.ID {
		t.Errorf("Resolve by id = %+v, %v", byID, err)
	}
	byName, err := store.Resolve("local")
	if err != nil || byName.ID != conn.ID {
		t.Errorf("Resolve by name = %+v, %v", byName, err)
	}
	if _, err := store.Resolve("missing"); err == nil {
		t.Error("expected error for unknown connection")
	}
}

func TestStoreUpdateAndDelete(t *testing.T) {
	store := newTestStore(t)

	conn, err := store.Create("local", "sqlite", Config{Filepath: "/tmp/test.db"})
	if err != nil {
		t.Fatal(err)
	}

	newName := "renamed"
	if err := store.Update(conn.ID, &newName, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.Get(conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "renamed" {
		t.Errorf("name = %q, want renamed", got.Name)
	}
	if got.Config.Filepath != "/tmp/test.db" {
		t.Error("nil config update should keep the existing config")
	}

	if err := store.Delete(conn.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(conn.ID); err == nil {
		t.Error("deleted connection should not resolve")
	}
}

func TestConnString(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	tests := []struct {
		name       string
		conn       Connection
		database   string
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "sqlite",
			conn:       Connection{Type: "sqlite", Config: Config{Filepath: tmpFile.Name()}},
			wantDriver: "sqlite3",
			wantDSN:    tmpFile.Name(),
		},
		{
			name:    "sqlite missing file",
			conn:    Connection{Type: "sqlite", Config: Config{Filepath: "/nonexistent/x.db"}},
			wantErr: true,
		},
		{
			name: "postgres",
			conn: Connection{Type: "postgres", Config: Config{
				Host: "localhost", Port: 5432, User: "eric", Database: "app",
			}},
			wantDriver: "postgres",
			wantDSN:    "host=localhost port=5432 user=eric dbname=app sslmode=disable",
		},
		{
			name: "postgres database override",
			conn: Connection{Type: "postgres", Config: Config{
				Host: "localhost", Port: 5432, User: "eric", Database: "app", SSL: true,
			}},
			database:   "other",
			wantDriver: "postgres",
			wantDSN:    "host=localhost port=5432 user=eric dbname=other sslmode=require",
		},
		{
			name: "mysql",
			conn: Connection{Type: "mysql", Config: Config{
				Host: "localhost", Port: 3306, User: "root", Password: "pw", Database: "app",
			}},
			wantDriver: "mysql",
			wantDSN:    "root:pw@tcp(localhost:3306)/app",
		},
		{
			name:    "unsupported type",
			conn:    Connection{Type: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := tt.conn.ConnString(tt.database)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q %q", driver, dsn)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConnString failed: %v", err)
			}
			if driver != tt.wantDriver {
				t.Errorf("driver = %q, want %q", driver, tt.wantDriver)
			}
			if dsn != tt.wantDSN {
				t.Errorf("dsn = %q, want %q", dsn, tt.wantDSN)
			}
		})
	}
}

func TestStoreFilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if _, err := store.Create("local", "sqlite", Config{Filepath: "/tmp/test.db"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("connections file mode = %o, want 600", perm)
	}
	data, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Error("connections file should be pretty-printed")
	}
}
