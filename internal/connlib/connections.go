package connlib

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rowed/internal/gridlib"
)

// Config holds the driver-specific connection parameters. Only the fields
// relevant to the connection's type are populated.
type Config struct {
	Filepath string `json:"filepath,omitempty"` // sqlite
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
	SSL      bool   `json:"ssl,omitempty"`
}

// Connection is a saved database connection.
type Connection struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"` // sqlite, mysql, postgres
	Config Config `json:"config"`
}

// DBType maps the connection's type tag to a dialect.
func (c Connection) DBType() (gridlib.DatabaseType, error) {
	return gridlib.ParseDatabaseType(c.Type)
}

// ConnString builds the driver name and DSN for this connection. database
// overrides the configured database when non-empty; SQLite ignores it.
func (c Connection) ConnString(database string) (driver, dsn string, err error) {
	dbName := c.Config.Database
	if database != "" {
		dbName = database
	}
	switch c.Type {
	case "sqlite":
		if c.Config.Filepath == "" {
			return "", "", fmt.Errorf("sqlite connection %q has no filepath", c.Name)
		}
		if _, err := os.Stat(c.Config.Filepath); os.IsNotExist(err) {
			return "", "", fmt.Errorf("sqlite file does not exist: %s", c.Config.Filepath)
		}
		return "sqlite3", c.Config.Filepath, nil

	case "postgres":
		connStr := fmt.Sprintf("host=%s port=%d", c.Config.Host, c.Config.Port)
		if c.Config.User != "" {
			connStr += fmt.Sprintf(" user=%s", c.Config.User)
		}
		if c.Config.Password != "" {
			connStr += fmt.Sprintf(" password=%s", c.Config.Password)
		}
		if dbName != "" {
			connStr += fmt.Sprintf(" dbname=%s", dbName)
		}
		if c.Config.SSL {
			connStr += " sslmode=require"
		} else {
			connStr += " sslmode=disable"
		}
		return "postgres", connStr, nil

	case "mysql":
		connStr := c.Config.User
		if c.Config.Password != "" {
			connStr += ":" + c.Config.Password
		}
		connStr += fmt.Sprintf("@tcp(%s:%d)/%s", c.Config.Host, c.Config.Port, dbName)
		if c.Config.SSL {
			connStr += "?tls=true"
		}
		return "mysql", connStr, nil

	default:
		return "", "", fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

// Store persists connections as pretty-printed JSON under the config
// directory, one file for all connections.
type Store struct {
	path string
}

func NewStore(configDir string) *Store {
	return &Store{path: filepath.Join(configDir, "connections.json")}
}

func (s *Store) load() ([]Connection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read connections file: %w", err)
	}
	var connections []Connection
	if err := json.Unmarshal(data, &connections); err != nil {
		return nil, fmt.Errorf("could not parse connections file: %w", err)
	}
	return connections, nil
}

func (s *Store) save(connections []Connection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(connections, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal connections: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("could not write connections file: %w", err)
	}
	return nil
}

// Create validates and saves a new connection, returning it with a fresh id.
func (s *Store) Create(name, dbType string, config Config) (Connection, error) {
	conn := Connection{
		ID:     uuid.NewString(),
		Name:   name,
		Type:   dbType,
		Config: config,
	}
	if _, err := conn.DBType(); err != nil {
		return Connection{}, err
	}
	connections, err := s.load()
	if err != nil {
		return Connection{}, err
	}
	connections = append(connections, conn)
	if err := s.save(connections); err != nil {
		return Connection{}, err
	}
	return conn, nil
}

func (s *Store) List() ([]Connection, error) {
	return s.load()
}

// Get finds a connection by id.
func (s *Store) Get(id string) (Connection, error) {
	connections, err := s.load()
	if err != nil {
		return Connection{}, err
	}
	for _, conn := range connections {
		if conn.ID == id {
			return conn, nil
		}
	}
	return Connection{}, fmt.Errorf("connection not found: %s", id)
}

// Resolve finds a connection by id or, failing that, by name.
func (s *Store) Resolve(idOrName string) (Connection, error) {
	connections, err := s.load()
	if err != nil {
		return Connection{}, err
	}
	for _, conn := range connections {
		if conn.ID == idOrName {
			return conn, nil
		}
	}
	for _, conn := range connections {
		if conn.Name == idOrName {
			return conn, nil
		}
	}
	return Connection{}, fmt.Errorf("connection not found: %s", idOrName)
}

// Update replaces the name and/or config of an existing connection.
func (s *Store) Update(id string, name *string, config *Config) error {
	connections, err := s.load()
	if err != nil {
		return err
	}
	found := false
	for i := range connections {
		if connections[i].ID != id {
			continue
		}
		if name != nil {
			connections[i].Name = *name
		}
		if config != nil {
			connections[i].Config = *config
		}
		found = true
		break
	}
	if !found {
		return fmt.Errorf("connection not found: %s", id)
	}
	return s.save(connections)
}

func (s *Store) Delete(id string) error {
	connections, err := s.load()
	if err != nil {
		return err
	}
	kept := connections[:0]
	for _, conn := range connections {
		if conn.ID != id {
			kept = append(kept, conn)
		}
	}
	return s.save(kept)
}

// Test opens the connection and pings it.
func Test(conn Connection) error {
	driver, dsn, err := conn.ConnString("")
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
