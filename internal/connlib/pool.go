package connlib

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// PoolManager caches one *sql.DB per (connection, database) pair. A cached
// handle is health-checked before reuse and reopened when the ping fails.
type PoolManager struct {
	mu    sync.RWMutex
	pools map[string]*sql.DB
}

func NewPoolManager() *PoolManager {
	return &PoolManager{pools: make(map[string]*sql.DB)}
}

func poolKey(connectionID, database string) string {
	return connectionID + ":" + database
}

// Get returns a healthy database handle for the connection, opening one on
// first use. database selects a database other than the configured one;
// pass the empty string for the connection default.
func (m *PoolManager) Get(ctx context.Context, conn Connection, database string) (*sql.DB, error) {
	key := poolKey(conn.ID, database)

	m.mu.RLock()
	db, ok := m.pools[key]
	m.mu.RUnlock()
	if ok {
		if err := db.PingContext(ctx); err == nil {
			return db, nil
		}
		// Stale handle; drop it and reopen below.
		m.mu.Lock()
		if m.pools[key] == db {
			delete(m.pools, key)
			db.Close()
		}
		m.mu.Unlock()
	}

	driver, dsn, err := conn.ConnString(database)
	if err != nil {
		return nil, err
	}
	db, err = sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.pools[key]; ok {
		db.Close()
		return existing, nil
	}
	m.pools[key] = db
	return db, nil
}

// Remove closes every pool belonging to the connection.
func (m *PoolManager) Remove(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := connectionID + ":"
	for key, db := range m.pools {
		if strings.HasPrefix(key, prefix) {
			db.Close()
			delete(m.pools, key)
		}
	}
}

// Close closes all cached pools.
func (m *PoolManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, db := range m.pools {
		db.Close()
		delete(m.pools, key)
	}
}
