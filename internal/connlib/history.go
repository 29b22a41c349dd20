package connlib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds the stored history when settings provide no
// other value.
const DefaultHistoryLimit = 1000

// HistoryEntry records one executed statement.
type HistoryEntry struct {
	ID             string  `json:"id"`
	ConnectionID   string  `json:"connection_id"`
	ConnectionName string  `json:"connection_name"`
	SQL            string  `json:"sql"`
	ExecutedAt     string  `json:"executed_at"` // RFC 3339
	Success        bool    `json:"success"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	RowsAffected   *int64  `json:"rows_affected,omitempty"`
}

// HistoryStore persists executed statements newest-first in a JSON file,
// truncated to the configured bound.
type HistoryStore struct {
	path  string
	limit int
}

func NewHistoryStore(configDir string, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{path: filepath.Join(configDir, "sql_history.json"), limit: limit}
}

func (h *HistoryStore) load() ([]HistoryEntry, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read history file: %w", err)
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("could not parse history file: %w", err)
	}
	return entries, nil
}

func (h *HistoryStore) save(entries []HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o600); err != nil {
		return fmt.Errorf("could not write history file: %w", err)
	}
	return nil
}

// Add prepends an entry, filling in id and timestamp, and truncates to
// the store's bound.
func (h *HistoryStore) Add(entry HistoryEntry) error {
	entry.ID = uuid.NewString()
	entry.ExecutedAt = time.Now().UTC().Format(time.RFC3339)

	entries, err := h.load()
	if err != nil {
		return err
	}
	entries = append([]HistoryEntry{entry}, entries...)
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	return h.save(entries)
}

// List returns history entries newest-first, optionally filtered by
// connection and limited to the first limit entries (0 means no limit).
func (h *HistoryStore) List(connectionID string, limit int) ([]HistoryEntry, error) {
	entries, err := h.load()
	if err != nil {
		return nil, err
	}
	if connectionID != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.ConnectionID == connectionID {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes one entry by id.
func (h *HistoryStore) Delete(id string) error {
	entries, err := h.load()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	return h.save(kept)
}

// Clear removes all history.
func (h *HistoryStore) Clear() error {
	return h.save(nil)
}
