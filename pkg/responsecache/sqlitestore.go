package responsecache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is an optional alternate persistence backend for
// deployments that prefer a single queryable database file over the
// default JSON document (spec §6b permits an alternate backend).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// with the cache_entries table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("responsecache: opening sqlite store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("responsecache: creating cache_entries table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the table's contents with entries.
func (s *SQLiteStore) Save(entries map[string]Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_entries`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO cache_entries (key, payload) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(key, string(payload)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load reads every row back into an Entry map.
func (s *SQLiteStore) Load() (map[string]Entry, error) {
	rows, err := s.db.Query(`SELECT key, payload FROM cache_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, err
		}
		var entry Entry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, err
		}
		out[key] = entry
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
