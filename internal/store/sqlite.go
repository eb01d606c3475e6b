package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"nickandperla.net/wildprompt/internal/dict"
)

const driverName = "sqlite"

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store. Slots are rows ordered by position with
// their entries held as a JSON array.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			entries TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked(s.db, MetaSchemaVersion)
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "":
		if err := s.setMetadataUnlocked(s.db, MetaSchemaVersion, SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// LoadAll reads every slot in position order.
func (s *SQLite) LoadAll() (*dict.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT key, entries FROM slots ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := dict.NewMapping()
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var entries []string
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("slot %s: %w", key, err)
		}
		m.Set(key, entries)
	}
	return m, rows.Err()
}

// Persist rewrites the slots table in one transaction.
func (s *SQLite) Persist(m *dict.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM slots"); err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO slots (key, position, entries) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	pos := 0
	for key, entries := range m.All() {
		if entries == nil {
			entries = []string{}
		}
		raw, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(key, pos, string(raw)); err != nil {
			return fmt.Errorf("slot %s: %w", key, err)
		}
		pos++
	}
	if err := s.setMetadataUnlocked(tx, MetaSlotCount, strconv.Itoa(pos)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(s.db, key)
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(s.db, key, value)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(q querier, key string) (string, error) {
	var value string
	err := q.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(q querier, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
