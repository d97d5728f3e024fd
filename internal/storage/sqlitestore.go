package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteFileName is the database file created inside the storage directory.
const SQLiteFileName = "todo.db"

type sqliteKVStore struct {
	db *sql.DB
}

// NewSQLiteKVStore opens (creating if needed) a SQLite database in dir and
// returns a KeyValueStore over its kv table. Use ":memory:" for an
// in-process database.
func NewSQLiteKVStore(dir string) (KeyValueStore, error) {
	dbPath := ":memory:"
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("opening sqlite store: creating directory: %w", err)
		}
		dbPath = filepath.Join(dir, SQLiteFileName)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening sqlite store: creating schema: %w", err)
	}
	return &sqliteKVStore{db: db}, nil
}

func (s *sqliteKVStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *sqliteKVStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *sqliteKVStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite store: %w", err)
	}
	return nil
}
