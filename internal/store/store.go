// Package store is the persistence gateway: a SQLite-backed key-value store
// holding the serialized progress blob and user preferences, each under its
// own fixed key.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cppdeck/cppdeck/internal/model"

	_ "modernc.org/sqlite"
)

const (
	progressKey = "progress"
	darkModeKey = "dark_mode"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// set upserts a key-value pair in the prefs table.
func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// get returns the value for a key. Returns empty string and nil error if
// the key is missing.
func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveProgress serializes the full chapter state list and writes it under
// the fixed progress key. The blob is replaced wholesale on every save, so
// no partial-write recovery is needed.
func (s *Store) SaveProgress(states []model.ChapterState) error {
	data, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.set(progressKey, string(data)); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

// LoadProgress returns the persisted chapter state, or nil when no state
// has been saved yet. A corrupt blob degrades to nil (fresh start) rather
// than failing.
func (s *Store) LoadProgress() ([]model.ChapterState, error) {
	raw, err := s.get(progressKey)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var states []model.ChapterState
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		slog.Warn("discarding corrupt progress blob", "error", err)
		return nil, nil
	}
	return states, nil
}

// SetDarkMode persists the dark-mode preference under its own key.
func (s *Store) SetDarkMode(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	return s.set(darkModeKey, value)
}

// DarkMode returns the persisted dark-mode preference, false when unset.
func (s *Store) DarkMode() (bool, error) {
	value, err := s.get(darkModeKey)
	if err != nil {
		return false, err
	}
	return value == "1", nil
}
