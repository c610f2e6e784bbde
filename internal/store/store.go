// Package store persists finished hands and match scores to SQLite when
// the dealer is run with -db.
//
// Grounded on the reference engine's pkg/server/internal/db package
// (sql.Open("sqlite3", ...) + explicit createTables), repointed from
// table/chat persistence to the dealer's own domain: one row per finished
// hand's log line, one row per match's final score line.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite database recording match history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS hands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	match_name TEXT NOT NULL,
	hand_id INTEGER NOT NULL,
	log_line TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	match_name TEXT NOT NULL,
	log_line TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: create tables: %w", err)
	}
	return nil
}

// RecordHand appends one finished hand's STATE log line.
func (s *Store) RecordHand(matchName string, handID int64, logLine string) error {
	_, err := s.db.Exec(`INSERT INTO hands (match_name, hand_id, log_line) VALUES (?, ?, ?)`,
		matchName, handID, logLine)
	if err != nil {
		return fmt.Errorf("store: record hand: %w", err)
	}
	return nil
}

// RecordScore appends the match's final SCORE log line.
func (s *Store) RecordScore(matchName, logLine string) error {
	_, err := s.db.Exec(`INSERT INTO scores (match_name, log_line) VALUES (?, ?)`, matchName, logLine)
	if err != nil {
		return fmt.Errorf("store: record score: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
