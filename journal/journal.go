// Package journal keeps a history of finished chain runs in SQLite.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"dingwecker/chain"
)

// ErrNotFound is returned when a run doesn't exist.
var ErrNotFound = errors.New("run not found")

// Entry is one recorded run.
type Entry struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Slot         string    `json:"slot,omitempty"`
	TriggeredAt  time.Time `json:"triggered_at"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	InitialDelay int       `json:"initial_delay"`
	ReturnDelay  int       `json:"return_delay"`
	Outcome      string    `json:"outcome"`
	LaunchError  string    `json:"launch_error,omitempty"`
	RestoreError string    `json:"restore_error,omitempty"`
}

// FromRun converts a finished run into an Entry.
func FromRun(run chain.Run) Entry {
	e := Entry{
		ID:           run.ID,
		Source:       run.Trigger.Source,
		Slot:         run.Trigger.Slot,
		TriggeredAt:  run.Trigger.At,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		InitialDelay: run.InitialDelay,
		ReturnDelay:  run.ReturnDelay,
		Outcome:      string(run.Outcome),
	}
	if run.LaunchErr != nil {
		e.LaunchError = run.LaunchErr.Error()
	}
	if run.RestoreErr != nil {
		e.RestoreError = run.RestoreErr.Error()
	}
	return e
}

// Store records runs in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			source        TEXT NOT NULL,
			slot          TEXT NOT NULL,
			triggered_at  TEXT NOT NULL,
			started_at    TEXT NOT NULL,
			finished_at   TEXT NOT NULL,
			initial_delay INTEGER NOT NULL,
			return_delay  INTEGER NOT NULL,
			outcome       TEXT NOT NULL,
			launch_error  TEXT NOT NULL,
			restore_error TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Record stores a finished run.
func (s *Store) Record(run chain.Run) error {
	e := FromRun(run)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (id, source, slot, triggered_at, started_at, finished_at,
			initial_delay, return_delay, outcome, launch_error, restore_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Slot,
		formatTime(e.TriggeredAt), formatTime(e.StartedAt), formatTime(e.FinishedAt),
		e.InitialDelay, e.ReturnDelay, e.Outcome, e.LaunchError, e.RestoreError)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *Store) Get(id string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, source, slot, triggered_at, started_at, finished_at,
			initial_delay, return_delay, outcome, launch_error, restore_error
		FROM runs WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, source, slot, triggered_at, started_at, finished_at,
			initial_delay, return_delay, outcome, launch_error, restore_error
		FROM runs ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the total number of recorded runs.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var triggered, started, finished string
	err := row.Scan(&e.ID, &e.Source, &e.Slot, &triggered, &started, &finished,
		&e.InitialDelay, &e.ReturnDelay, &e.Outcome, &e.LaunchError, &e.RestoreError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	e.TriggeredAt, _ = time.Parse(time.RFC3339Nano, triggered)
	e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
