// Package history keeps one row per agent run in a local SQLite database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("history: not found")

// Report kinds recorded in Run.Kind.
const (
	KindUnconfigured = "unconfigured"
	KindNormal       = "normal"
	KindFailure      = "failure"
)

type DB struct {
	db   *sql.DB
	path string
}

type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Kind       string        `json:"kind"`
	Score      int           `json:"score"`
	Status     string        `json:"status,omitempty"`
	Critical   int           `json:"critical"`
	Warnings   int           `json:"warnings"`
	Offline    int           `json:"offline"`
	Hosts      int           `json:"hosts"`
	Issues     int           `json:"issues"`
	Channel    string        `json:"channel,omitempty"`
	BackupPath string        `json:"backup_path,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Open creates or opens the database at path with WAL mode and a 5 second
// busy timeout, creating the parent directory and the runs table as needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		kind        TEXT NOT NULL,
		score       INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT '',
		critical    INTEGER NOT NULL DEFAULT 0,
		warnings    INTEGER NOT NULL DEFAULT 0,
		offline     INTEGER NOT NULL DEFAULT 0,
		hosts       INTEGER NOT NULL DEFAULT 0,
		issues      INTEGER NOT NULL DEFAULT 0,
		channel     TEXT NOT NULL DEFAULT '',
		backup_path TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Path() string {
	return d.path
}

const runColumns = `id, started_at, duration_ms, kind, score, status, critical, warnings,
	offline, hosts, issues, channel, backup_path, error`

// Insert stores a run. Timestamps are kept as UTC RFC3339.
func (d *DB) Insert(r Run) error {
	_, err := d.db.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Duration.Milliseconds(), r.Kind,
		r.Score, r.Status, r.Critical, r.Warnings, r.Offline, r.Hosts, r.Issues,
		r.Channel, r.BackupPath, r.Error,
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID or ErrNotFound.
func (d *DB) Get(id string) (Run, error) {
	r, err := scanRun(d.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: get run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (d *DB) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return runs, nil
}

// Latest returns the newest run or ErrNotFound on an empty database.
func (d *DB) Latest() (Run, error) {
	runs, err := d.List(1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// DeleteBefore removes runs that started before cutoff.
func (d *DB) DeleteBefore(cutoff time.Time) (int, error) {
	res, err := d.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("history: delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: rows affected: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r          Run
		startedAt  string
		durationMS int64
	)
	err := s.Scan(&r.ID, &startedAt, &durationMS, &r.Kind, &r.Score, &r.Status,
		&r.Critical, &r.Warnings, &r.Offline, &r.Hosts, &r.Issues,
		&r.Channel, &r.BackupPath, &r.Error)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}
