// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records pipeline runs and their stage outcomes in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DBFile is the ledger file name inside the output directory.
const DBFile = "trialscout.db"

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Ledger manages the run ledger database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Run is a row of the runs table.
type Run struct {
	ID         string
	Keyword    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Stages     []Stage
}

// Stage is a row of the stages table.
type Stage struct {
	Name       string
	OutputPath string
	Rows       int
	Failures   int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Open opens or creates the ledger at dir/DBFile.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, DBFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	l := &Ledger{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			run_id TEXT NOT NULL REFERENCES runs(id),
			stage TEXT NOT NULL,
			output_path TEXT,
			rows INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, stage)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin inserts a running run for keyword and returns its id.
func (l *Ledger) Begin(ctx context.Context, keyword string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, keyword, started_at, status) VALUES (?, ?, ?, ?)`,
		id, keyword, formatTime(l.now()), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// RecordStage stores the outcome of one stage of runID. Recording the same
// stage twice replaces the earlier row.
func (l *Ledger) RecordStage(ctx context.Context, runID string, s Stage) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO stages
			(run_id, stage, output_path, rows, failures, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.Name, s.OutputPath, s.Rows, s.Failures,
		formatTime(s.StartedAt), formatTime(s.FinishedAt), s.Error)
	if err != nil {
		return fmt.Errorf("recording stage %s: %w", s.Name, err)
	}
	return nil
}

// Finish marks runID done, or failed when runErr is non-nil.
func (l *Ledger) Finish(ctx context.Context, runID string, runErr error) error {
	status := StatusDone
	if runErr != nil {
		status = StatusFailed
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		formatTime(l.now()), status, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first, each with its stages in
// execution order.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, keyword, started_at, COALESCE(finished_at, ''), status
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Keyword, &started, &finished, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		stages, err := l.stages(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Stages = stages
	}
	return runs, nil
}

func (l *Ledger) stages(ctx context.Context, runID string) ([]Stage, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, COALESCE(output_path, ''), rows, failures, started_at, finished_at, COALESCE(error, '')
		FROM stages WHERE run_id = ? ORDER BY started_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying stages: %w", err)
	}
	defer rows.Close()

	var out []Stage
	for rows.Next() {
		var s Stage
		var started, finished string
		if err := rows.Scan(&s.Name, &s.OutputPath, &s.Rows, &s.Failures, &started, &finished, &s.Error); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		s.StartedAt = parseTime(started)
		s.FinishedAt = parseTime(finished)
		out = append(out, s)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
