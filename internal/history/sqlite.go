package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		compiler TEXT NOT NULL,
		revision TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		sources INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE TABLE IF NOT EXISTS invocations (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		source TEXT NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		command TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run and its invocations in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, run Run, invocations []Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, root, compiler, revision, started_at, finished_at, sources, succeeded, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Root, run.Compiler, run.Revision,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Sources, run.Succeeded, run.Outcome, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, inv := range invocations {
		command, err := json.Marshal(inv.Command)
		if err != nil {
			return fmt.Errorf("marshal command: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invocations (run_id, seq, source, input, output, command, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, inv.Seq, inv.Source, inv.Input, inv.Output, string(command), inv.Duration.Milliseconds(), inv.Error,
		)
		if err != nil {
			return fmt.Errorf("insert invocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means 20.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, root, compiler, revision, started_at, finished_at, sources, succeeded, outcome, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			revision, errText sql.NullString
			started, finished int64
		)
		if err := rows.Scan(&r.RunID, &r.Root, &r.Compiler, &revision, &started, &finished,
			&r.Sources, &r.Succeeded, &r.Outcome, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Revision = revision.String
		r.Error = errText.String
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Invocations returns a run's invocations in execution order.
func (s *SQLiteStore) Invocations(ctx context.Context, runID string) ([]Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source, input, output, command, duration_ms, error
		 FROM invocations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var invs []Invocation
	for rows.Next() {
		var (
			inv        Invocation
			command    string
			durationMS int64
			errText    sql.NullString
		)
		if err := rows.Scan(&inv.Seq, &inv.Source, &inv.Input, &inv.Output, &command, &durationMS, &errText); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if err := json.Unmarshal([]byte(command), &inv.Command); err != nil {
			return nil, fmt.Errorf("unmarshal command: %w", err)
		}
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		inv.Error = errText.String
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return invs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
