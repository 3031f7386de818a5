package bakerecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the record at dbPath, creating the schema if needed.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	// One connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("%w: %w", ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		files INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		uri TEXT NOT NULL,
		source_path TEXT,
		fingerprint TEXT,
		files TEXT NOT NULL,
		file_count INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		pagination_accessed INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		error TEXT,
		baked_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_run_id ON entries(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records the start of a run.
func (s *SQLiteStore) BeginRun(ctx context.Context, runID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, outcome) VALUES (?, ?, ?)",
		runID, startedAt.UnixNano(), string(OutcomeRunning),
	)
	if err != nil {
		return fmt.Errorf("%w: insert run: %w", ErrAppendFailed, err)
	}
	return nil
}

// Append adds an entry to its run.
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := json.Marshal(entry.Files)
	if err != nil {
		return fmt.Errorf("%w: marshal files: %w", ErrAppendFailed, err)
	}
	bakedAt := entry.BakedAt
	if bakedAt.IsZero() {
		bakedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, uri, source_path, fingerprint, files, file_count, assets,
			pagination_accessed, duration_ns, error, baked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.URI, entry.SourcePath, entry.Fingerprint, string(files), len(entry.Files),
		entry.Assets, entry.PaginationAccessed, int64(entry.Duration), entry.Error, bakedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert entry: %w", ErrAppendFailed, err)
	}
	return nil
}

// FinishRun closes a run and stores its totals.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, outcome Outcome, finishedAt time.Time) (Run, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
			finished_at = ?,
			outcome = ?,
			pages = (SELECT COUNT(*) FROM entries WHERE run_id = runs.id),
			files = (SELECT COALESCE(SUM(file_count), 0) FROM entries WHERE run_id = runs.id),
			failures = (SELECT COUNT(*) FROM entries WHERE run_id = runs.id AND error <> '')
		WHERE id = ?`,
		finishedAt.UnixNano(), string(outcome), runID,
	)
	s.mu.Unlock()
	if err != nil {
		return Run{}, fmt.Errorf("%w: update run: %w", ErrAppendFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.Run(ctx, runID)
}

const runColumns = "id, started_at, finished_at, outcome, pages, files, failures"

// Run returns one run.
func (s *SQLiteStore) Run(ctx context.Context, runID string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return run, nil
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query runs: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", ErrQueryFailed, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrQueryFailed, err)
	}
	return runs, nil
}

// Entries returns a run's entries in bake order.
func (s *SQLiteStore) Entries(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, uri, source_path, fingerprint, files, assets, pagination_accessed,
			duration_ns, error, baked_at
		FROM entries WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                  Entry
			source, fp, errMsg sql.NullString
			filesJSON          string
			durationNS, baked  int64
		)
		if err := rows.Scan(&e.RunID, &e.URI, &source, &fp, &filesJSON, &e.Assets,
			&e.PaginationAccessed, &durationNS, &errMsg, &baked); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %w", ErrQueryFailed, err)
		}
		if err := json.Unmarshal([]byte(filesJSON), &e.Files); err != nil {
			return nil, fmt.Errorf("%w: unmarshal files: %w", ErrQueryFailed, err)
		}
		e.SourcePath = source.String
		e.Fingerprint = fp.String
		e.Error = errMsg.String
		e.Duration = time.Duration(durationNS)
		e.BakedAt = time.Unix(0, baked)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrQueryFailed, err)
	}
	return entries, nil
}

// LastRunID returns the ID of the newest finished run.
func (s *SQLiteStore) LastRunID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM runs WHERE finished_at IS NOT NULL ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return id, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
		outcome  string
	)
	if err := row.Scan(&run.ID, &started, &finished, &outcome, &run.Pages, &run.Files, &run.Failures); err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(0, started)
	if finished.Valid {
		run.FinishedAt = time.Unix(0, finished.Int64)
	}
	run.Outcome = Outcome(outcome)
	return run, nil
}
