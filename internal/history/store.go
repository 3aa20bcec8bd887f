// Package history persists run records and their progress logs in SQLite.
// Every scan or sort run gets one row in runs plus an ordered log stream in
// run_logs; old runs are pruned past the configured retention.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"centrifuge/internal/config"
	"centrifuge/internal/report"
	"centrifuge/internal/services"
)

// Run kinds.
const (
	KindScan = "scan"
	KindSort = "sort"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline run.
type Run struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Root        string          `json:"root"`
	FolderName  string          `json:"folder_name"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// LogEntry is one progress message attached to a run.
type LogEntry struct {
	CreatedAt time.Time       `json:"created_at"`
	Severity  report.Severity `json:"severity"`
	Message   string          `json:"message"`
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	maxRuns int
}

// Open initializes or connects to the history database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, maxRuns: cfg.History.MaxRuns}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// StartRun records a new running run.
func (s *Store) StartRun(ctx context.Context, id, kind, root string) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, root, folder_name, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, StatusRunning, root, filepath.Base(root), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// AppendLog attaches one progress message to a run.
func (s *Store) AppendLog(ctx context.Context, runID string, severity report.Severity, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_logs (run_id, created_at, severity, message) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), string(severity), message)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}

// CompleteRun marks a run as completed and stores its result document.
func (s *Store) CompleteRun(ctx context.Context, runID string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.finishRun(ctx, runID, StatusCompleted, "", payload); err != nil {
		return err
	}
	return s.prune(ctx)
}

// FailRun marks a run as failed with the given error.
func (s *Store) FailRun(ctx context.Context, runID string, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	if err := s.finishRun(ctx, runID, StatusFailed, message, nil); err != nil {
		return err
	}
	return s.prune(ctx)
}

func (s *Store) finishRun(ctx context.Context, runID, status, errMessage string, result []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, result_json = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano),
		nullableString(errMessage), nullableBytes(result), runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish", fmt.Sprintf("run %s", runID), nil)
	}
	return nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, root, folder_name, started_at, completed_at, error, result_json
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", fmt.Sprintf("run %s", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// RunLogs returns a run's progress messages in insertion order.
func (s *Store) RunLogs(ctx context.Context, runID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, severity, message FROM run_logs WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var createdAt, severity, message string
		if err := rows.Scan(&createdAt, &severity, &message); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse log timestamp: %w", err)
		}
		entries = append(entries, LogEntry{CreatedAt: ts, Severity: report.Severity(severity), Message: message})
	}
	return entries, rows.Err()
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, kind, status, root, folder_name, started_at, completed_at, error, result_json
              FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Sink returns a report sink that persists every progress message for runID.
// Persistence failures are silently dropped so a logging hiccup never stalls
// a pipeline run.
func (s *Store) Sink(ctx context.Context, runID string) report.Sink {
	return report.Func(func(message string, severity report.Severity) {
		_ = s.AppendLog(ctx, runID, severity, message)
	})
}

// prune deletes the oldest runs beyond the retention limit. Their logs go
// with them via the foreign key cascade.
func (s *Store) prune(ctx context.Context) error {
	if s.maxRuns <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
         )`, s.maxRuns)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt string
	var completedAt, errMessage, resultJSON sql.NullString
	if err := row.Scan(&run.ID, &run.Kind, &run.Status, &run.Root, &run.FolderName,
		&startedAt, &completedAt, &errMessage, &resultJSON); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = ts

	if completedAt.Valid {
		done, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		run.CompletedAt = &done
	}
	if errMessage.Valid {
		run.Error = errMessage.String
	}
	if resultJSON.Valid && resultJSON.String != "" {
		run.Result = json.RawMessage(resultJSON.String)
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBytes(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}
