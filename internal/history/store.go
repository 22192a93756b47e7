package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"wcagscan/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases are rejected rather than silently migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is one recorded scan launch.
type Entry struct {
	ScanID       string
	ProjectID    string
	ProjectName  string
	BaseURL      string
	ScanType     string
	Status       string
	TotalIssues  *int
	Score        *float64
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Store manages scan history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the configured
// data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryDBPath())
}

// OpenPath connects to the history database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record inserts a new history entry for a freshly launched scan.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.ScanID == "" {
		return errors.New("history: scan id is required")
	}
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scans (scan_id, project_id, project_name, base_url, scan_type, status, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ScanID, entry.ProjectID, entry.ProjectName, entry.BaseURL,
		entry.ScanType, entry.Status, startedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record scan %s: %w", entry.ScanID, err)
	}
	return nil
}

// UpdateOutcome records the terminal state of a previously recorded scan.
// Updating an unknown scan id is a no-op.
func (s *Store) UpdateOutcome(ctx context.Context, scanID, status string, totalIssues *int, score *float64, errorMessage string) error {
	finishedAt := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
UPDATE scans
SET status = ?, total_issues = ?, score = ?, error_message = ?, finished_at = ?
WHERE scan_id = ?`,
		status, totalIssues, score, errorMessage, finishedAt, scanID)
	if err != nil {
		return fmt.Errorf("update scan %s outcome: %w", scanID, err)
	}
	return nil
}

// List returns the most recent entries, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
SELECT scan_id, project_id, project_name, base_url, scan_type, status,
       total_issues, score, error_message, started_at, finished_at
FROM scans
ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var totalIssues sql.NullInt64
		var score sql.NullFloat64
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&entry.ScanID, &entry.ProjectID, &entry.ProjectName,
			&entry.BaseURL, &entry.ScanType, &entry.Status,
			&totalIssues, &score, &entry.ErrorMessage, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if totalIssues.Valid {
			v := int(totalIssues.Int64)
			entry.TotalIssues = &v
		}
		if score.Valid {
			v := score.Float64
			entry.Score = &v
		}
		if ts, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
			entry.StartedAt = ts
		}
		if finishedAt.Valid {
			if ts, parseErr := time.Parse(time.RFC3339, finishedAt.String); parseErr == nil {
				entry.FinishedAt = &ts
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM scans WHERE started_at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune scan history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune scan history: %w", err)
	}
	return removed, nil
}
