// Package sqlite implements the operation history store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id            TEXT PRIMARY KEY,
	repo_name     TEXT NOT NULL,
	kind          TEXT NOT NULL,
	status        TEXT NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	stderr        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_operations_started_at ON operations(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_operations_repo ON operations(repo_name);
`

// Store is the SQLite-backed OperationStore.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the history database at path and
// ensures the schema exists. Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// The modernc driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// RecordOperation implements store.OperationStore.
func (s *Store) RecordOperation(ctx context.Context, op *models.Operation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, repo_name, kind, status, started_at, finished_at, error_message, stderr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.RepoName, string(op.Kind), string(op.Status),
		op.StartedAt.UTC(), op.FinishedAt.UTC(), op.ErrorMessage, op.Stderr,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// ListRecent implements store.OperationStore.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.Operation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_name, kind, status, started_at, finished_at, error_message, stderr
		 FROM operations ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		var op models.Operation
		var kind, status string
		if err := rows.Scan(&op.ID, &op.RepoName, &kind, &status,
			&op.StartedAt, &op.FinishedAt, &op.ErrorMessage, &op.Stderr); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Kind = models.OperationKind(kind)
		op.Status = models.OperationStatus(status)
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

// CountByStatus implements store.OperationStore.
func (s *Store) CountByStatus(ctx context.Context, status models.OperationStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM operations WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return count, nil
}

// Ping implements store.OperationStore.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.OperationStore.
func (s *Store) Close() error {
	return s.db.Close()
}
