// Package store provides persistence interfaces and implementations for
// the operation history.
package store

import (
	"context"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

// OperationStore records and queries fetch/pull operations.
type OperationStore interface {
	// RecordOperation appends a finished operation to the history.
	RecordOperation(ctx context.Context, op *models.Operation) error
	// ListRecent returns up to limit operations, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Operation, error)
	// CountByStatus returns how many recorded operations have the given status.
	CountByStatus(ctx context.Context, status models.OperationStatus) (int, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Close closes the underlying resources.
	Close() error
}
