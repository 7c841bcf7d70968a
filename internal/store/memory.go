package store

import (
	"context"
	"sync"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

// memoryLimit caps the in-memory history so an always-on dashboard does
// not grow without bound.
const memoryLimit = 1000

// MemoryStore is an OperationStore kept entirely in memory. Used when
// history persistence is disabled, and in tests.
type MemoryStore struct {
	mu  sync.RWMutex
	ops []*models.Operation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// RecordOperation implements OperationStore.
func (m *MemoryStore) RecordOperation(_ context.Context, op *models.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	if len(m.ops) > memoryLimit {
		m.ops = m.ops[len(m.ops)-memoryLimit:]
	}
	return nil
}

// ListRecent implements OperationStore.
func (m *MemoryStore) ListRecent(_ context.Context, limit int) ([]*models.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.ops) {
		limit = len(m.ops)
	}
	out := make([]*models.Operation, 0, limit)
	for i := len(m.ops) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.ops[i])
	}
	return out, nil
}

// CountByStatus implements OperationStore.
func (m *MemoryStore) CountByStatus(_ context.Context, status models.OperationStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, op := range m.ops {
		if op.Status == status {
			count++
		}
	}
	return count, nil
}

// Ping implements OperationStore.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close implements OperationStore.
func (m *MemoryStore) Close() error { return nil }
