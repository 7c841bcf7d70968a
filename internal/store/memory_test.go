package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

func op(id string, status models.OperationStatus) *models.Operation {
	now := time.Now().UTC()
	return &models.Operation{
		ID:         id,
		RepoName:   "alpha",
		Kind:       models.OperationFetch,
		Status:     status,
		StartedAt:  now,
		FinishedAt: now,
	}
}

func TestMemoryStoreListRecentNewestFirst(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.RecordOperation(ctx, op(fmt.Sprintf("op-%d", i), models.OperationOK)))
	}

	ops, err := m.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "op-4", ops[0].ID)
	assert.Equal(t, "op-2", ops[2].ID)
}

func TestMemoryStoreCountByStatus(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.RecordOperation(ctx, op("a", models.OperationOK)))
	require.NoError(t, m.RecordOperation(ctx, op("b", models.OperationFailed)))
	require.NoError(t, m.RecordOperation(ctx, op("c", models.OperationOK)))

	ok, err := m.CountByStatus(ctx, models.OperationOK)
	require.NoError(t, err)
	assert.Equal(t, 2, ok)

	failed, err := m.CountByStatus(ctx, models.OperationFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}

func TestMemoryStoreBounded(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < memoryLimit+10; i++ {
		require.NoError(t, m.RecordOperation(ctx, op(fmt.Sprintf("op-%d", i), models.OperationOK)))
	}

	ops, err := m.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ops, memoryLimit)
}
