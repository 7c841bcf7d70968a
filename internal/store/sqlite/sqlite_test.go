package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

func testOp(repo string, status models.OperationStatus, started time.Time) *models.Operation {
	return &models.Operation{
		ID:         uuid.New().String(),
		RepoName:   repo,
		Kind:       models.OperationFetch,
		Status:     status,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestOpenCreatesSchemaAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}

func TestRecordAndList(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordOperation(ctx, testOp("alpha", models.OperationOK, base)))
	require.NoError(t, s.RecordOperation(ctx, testOp("beta", models.OperationFailed, base.Add(time.Minute))))
	require.NoError(t, s.RecordOperation(ctx, testOp("gamma", models.OperationOK, base.Add(2*time.Minute))))

	ops, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "gamma", ops[0].RepoName)
	assert.Equal(t, "beta", ops[1].RepoName)
}

func TestCountByStatus(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.RecordOperation(ctx, testOp("alpha", models.OperationOK, now)))
	require.NoError(t, s.RecordOperation(ctx, testOp("alpha", models.OperationFailed, now)))

	ok, err := s.CountByStatus(ctx, models.OperationOK)
	require.NoError(t, err)
	assert.Equal(t, 1, ok)

	failed, err := s.CountByStatus(ctx, models.OperationFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}

func TestErrorFieldsRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	op := testOp("alpha", models.OperationFailed, time.Now().UTC())
	op.ErrorMessage = "git fetch failed (exit 128)"
	op.Stderr = "fatal: could not read from remote"

	require.NoError(t, s.RecordOperation(ctx, op))

	ops, err := s.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, op.ErrorMessage, ops[0].ErrorMessage)
	assert.Equal(t, op.Stderr, ops[0].Stderr)
}
