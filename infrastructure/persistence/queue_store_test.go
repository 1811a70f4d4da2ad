package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
)

func TestTaskStoreSaveAndGetByJobID(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(newTestDB(t))

	jobID := job.NewID()
	payload := map[string]any{"file_id": float64(3), "column_name": "description"}

	saved, err := store.Save(ctx, job.NewTask(jobID, job.OperationGenerate, payload, time.Hour))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID())
	assert.Equal(t, job.QueueStateQueued, saved.State())

	got, err := store.GetByJobID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.OperationGenerate, got.Operation())
	assert.Equal(t, payload, got.Payload())
	assert.Equal(t, time.Hour, got.Timeout())
}

func TestTaskStoreGetByJobIDNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(newTestDB(t))

	_, err := store.GetByJobID(ctx, job.NewID())
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestTaskStoreClaimOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(newTestDB(t))

	first := job.NewID()
	second := job.NewID()
	_, err := store.Save(ctx, job.NewTask(first, job.OperationGenerate, nil, 0))
	require.NoError(t, err)
	_, err = store.Save(ctx, job.NewTask(second, job.OperationGenerate, nil, 0))
	require.NoError(t, err)

	claimed, ok, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, claimed.JobID())
	assert.Equal(t, job.QueueStateStarted, claimed.State())
	require.NotNil(t, claimed.StartedAt())

	claimed2, ok, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, claimed2.JobID())

	_, ok, err = store.Claim(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no queued tasks should remain")
}

func TestTaskStoreTerminalStates(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(newTestDB(t))

	okID := job.NewID()
	failedID := job.NewID()
	_, err := store.Save(ctx, job.NewTask(okID, job.OperationGenerate, nil, 0))
	require.NoError(t, err)
	_, err = store.Save(ctx, job.NewTask(failedID, job.OperationGenerate, nil, 0))
	require.NoError(t, err)

	t1, ok, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.MarkFinished(ctx, t1.ID()))

	t2, ok, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.MarkFailed(ctx, t2.ID(), "embedding generation failed"))

	finished, err := store.GetByJobID(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, job.QueueStateFinished, finished.State())
	require.NotNil(t, finished.FinishedAt())

	failed, err := store.GetByJobID(ctx, failedID)
	require.NoError(t, err)
	assert.Equal(t, job.QueueStateFailed, failed.State())
	assert.Equal(t, "embedding generation failed", failed.ErrorMessage())
}

func TestTaskEffectiveStateTimesOutStartedTasks(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(newTestDB(t))

	jobID := job.NewID()
	_, err := store.Save(ctx, job.NewTask(jobID, job.OperationGenerate, nil, time.Second))
	require.NoError(t, err)

	claimed, ok, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Now().UTC()
	assert.Equal(t, job.QueueStateStarted, claimed.EffectiveState(now))
	assert.Equal(t, job.QueueStateFailed, claimed.EffectiveState(now.Add(2*time.Second)),
		"started task past its deadline must read as failed")
}

func TestLedgerStoreSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(newTestDB(t))

	jobID := job.NewID()
	entry := job.NewLedgerEntry(jobID, 7, 3, "description", "test-model")
	require.NoError(t, store.Save(ctx, entry))

	got, err := store.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ProjectID())
	assert.Equal(t, int64(3), got.FileID())
	assert.Equal(t, "description", got.Column())
	assert.False(t, got.CreatedAt().IsZero())

	entries, err := store.FindByProject(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, jobID))
	_, err = store.Get(ctx, jobID)
	require.ErrorIs(t, err, database.ErrNotFound)
}
