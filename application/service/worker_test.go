package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/infrastructure/persistence"
	"github.com/vectorscope/vectorscope/internal/testdb"
)

type handlerFunc func(ctx context.Context, payload map[string]any) error

func (f handlerFunc) Execute(ctx context.Context, payload map[string]any) error {
	return f(ctx, payload)
}

func waitForState(t *testing.T, tasks persistence.TaskStore, jobID job.ID, want job.QueueState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := tasks.GetByJobID(context.Background(), jobID)
		require.NoError(t, err)
		if task.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task for job %s never reached state %s", jobID, want)
}

func TestWorkerProcessesQueuedTask(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	tasks := persistence.NewTaskStore(db)
	logger := discardLogger()

	var executed atomic.Int64
	registry := handler.NewRegistry()
	registry.Register(job.OperationGenerate, handlerFunc(func(_ context.Context, payload map[string]any) error {
		executed.Add(1)
		assert.Equal(t, "v", payload["k"])
		return nil
	}))

	jobID := job.NewID()
	_, err := tasks.Save(ctx, job.NewTask(jobID, job.OperationGenerate, map[string]any{"k": "v"}, time.Hour))
	require.NoError(t, err)

	worker := NewWorker(tasks, registry, logger).WithPollPeriod(10 * time.Millisecond)
	worker.Start(ctx)
	defer worker.Stop()

	waitForState(t, tasks, jobID, job.QueueStateFinished)
	assert.Equal(t, int64(1), executed.Load())
}

func TestWorkerRecordsHandlerFailure(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	tasks := persistence.NewTaskStore(db)

	registry := handler.NewRegistry()
	registry.Register(job.OperationGenerate, handlerFunc(func(context.Context, map[string]any) error {
		return errors.New("boom")
	}))

	jobID := job.NewID()
	_, err := tasks.Save(ctx, job.NewTask(jobID, job.OperationGenerate, nil, time.Hour))
	require.NoError(t, err)

	worker := NewWorker(tasks, registry, discardLogger()).WithPollPeriod(10 * time.Millisecond)
	worker.Start(ctx)
	defer worker.Stop()

	waitForState(t, tasks, jobID, job.QueueStateFailed)

	task, err := tasks.GetByJobID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "boom", task.ErrorMessage())
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	tasks := persistence.NewTaskStore(db)

	registry := handler.NewRegistry()
	registry.Register(job.OperationGenerate, handlerFunc(func(context.Context, map[string]any) error {
		panic("handler bug")
	}))

	jobID := job.NewID()
	_, err := tasks.Save(ctx, job.NewTask(jobID, job.OperationGenerate, nil, time.Hour))
	require.NoError(t, err)

	worker := NewWorker(tasks, registry, discardLogger()).WithPollPeriod(10 * time.Millisecond)
	worker.Start(ctx)
	defer worker.Stop()

	waitForState(t, tasks, jobID, job.QueueStateFailed)

	task, err := tasks.GetByJobID(ctx, jobID)
	require.NoError(t, err)
	assert.Contains(t, task.ErrorMessage(), "panicked")
}

func TestWorkerFailsTaskWithoutHandler(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	tasks := persistence.NewTaskStore(db)

	jobID := job.NewID()
	_, err := tasks.Save(ctx, job.NewTask(jobID, job.Operation("unheard_of"), nil, time.Hour))
	require.NoError(t, err)

	worker := NewWorker(tasks, handler.NewRegistry(), discardLogger()).WithPollPeriod(10 * time.Millisecond)
	worker.Start(ctx)
	defer worker.Stop()

	waitForState(t, tasks, jobID, job.QueueStateFailed)
}

func TestWorkerConcurrencyRunsTasksInParallel(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	tasks := persistence.NewTaskStore(db)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	registry := handler.NewRegistry()
	registry.Register(job.OperationGenerate, handlerFunc(func(ctx context.Context, _ map[string]any) error {
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	first := job.NewID()
	second := job.NewID()
	_, err := tasks.Save(ctx, job.NewTask(first, job.OperationGenerate, nil, time.Hour))
	require.NoError(t, err)
	_, err = tasks.Save(ctx, job.NewTask(second, job.OperationGenerate, nil, time.Hour))
	require.NoError(t, err)

	worker := NewWorker(tasks, registry, discardLogger()).
		WithPollPeriod(10 * time.Millisecond).
		WithConcurrency(2)
	worker.Start(ctx)
	defer worker.Stop()

	// Both tasks must be in flight at once before either is released.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of 2 tasks started with two claim loops", i)
		}
	}
	close(release)

	waitForState(t, tasks, first, job.QueueStateFinished)
	waitForState(t, tasks, second, job.QueueStateFinished)
}
