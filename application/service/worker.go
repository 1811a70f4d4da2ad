package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/domain/job"
)

// Worker processes tasks from the queue. Each claimed task runs under a
// context bound by the task's timeout; the outcome is recorded back on the
// task row so the queue's view of the job survives the progress cache.
type Worker struct {
	store       job.TaskStore
	registry    *handler.Registry
	logger      *slog.Logger
	pollPeriod  time.Duration
	concurrency int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a queue worker.
func NewWorker(store job.TaskStore, registry *handler.Registry, logger *slog.Logger) *Worker {
	return &Worker{
		store:       store,
		registry:    registry,
		logger:      logger,
		pollPeriod:  time.Second,
		concurrency: 1,
	}
}

// WithPollPeriod sets the poll period for checking new tasks.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	if d > 0 {
		w.pollPeriod = d
	}
	return w
}

// WithConcurrency sets how many claim loops run in parallel. Each loop
// claims and executes one task at a time; Claim's transactional select
// keeps loops from grabbing the same task.
func (w *Worker) WithConcurrency(n int) *Worker {
	if n > 0 {
		w.concurrency = n
	}
	return w
}

// Start begins processing tasks from the queue.
// The worker runs in goroutines and can be stopped with Stop().
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}

	w.logger.Info("queue worker started", slog.Int("concurrency", w.concurrency))
}

// Stop gracefully shuts down the worker.
// It waits for the current task to complete before returning.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	w.logger.Debug("worker loop started")

	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker loop stopping")
			return
		case <-ticker.C:
			if err := w.processNext(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("error processing task",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (w *Worker) processNext(ctx context.Context) error {
	t, found, err := w.store.Claim(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	return w.processTask(ctx, t)
}

func (w *Worker) processTask(ctx context.Context, t job.Task) error {
	start := time.Now()

	w.logger.Info("processing task",
		slog.Int64("task_id", t.ID()),
		slog.String("job_id", t.JobID().String()),
		slog.String("operation", t.Operation().String()),
	)

	h, err := w.registry.Handler(t.Operation())
	if err != nil {
		w.logger.Error("no handler for operation",
			slog.Int64("task_id", t.ID()),
			slog.String("operation", t.Operation().String()),
		)
		return w.store.MarkFailed(ctx, t.ID(), err.Error())
	}

	// The task timeout is the queue's hard limit; the handler sees it as
	// context cancellation.
	taskCtx, cancel := context.WithTimeout(ctx, t.Timeout())
	err = w.executeWithRecovery(taskCtx, h, t)
	cancel()

	if err != nil {
		w.logger.Error("task execution failed",
			slog.Int64("task_id", t.ID()),
			slog.String("job_id", t.JobID().String()),
			slog.String("operation", t.Operation().String()),
			slog.String("error", err.Error()),
		)
		return w.store.MarkFailed(ctx, t.ID(), err.Error())
	}

	w.logger.Info("task completed",
		slog.Int64("task_id", t.ID()),
		slog.String("job_id", t.JobID().String()),
		slog.String("operation", t.Operation().String()),
		slog.Duration("duration", time.Since(start)),
	)

	return w.store.MarkFinished(ctx, t.ID())
}

func (w *Worker) executeWithRecovery(ctx context.Context, h handler.Handler, t job.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, t.Payload())
}
