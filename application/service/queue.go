package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
)

// Queue implements job.Queue over a durable task store. Tasks keep their
// terminal rows, so State can answer for jobs long after their progress
// record expired.
type Queue struct {
	store  job.TaskStore
	logger *slog.Logger
	now    func() time.Time
}

var _ job.Queue = (*Queue)(nil)

// NewQueue creates a queue service.
func NewQueue(store job.TaskStore, logger *slog.Logger) *Queue {
	return &Queue{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Enqueue registers work under the job id as correlation key.
func (s *Queue) Enqueue(ctx context.Context, op job.Operation, payload map[string]any, jobID job.ID, timeout time.Duration) error {
	t := job.NewTask(jobID, op, payload, timeout)
	if _, err := s.store.Save(ctx, t); err != nil {
		return err
	}

	s.logger.Debug("task enqueued",
		slog.String("job_id", jobID.String()),
		slog.String("operation", op.String()),
	)
	return nil
}

// State reports the queue's view of a job. Unknown ids resolve to
// QueueStateUnknown rather than an error: the caller decides whether
// unknown is acceptable.
func (s *Queue) State(ctx context.Context, jobID job.ID) (job.QueueState, error) {
	t, err := s.store.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return job.QueueStateUnknown, nil
		}
		return job.QueueStateUnknown, err
	}
	return t.EffectiveState(s.now()), nil
}
