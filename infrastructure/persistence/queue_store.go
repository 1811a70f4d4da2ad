package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
)

// TaskStore implements job.TaskStore using GORM. Tasks keep their terminal
// state so job status can be derived from the queue after the progress cache
// expires.
type TaskStore struct {
	db     database.Database
	mapper TaskMapper
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{
		db:     db,
		mapper: TaskMapper{},
	}
}

// Save persists a new task.
func (s TaskStore) Save(ctx context.Context, t job.Task) (job.Task, error) {
	model, err := s.mapper.ToModel(t)
	if err != nil {
		return job.Task{}, fmt.Errorf("save task: %w", err)
	}
	if model.EnqueuedAt.IsZero() {
		model.EnqueuedAt = time.Now().UTC()
	}

	result := s.db.Session(ctx).Create(&model)
	if result.Error != nil {
		return job.Task{}, fmt.Errorf("save task: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// GetByJobID retrieves the task correlated with a job id.
func (s TaskStore) GetByJobID(ctx context.Context, jobID job.ID) (job.Task, error) {
	var model QueueTaskModel
	result := s.db.Session(ctx).Where("job_id = ?", jobID.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return job.Task{}, fmt.Errorf("%w: task for job %s", database.ErrNotFound, jobID)
		}
		return job.Task{}, fmt.Errorf("get task: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// Claim atomically selects the oldest queued task and marks it started.
func (s TaskStore) Claim(ctx context.Context) (job.Task, bool, error) {
	var model QueueTaskModel

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		result := tx.Where("state = ?", string(job.QueueStateQueued)).
			Order("enqueued_at ASC, id ASC").
			First(&model)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil // no tasks available
			}
			return result.Error
		}

		now := time.Now().UTC()
		update := tx.Model(&QueueTaskModel{}).
			Where("id = ? AND state = ?", model.ID, string(job.QueueStateQueued)).
			Updates(map[string]any{
				"state":      string(job.QueueStateStarted),
				"started_at": now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Lost the race to another worker.
			model = QueueTaskModel{}
			return nil
		}

		model.State = string(job.QueueStateStarted)
		model.StartedAt.Time = now
		model.StartedAt.Valid = true
		return nil
	})
	if err != nil {
		return job.Task{}, false, fmt.Errorf("claim task: %w", err)
	}

	if model.ID == 0 {
		return job.Task{}, false, nil
	}

	t, err := s.mapper.ToDomain(model)
	if err != nil {
		return job.Task{}, false, err
	}
	return t, true, nil
}

// MarkFinished records successful completion of a task.
func (s TaskStore) MarkFinished(ctx context.Context, id int64) error {
	return s.markTerminal(ctx, id, job.QueueStateFinished, "")
}

// MarkFailed records failure of a task.
func (s TaskStore) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.markTerminal(ctx, id, job.QueueStateFailed, message)
}

func (s TaskStore) markTerminal(ctx context.Context, id int64, state job.QueueState, message string) error {
	updates := map[string]any{
		"state":       string(state),
		"finished_at": time.Now().UTC(),
	}
	if message != "" {
		updates["error_message"] = message
	}

	result := s.db.Session(ctx).Model(&QueueTaskModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("mark task %s: %w", state, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: task id %d", database.ErrNotFound, id)
	}
	return nil
}
