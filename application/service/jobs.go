package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/config"
	"github.com/vectorscope/vectorscope/internal/database"
)

// Jobs is the submission and status service for embedding jobs. Submission
// writes the progress record and ledger entry before dispatch so a poll
// immediately after returns "queued" instead of a miss; status reads
// reconcile the progress cache, the ledger, and the queue.
type Jobs struct {
	files    dataset.FileStore
	ledger   job.LedgerStore
	progress job.ProgressStore
	queue    job.Queue
	models   config.ModelRegistry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewJobs creates the jobs service.
func NewJobs(
	files dataset.FileStore,
	ledger job.LedgerStore,
	progress job.ProgressStore,
	queue job.Queue,
	timeout time.Duration,
	logger *slog.Logger,
) *Jobs {
	if timeout <= 0 {
		timeout = job.DefaultTimeout
	}
	return &Jobs{
		files:    files,
		ledger:   ledger,
		progress: progress,
		queue:    queue,
		timeout:  timeout,
		logger:   logger,
	}
}

// WithModelRegistry restricts submissions to registered model names. An
// empty registry accepts any non-empty model name.
func (s *Jobs) WithModelRegistry(models config.ModelRegistry) *Jobs {
	s.models = models
	return s
}

// SubmitRequest carries one embedding job submission.
type SubmitRequest struct {
	UserID    int64
	FileID    int64
	Column    string
	ModelName string
}

// Submit validates the request, records the job, and dispatches it. The
// returned view is the initial "queued" state.
func (s *Jobs) Submit(ctx context.Context, req SubmitRequest) (job.ProgressView, error) {
	if req.Column == "" {
		return job.ProgressView{}, NewValidationError("column", "must not be empty")
	}
	if req.ModelName == "" {
		def, ok := s.models.Default()
		if !ok {
			return job.ProgressView{}, NewValidationError("model_name", "must not be empty")
		}
		req.ModelName = def.Name
	}
	if !s.models.IsEmpty() {
		if _, ok := s.models.Lookup(req.ModelName); !ok {
			return job.ProgressView{}, NewValidationError("model_name", "not a registered model")
		}
	}

	file, err := s.files.GetOwned(ctx, req.FileID, req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return job.ProgressView{}, NewNotFoundError("file", itoa(req.FileID))
		}
		return job.ProgressView{}, err
	}

	// Column existence is checked optimistically: metadata may still be
	// ingesting, in which case the pipeline re-validates against the rows.
	if columns := file.Columns(); columns.IsPresent() && !columns.HasColumn(req.Column) {
		return job.ProgressView{}, NewValidationError("column", "not present in file")
	}

	jobID := job.NewID()
	record := job.NewProgressRecord(jobID, file.ID(), req.ModelName)

	// Progress before ledger before queue: the moment the job id escapes to
	// the caller, a poll must resolve.
	if err := s.progress.Set(ctx, record); err != nil {
		return job.ProgressView{}, err
	}

	entry := job.NewLedgerEntry(jobID, file.ProjectID(), file.ID(), req.Column, req.ModelName)
	if err := s.ledger.Save(ctx, entry); err != nil {
		_ = s.progress.Delete(ctx, jobID)
		return job.ProgressView{}, err
	}

	payload := handler.NewGeneratePayload(jobID, file.ID(), req.Column, req.ModelName)
	if err := s.queue.Enqueue(ctx, job.OperationGenerate, payload, jobID, s.timeout); err != nil {
		// The job never made it into the queue: the ledger must not claim it
		// exists, and the progress record turns failed so a poll on the
		// returned id explains what happened.
		if delErr := s.ledger.Delete(ctx, jobID); delErr != nil {
			s.logger.Error("compensating ledger delete failed",
				slog.String("job_id", jobID.String()),
				slog.String("error", delErr.Error()),
			)
		}
		failed := record.Fail("job dispatch failed", err.Error())
		if setErr := s.progress.Set(ctx, failed); setErr != nil {
			s.logger.Error("recording dispatch failure failed",
				slog.String("job_id", jobID.String()),
				slog.String("error", setErr.Error()),
			)
		}
		return job.ProgressView{}, &DispatchError{JobID: jobID.String(), Err: err}
	}

	s.logger.Info("job submitted",
		slog.String("job_id", jobID.String()),
		slog.Int64("file_id", file.ID()),
		slog.String("column", req.Column),
		slog.String("model", req.ModelName),
	)
	return record.View(), nil
}

// Progress resolves the status of one job. The progress cache is consulted
// first; on a miss the ledger proves the job existed and the queue state is
// folded into a synthetic view. Only a job absent from the ledger is a
// NotFoundError.
func (s *Jobs) Progress(ctx context.Context, jobID job.ID) (job.ProgressView, error) {
	record, err := s.progress.Get(ctx, jobID)
	if err == nil {
		return record.View(), nil
	}
	if !errors.Is(err, job.ErrProgressNotFound) {
		return job.ProgressView{}, err
	}

	entry, err := s.ledger.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return job.ProgressView{}, NewNotFoundError("job", jobID.String())
		}
		return job.ProgressView{}, err
	}

	return s.synthesize(ctx, entry), nil
}

// ListProgress resolves every job submitted for a project. Individual
// unresolvable entries degrade to StatusUnknown; the listing itself never
// fails because of one entry.
func (s *Jobs) ListProgress(ctx context.Context, projectID int64) ([]job.ProgressView, error) {
	entries, err := s.ledger.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	views := make([]job.ProgressView, 0, len(entries))
	for _, entry := range entries {
		record, err := s.progress.Get(ctx, entry.JobID())
		if err == nil {
			views = append(views, record.View())
			continue
		}
		views = append(views, s.synthesize(ctx, entry))
	}
	return views, nil
}

// synthesize reconstructs a coarse view from ledger plus queue state for a
// job whose progress record expired.
func (s *Jobs) synthesize(ctx context.Context, entry job.LedgerEntry) job.ProgressView {
	view := job.ProgressView{
		JobID:     entry.JobID(),
		FileID:    entry.FileID(),
		ModelName: entry.ModelName(),
	}

	state, err := s.queue.State(ctx, entry.JobID())
	if err != nil {
		s.logger.Warn("queue state lookup failed",
			slog.String("job_id", entry.JobID().String()),
			slog.String("error", err.Error()),
		)
		state = job.QueueStateUnknown
	}

	switch state {
	case job.QueueStateQueued:
		view.Status = job.StatusQueued
		view.CurrentStep = "queued"
	case job.QueueStateStarted:
		view.Status = job.StatusProcessing
		view.CurrentStep = "processing"
	case job.QueueStateFinished:
		view.Status = job.StatusComplete
		view.Progress = 100
		view.CurrentStep = "finished"
	case job.QueueStateFailed:
		view.Status = job.StatusFailed
		view.Progress = 100
		view.Error = &job.ProgressError{Message: "job failed; details expired"}
	default:
		view.Status = job.StatusUnknown
		view.CurrentStep = "unknown"
	}
	return view
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
