package job

import (
	"time"
)

// ProgressStatus is the caller-visible status of a job.
type ProgressStatus string

// ProgressStatus values.
const (
	StatusQueued     ProgressStatus = "queued"
	StatusProcessing ProgressStatus = "processing"
	StatusComplete   ProgressStatus = "complete"
	StatusFailed     ProgressStatus = "failed"
	// StatusUnknown marks jobs whose progress record expired and whose queue
	// state could not be resolved. It is degraded, never an error: listing a
	// project's jobs must not fail because one entry is unresolvable.
	StatusUnknown ProgressStatus = "unknown"
)

// IsTerminal reports whether the status is final.
func (s ProgressStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ProgressError is the structured error carried by a failed progress record:
// a display message plus an opaque trace blob for diagnostics. Raw stacks
// never appear in the display field.
type ProgressError struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// ProgressRecord is the ephemeral, TTL-bound status document for one job.
// It is advisory: it accelerates polling but is never authoritative for
// whether work happened. Absence means "unknown, consult ledger + queue",
// not "job never existed".
type ProgressRecord struct {
	JobID       ID             `json:"job_id"`
	FileID      int64          `json:"file_id"`
	ModelName   string         `json:"model_name"`
	Status      ProgressStatus `json:"status"`
	Progress    int            `json:"progress"`
	CurrentStep string         `json:"current_step"`
	Error       *ProgressError `json:"error,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewProgressRecord creates the initial "queued" record written before the
// job is dispatched, so a poll immediately after submission never misses.
func NewProgressRecord(jobID ID, fileID int64, modelName string) ProgressRecord {
	return ProgressRecord{
		JobID:       jobID,
		FileID:      fileID,
		ModelName:   modelName,
		Status:      StatusQueued,
		Progress:    0,
		CurrentStep: "queued",
		UpdatedAt:   time.Now().UTC(),
	}
}

// Advance returns a copy at the given step. Progress is monotonic: an update
// below the current percentage keeps the current one.
func (r ProgressRecord) Advance(step string, progress int) ProgressRecord {
	if progress > r.Progress {
		r.Progress = progress
	}
	r.Status = StatusProcessing
	r.CurrentStep = step
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Complete returns a terminal successful copy at 100%.
func (r ProgressRecord) Complete() ProgressRecord {
	r.Status = StatusComplete
	r.Progress = 100
	r.CurrentStep = "finished"
	r.Error = nil
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Fail returns a terminal failed copy at 100% carrying the structured error.
func (r ProgressRecord) Fail(message, trace string) ProgressRecord {
	r.Status = StatusFailed
	r.Progress = 100
	r.Error = &ProgressError{Message: message, Trace: trace}
	r.UpdatedAt = time.Now().UTC()
	return r
}

// View converts the record into the caller-facing shape.
func (r ProgressRecord) View() ProgressView {
	return ProgressView{
		JobID:       r.JobID,
		FileID:      r.FileID,
		ModelName:   r.ModelName,
		Status:      r.Status,
		Progress:    r.Progress,
		CurrentStep: r.CurrentStep,
		Error:       r.Error,
	}
}

// ProgressView is what progress queries return to callers.
type ProgressView struct {
	JobID       ID             `json:"job_id"`
	FileID      int64          `json:"file_id"`
	ModelName   string         `json:"model_name"`
	Status      ProgressStatus `json:"status"`
	Progress    int            `json:"progress"`
	CurrentStep string         `json:"current_step"`
	Error       *ProgressError `json:"error,omitempty"`
}
