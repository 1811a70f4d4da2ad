package job

import (
	"context"
	"errors"
)

// ErrProgressNotFound indicates no progress record exists for a job id.
// Callers must treat this as "unknown, consult the ledger and queue", not as
// proof the job never existed: records expire independently of the ledger.
var ErrProgressNotFound = errors.New("progress record not found")

// LedgerStore persists job ledger entries.
type LedgerStore interface {
	Get(ctx context.Context, jobID ID) (LedgerEntry, error)
	FindByProject(ctx context.Context, projectID int64) ([]LedgerEntry, error)
	Save(ctx context.Context, e LedgerEntry) error
	// Delete removes an entry; used as the compensating action when queue
	// dispatch fails after the ledger write.
	Delete(ctx context.Context, jobID ID) error
}

// TaskStore persists queue tasks. Claim must move a task from queued to
// started atomically so concurrent workers never execute the same task.
type TaskStore interface {
	Save(ctx context.Context, t Task) (Task, error)
	GetByJobID(ctx context.Context, jobID ID) (Task, error)
	// Claim atomically selects the oldest queued task and marks it started.
	// The boolean is false when no task is available.
	Claim(ctx context.Context) (Task, bool, error)
	MarkFinished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

// ProgressStore is the ephemeral progress cache. Writes carry a TTL; reads
// after expiry return ErrProgressNotFound. Update must apply read-modify-write
// atomically per job id so stage-ordered updates are never overwritten by an
// older one.
type ProgressStore interface {
	Set(ctx context.Context, record ProgressRecord) error
	Get(ctx context.Context, jobID ID) (ProgressRecord, error)
	Update(ctx context.Context, jobID ID, mutate func(ProgressRecord) ProgressRecord) error
	Delete(ctx context.Context, jobID ID) error
}
