package job

import (
	"context"
	"time"
)

// Operation names a unit of queued work.
type Operation string

// Operation values.
const (
	// OperationGenerate runs the full embed→cluster→project→persist pipeline
	// for one (file, column, model) request.
	OperationGenerate Operation = "generate_embeddings"
	// OperationIngestColumns extracts column metadata for an uploaded file.
	OperationIngestColumns Operation = "ingest_columns"
)

// String returns the operation name.
func (o Operation) String() string { return string(o) }

// QueueState is the queue backend's own view of a job, independent of the
// progress cache. At-least-once delivery: a job may be observed "started"
// more than once across redeliveries.
type QueueState string

// QueueState values.
const (
	QueueStateQueued   QueueState = "queued"
	QueueStateStarted  QueueState = "started"
	QueueStateFinished QueueState = "finished"
	QueueStateFailed   QueueState = "failed"
	QueueStateUnknown  QueueState = "unknown"
)

// DefaultTimeout is the hard wall-clock limit the queue enforces per job.
const DefaultTimeout = 2 * time.Hour

// Queue is the dispatch contract the submission service depends on.
// Enqueue registers work under the job id as correlation key; State reports
// the backend's view of that job, including timeout-induced failures the
// orchestrator never had a chance to record itself.
type Queue interface {
	Enqueue(ctx context.Context, op Operation, payload map[string]any, jobID ID, timeout time.Duration) error
	State(ctx context.Context, jobID ID) (QueueState, error)
}
