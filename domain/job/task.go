package job

import (
	"time"
)

// Task is one durable unit of queued work. Tasks keep their terminal state
// instead of being deleted, so the queue can answer status queries for jobs
// whose progress record has expired.
type Task struct {
	id         int64
	jobID      ID
	operation  Operation
	payload    map[string]any
	state      QueueState
	timeout    time.Duration
	enqueuedAt time.Time
	startedAt  *time.Time
	finishedAt *time.Time
	errMessage string
}

// NewTask creates a queued Task pending persistence.
func NewTask(jobID ID, op Operation, payload map[string]any, timeout time.Duration) Task {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Task{
		jobID:     jobID,
		operation: op,
		payload:   copyPayload(payload),
		state:     QueueStateQueued,
		timeout:   timeout,
	}
}

// ReconstructTask creates a Task with all fields (store layer).
func ReconstructTask(
	id int64,
	jobID ID,
	op Operation,
	payload map[string]any,
	state QueueState,
	timeout time.Duration,
	enqueuedAt time.Time,
	startedAt, finishedAt *time.Time,
	errMessage string,
) Task {
	return Task{
		id:         id,
		jobID:      jobID,
		operation:  op,
		payload:    copyPayload(payload),
		state:      state,
		timeout:    timeout,
		enqueuedAt: enqueuedAt,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		errMessage: errMessage,
	}
}

// ID returns the task id.
func (t Task) ID() int64 { return t.id }

// JobID returns the correlation key linking the task to its job.
func (t Task) JobID() ID { return t.jobID }

// Operation returns the work type.
func (t Task) Operation() Operation { return t.operation }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any { return copyPayload(t.payload) }

// State returns the stored queue state. Callers that need the effective
// state, with timeouts applied, should use EffectiveState.
func (t Task) State() QueueState { return t.state }

// Timeout returns the hard wall-clock limit for executing the task.
func (t Task) Timeout() time.Duration { return t.timeout }

// EnqueuedAt returns when the task was enqueued.
func (t Task) EnqueuedAt() time.Time { return t.enqueuedAt }

// StartedAt returns when a worker claimed the task, if it has been.
func (t Task) StartedAt() *time.Time { return t.startedAt }

// FinishedAt returns when the task reached a terminal state, if it has.
func (t Task) FinishedAt() *time.Time { return t.finishedAt }

// ErrorMessage returns the failure message for failed tasks.
func (t Task) ErrorMessage() string { return t.errMessage }

// Deadline returns the wall-clock moment a started task times out, and
// whether the task has started at all.
func (t Task) Deadline() (time.Time, bool) {
	if t.startedAt == nil {
		return time.Time{}, false
	}
	return t.startedAt.Add(t.timeout), true
}

// EffectiveState resolves the state as of now: a started task whose deadline
// has passed counts as failed even though no worker recorded the failure.
// This is what makes queue-level timeouts visible to status queries.
func (t Task) EffectiveState(now time.Time) QueueState {
	if t.state == QueueStateStarted {
		if deadline, ok := t.Deadline(); ok && now.After(deadline) {
			return QueueStateFailed
		}
	}
	return t.state
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
