package job

import (
	"testing"
	"time"
)

func TestProgressStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   ProgressStatus
		terminal bool
	}{
		{StatusQueued, false},
		{StatusProcessing, false},
		{StatusComplete, true},
		{StatusFailed, true},
		{StatusUnknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestNewProgressRecord(t *testing.T) {
	id := NewID()
	r := NewProgressRecord(id, 7, "test-model")

	if r.Status != StatusQueued {
		t.Errorf("Status = %v, want %v", r.Status, StatusQueued)
	}
	if r.Progress != 0 {
		t.Errorf("Progress = %d, want 0", r.Progress)
	}
	if r.JobID != id || r.FileID != 7 || r.ModelName != "test-model" {
		t.Error("record must carry the submission identity")
	}
	if r.UpdatedAt.IsZero() {
		t.Error("UpdatedAt must be set")
	}
}

func TestProgressRecord_Advance_Monotonic(t *testing.T) {
	r := NewProgressRecord(NewID(), 1, "m")

	r = r.Advance("embedding", 40)
	if r.Progress != 40 {
		t.Fatalf("Progress = %d, want 40", r.Progress)
	}
	if r.Status != StatusProcessing {
		t.Errorf("Status = %v, want %v", r.Status, StatusProcessing)
	}

	r = r.Advance("late update", 20)
	if r.Progress != 40 {
		t.Errorf("Progress = %d after lower advance, want 40", r.Progress)
	}
	if r.CurrentStep != "late update" {
		t.Errorf("CurrentStep = %q, want %q", r.CurrentStep, "late update")
	}
}

func TestProgressRecord_Complete(t *testing.T) {
	r := NewProgressRecord(NewID(), 1, "m").Advance("embedding", 50)
	r.Error = &ProgressError{Message: "stale"}

	done := r.Complete()
	if done.Status != StatusComplete || done.Progress != 100 {
		t.Errorf("Complete() = %v/%d, want complete/100", done.Status, done.Progress)
	}
	if done.Error != nil {
		t.Error("Complete() must clear any error")
	}
}

func TestProgressRecord_Fail(t *testing.T) {
	r := NewProgressRecord(NewID(), 1, "m").Fail("embedding generation failed", "trace details")

	if r.Status != StatusFailed || r.Progress != 100 {
		t.Errorf("Fail() = %v/%d, want failed/100", r.Status, r.Progress)
	}
	if r.Error == nil || r.Error.Message != "embedding generation failed" {
		t.Errorf("Error = %v, want display message", r.Error)
	}
	if r.Error.Trace != "trace details" {
		t.Errorf("Trace = %q, want %q", r.Error.Trace, "trace details")
	}
}

func TestProgressRecord_View(t *testing.T) {
	r := NewProgressRecord(NewID(), 9, "m").Advance("clustering", 70)
	v := r.View()

	if v.JobID != r.JobID || v.FileID != 9 || v.Progress != 70 {
		t.Errorf("View() = %+v, does not mirror the record", v)
	}
	if v.Status != StatusProcessing || v.CurrentStep != "clustering" {
		t.Errorf("View() status/step = %v/%q", v.Status, v.CurrentStep)
	}
}

func TestTask_EffectiveState(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-3 * time.Hour)

	tests := []struct {
		name string
		task Task
		want QueueState
	}{
		{
			"queued stays queued",
			ReconstructTask(1, NewID(), OperationGenerate, nil, QueueStateQueued, time.Hour, now, nil, nil, ""),
			QueueStateQueued,
		},
		{
			"started within deadline",
			ReconstructTask(1, NewID(), OperationGenerate, nil, QueueStateStarted, 4*time.Hour, now, &started, nil, ""),
			QueueStateStarted,
		},
		{
			"started past deadline counts as failed",
			ReconstructTask(1, NewID(), OperationGenerate, nil, QueueStateStarted, time.Hour, now, &started, nil, ""),
			QueueStateFailed,
		},
		{
			"finished is unaffected by deadline",
			ReconstructTask(1, NewID(), OperationGenerate, nil, QueueStateFinished, time.Hour, now, &started, &now, ""),
			QueueStateFinished,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.EffectiveState(now); got != tt.want {
				t.Errorf("EffectiveState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTask_DefaultTimeout(t *testing.T) {
	task := NewTask(NewID(), OperationGenerate, nil, 0)
	if task.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", task.Timeout(), DefaultTimeout)
	}
	if task.State() != QueueStateQueued {
		t.Errorf("State() = %v, want %v", task.State(), QueueStateQueued)
	}
}
