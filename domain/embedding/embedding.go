// Package embedding provides domain types for per-row embedding vectors and
// the generation strategy contract.
package embedding

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an Embedding. Transitions are monotonic:
// pending → processing → complete | failed, never reverting.
type Status string

// Status values.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusComplete:   2,
	StatusFailed:     2,
}

// CanTransition reports whether moving from s to next is a forward transition.
func (s Status) CanTransition(next Status) bool {
	return statusRank[next] > statusRank[s]
}

// Embedding is one numeric vector derived from exactly one row's selected
// column for one generation request.
type Embedding struct {
	id        int64
	fileID    int64
	rowID     int64
	modelName string
	status    Status
	vector    []float64
	createdAt time.Time
}

// NewEmbedding creates a complete Embedding for a row. The vector dimension
// is derived from the vector itself, keeping the length invariant by
// construction.
func NewEmbedding(fileID, rowID int64, modelName string, vector []float64) Embedding {
	return Embedding{
		fileID:    fileID,
		rowID:     rowID,
		modelName: modelName,
		status:    StatusComplete,
		vector:    append([]float64(nil), vector...),
	}
}

// ReconstructEmbedding creates an Embedding with all fields (store layer).
func ReconstructEmbedding(
	id, fileID, rowID int64,
	modelName string,
	status Status,
	vector []float64,
	createdAt time.Time,
) Embedding {
	return Embedding{
		id:        id,
		fileID:    fileID,
		rowID:     rowID,
		modelName: modelName,
		status:    status,
		vector:    append([]float64(nil), vector...),
		createdAt: createdAt,
	}
}

// ID returns the embedding id.
func (e Embedding) ID() int64 { return e.id }

// FileID returns the owning file id.
func (e Embedding) FileID() int64 { return e.fileID }

// RowID returns the source row id.
func (e Embedding) RowID() int64 { return e.rowID }

// ModelName returns the model that produced the vector.
func (e Embedding) ModelName() string { return e.modelName }

// Status returns the lifecycle status.
func (e Embedding) Status() Status { return e.status }

// Dimension returns the vector width.
func (e Embedding) Dimension() int { return len(e.vector) }

// Vector returns a copy of the vector.
func (e Embedding) Vector() []float64 { return append([]float64(nil), e.vector...) }

// CreatedAt returns when the embedding was persisted.
func (e Embedding) CreatedAt() time.Time { return e.createdAt }

// Validate checks the internal invariants of the embedding.
func (e Embedding) Validate() error {
	if e.fileID == 0 || e.rowID == 0 {
		return fmt.Errorf("embedding must reference a file and a row")
	}
	if e.modelName == "" {
		return fmt.Errorf("embedding must record a model name")
	}
	if e.status == StatusComplete && len(e.vector) == 0 {
		return fmt.Errorf("complete embedding must carry a non-empty vector")
	}
	return nil
}
