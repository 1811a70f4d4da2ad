// Package job provides domain types for asynchronous embedding jobs: the
// durable ledger, the ephemeral progress record, and the queue backend
// contract they reconcile against.
package job

import (
	"time"

	"github.com/google/uuid"
)

// ID is a caller-visible job identifier. IDs are random 128-bit UUIDs, so
// collision probability is negligible.
type ID string

// NewID allocates a fresh job identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return id == "" }

// LedgerEntry durably links a job id to the project and file it was submitted
// for. It is created once at submission and read-only afterward: when the
// progress cache has expired, the ledger still proves the job existed.
type LedgerEntry struct {
	jobID     ID
	projectID int64
	fileID    int64
	column    string
	modelName string
	createdAt time.Time
}

// NewLedgerEntry creates a LedgerEntry pending persistence.
func NewLedgerEntry(jobID ID, projectID, fileID int64, column, modelName string) LedgerEntry {
	return LedgerEntry{
		jobID:     jobID,
		projectID: projectID,
		fileID:    fileID,
		column:    column,
		modelName: modelName,
	}
}

// ReconstructLedgerEntry creates a LedgerEntry with all fields (store layer).
func ReconstructLedgerEntry(jobID ID, projectID, fileID int64, column, modelName string, createdAt time.Time) LedgerEntry {
	return LedgerEntry{
		jobID:     jobID,
		projectID: projectID,
		fileID:    fileID,
		column:    column,
		modelName: modelName,
		createdAt: createdAt,
	}
}

// JobID returns the job identifier.
func (e LedgerEntry) JobID() ID { return e.jobID }

// ProjectID returns the owning project id.
func (e LedgerEntry) ProjectID() int64 { return e.projectID }

// FileID returns the target file id.
func (e LedgerEntry) FileID() int64 { return e.fileID }

// Column returns the column the job embeds.
func (e LedgerEntry) Column() string { return e.column }

// ModelName returns the requested embedding model.
func (e LedgerEntry) ModelName() string { return e.modelName }

// CreatedAt returns when the job was submitted.
func (e LedgerEntry) CreatedAt() time.Time { return e.createdAt }
