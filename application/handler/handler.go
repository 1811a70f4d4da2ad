// Package handler provides task handlers for processing queued operations.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vectorscope/vectorscope/domain/job"
)

// ErrNoHandler indicates no handler is registered for the operation.
var ErrNoHandler = errors.New("no handler registered")

// Handler defines the interface for task operation handlers.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry maps task operations to their handlers.
type Registry struct {
	handlers map[job.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[job.Operation]Handler),
	}
}

// Register adds a handler for an operation. Subsequent registrations for the
// same operation overwrite the previous handler.
func (r *Registry) Register(operation job.Operation, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = h
}

// Handler returns the handler for an operation.
// Returns ErrNoHandler if no handler is registered.
func (r *Registry) Handler(operation job.Operation) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, operation)
	}
	return h, nil
}

// HasHandler checks if a handler is registered for the operation.
func (r *Registry) HasHandler(operation job.Operation) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[operation]
	return ok
}

// Operations returns all registered operations.
func (r *Registry) Operations() []job.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]job.Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	return ops
}

// ExtractInt64 extracts an int64 value from the payload. JSON round-trips
// turn numbers into float64, so that shape is accepted too.
func ExtractInt64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", key)
	}

	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

// ExtractString extracts a string value from the payload.
func ExtractString(payload map[string]any, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", key)
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for %s: expected string, got %T", key, val)
	}

	return s, nil
}

// GeneratePayload holds the fields of a generation task payload.
type GeneratePayload struct {
	jobID     job.ID
	fileID    int64
	column    string
	modelName string
}

// JobID returns the correlation key of the run.
func (p GeneratePayload) JobID() job.ID { return p.jobID }

// FileID returns the target file id.
func (p GeneratePayload) FileID() int64 { return p.fileID }

// Column returns the column to embed.
func (p GeneratePayload) Column() string { return p.column }

// ModelName returns the requested embedding model.
func (p GeneratePayload) ModelName() string { return p.modelName }

// NewGeneratePayload builds the payload map the submission side enqueues.
func NewGeneratePayload(jobID job.ID, fileID int64, column, modelName string) map[string]any {
	return map[string]any{
		"job_id":     jobID.String(),
		"file_id":    fileID,
		"column":     column,
		"model_name": modelName,
	}
}

// ExtractGeneratePayload extracts the generation fields from a task payload.
func ExtractGeneratePayload(payload map[string]any) (GeneratePayload, error) {
	jobID, err := ExtractString(payload, "job_id")
	if err != nil {
		return GeneratePayload{}, err
	}
	fileID, err := ExtractInt64(payload, "file_id")
	if err != nil {
		return GeneratePayload{}, err
	}
	column, err := ExtractString(payload, "column")
	if err != nil {
		return GeneratePayload{}, err
	}
	modelName, err := ExtractString(payload, "model_name")
	if err != nil {
		return GeneratePayload{}, err
	}
	return GeneratePayload{
		jobID:     job.ID(jobID),
		fileID:    fileID,
		column:    column,
		modelName: modelName,
	}, nil
}
