// Package provider implements the embedding generation strategies: a remote
// OpenAI-compatible endpoint and a local hugot ONNX model, plus the Batcher
// that sub-batches, retries, and preserves input order across either.
package provider

import (
	"errors"
	"fmt"
)

// errEmbeddingCountMismatch indicates the API returned a different number of
// vectors than texts requested. Retryable: transient upstream issues can
// produce partial responses behind a 200 status.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// ProviderError wraps a provider failure with operation context.
type ProviderError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Err }
