package service

import (
	"errors"
	"fmt"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("vectorscope: client is closed")

// ValidationError reports a request the caller can fix: a missing column, a
// bad parameter, an unsupported value. It maps to a 4xx response.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports that a referenced resource does not exist or is not
// visible to the caller. It maps to a 404 response.
type NotFoundError struct {
	Resource string
	Key      string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// DispatchError reports that a job was accepted and recorded but could not
// be handed to the queue. The compensating cleanup already ran when this is
// returned; it maps to a 500 response.
type DispatchError struct {
	JobID string
	Err   error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch job %s: %v", e.JobID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error { return e.Err }
