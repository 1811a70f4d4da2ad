package embedding

import (
	"context"
	"fmt"
)

// Generator turns a batch of texts into fixed-width vectors, one per input,
// in input order. Implementations may call a remote API or run a local model;
// both conform to this signature so callers stay strategy-agnostic.
type Generator interface {
	Generate(ctx context.Context, texts []string) ([][]float64, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, texts []string) ([][]float64, error)

// Generate calls the wrapped function.
func (f GeneratorFunc) Generate(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}

// GenerationError indicates a sub-batch exhausted its retries. Offset is the
// index of the first text of the failing sub-batch within the original input.
type GenerationError struct {
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("embedding generation failed at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error { return e.Err }
