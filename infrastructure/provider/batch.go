package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/embedding"
	"golang.org/x/sync/errgroup"
)

// Batcher defaults.
const (
	DefaultBatchSize     = 128
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 2 * time.Second
	DefaultBackoffFactor = 2.0
	DefaultMaxDelay      = 10 * time.Second
)

// Batcher wraps an embedding.Generator with sub-batching, per-sub-batch
// retry with exponential backoff, and optional bounded parallelism. Output
// order always matches input order regardless of how sub-batches complete.
type Batcher struct {
	inner         embedding.Generator
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxDelay      time.Duration
	parallelism   int
	retryable     func(error) bool
}

var _ embedding.Generator = (*Batcher)(nil)

// BatcherOption is a functional option for Batcher.
type BatcherOption func(*Batcher)

// WithBatchSize sets the number of texts per sub-batch.
func WithBatchSize(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithMaxRetries sets the retry attempts per sub-batch.
func WithMaxRetries(n int) BatcherOption {
	return func(b *Batcher) {
		if n >= 0 {
			b.maxRetries = n
		}
	}
}

// WithInitialDelay sets the first retry delay.
func WithInitialDelay(d time.Duration) BatcherOption {
	return func(b *Batcher) {
		if d > 0 {
			b.initialDelay = d
		}
	}
}

// WithBackoffFactor sets the delay multiplier between retries.
func WithBackoffFactor(f float64) BatcherOption {
	return func(b *Batcher) {
		if f >= 1 {
			b.backoffFactor = f
		}
	}
}

// WithMaxDelay caps a single retry delay.
func WithMaxDelay(d time.Duration) BatcherOption {
	return func(b *Batcher) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithParallelism allows up to n sub-batches in flight at once. The default
// of 1 keeps sub-batches strictly sequential.
func WithParallelism(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.parallelism = n
		}
	}
}

// WithRetryablePredicate overrides how the Batcher classifies transient
// errors.
func WithRetryablePredicate(fn func(error) bool) BatcherOption {
	return func(b *Batcher) {
		if fn != nil {
			b.retryable = fn
		}
	}
}

// NewBatcher wraps a generator with batching and retry policy.
func NewBatcher(inner embedding.Generator, opts ...BatcherOption) *Batcher {
	b := &Batcher{
		inner:         inner,
		batchSize:     DefaultBatchSize,
		maxRetries:    DefaultMaxRetries,
		initialDelay:  DefaultInitialDelay,
		backoffFactor: DefaultBackoffFactor,
		maxDelay:      DefaultMaxDelay,
		parallelism:   1,
		retryable:     IsRetryable,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Generate embeds all texts, one sub-batch at a time. A sub-batch that
// exhausts its retries fails the whole call with a GenerationError carrying
// the offset of the sub-batch's first text.
func (b *Batcher) Generate(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vectors := make([][]float64, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)

	for offset := 0; offset < len(texts); offset += b.batchSize {
		start := offset
		end := min(start+b.batchSize, len(texts))

		g.Go(func() error {
			batch, err := b.generateWithRetry(gctx, texts[start:end])
			if err != nil {
				return &embedding.GenerationError{Offset: start, Err: err}
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (b *Batcher) generateWithRetry(ctx context.Context, texts []string) ([][]float64, error) {
	delay := b.initialDelay
	var lastErr error

	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := b.inner.Generate(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(vectors), len(texts))
			}
			return vectors, nil
		}
		lastErr = err

		if !b.retryable(err) {
			return nil, err
		}

		if attempt < b.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * b.backoffFactor)
				if delay > b.maxDelay {
					delay = b.maxDelay
				}
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
