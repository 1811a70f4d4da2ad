package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/domain/embedding"
)

// recordingGenerator returns one vector per text encoding its global index,
// and records the batch sizes it saw.
type recordingGenerator struct {
	mu      sync.Mutex
	batches [][]string
	failAt  map[string]int // text -> remaining failures
	err     error
}

func (g *recordingGenerator) Generate(_ context.Context, texts []string) ([][]float64, error) {
	g.mu.Lock()
	g.batches = append(g.batches, append([]string(nil), texts...))
	for _, text := range texts {
		if remaining, ok := g.failAt[text]; ok && remaining > 0 {
			g.failAt[text] = remaining - 1
			g.mu.Unlock()
			if g.err != nil {
				return nil, g.err
			}
			return nil, fmt.Errorf("%w: simulated", errEmbeddingCountMismatch)
		}
	}
	g.mu.Unlock()

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		var v float64
		_, _ = fmt.Sscanf(text, "t%f", &v)
		vectors[i] = []float64{v}
	}
	return vectors, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

func TestBatcherSplitsAndPreservesOrder(t *testing.T) {
	inner := &recordingGenerator{}
	batcher := NewBatcher(inner, WithBatchSize(4))

	vectors, err := batcher.Generate(context.Background(), texts(10))
	require.NoError(t, err)
	require.Len(t, vectors, 10)
	for i, v := range vectors {
		assert.Equal(t, []float64{float64(i)}, v, "vector %d out of order", i)
	}

	require.Len(t, inner.batches, 3)
	assert.Len(t, inner.batches[0], 4)
	assert.Len(t, inner.batches[1], 4)
	assert.Len(t, inner.batches[2], 2)
}

func TestBatcherRetriesTransientFailures(t *testing.T) {
	inner := &recordingGenerator{failAt: map[string]int{"t0": 2}}
	batcher := NewBatcher(inner,
		WithBatchSize(8),
		WithMaxRetries(3),
		WithInitialDelay(time.Millisecond),
	)

	vectors, err := batcher.Generate(context.Background(), texts(3))
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.GreaterOrEqual(t, len(inner.batches), 3, "two failures then success")
}

func TestBatcherExhaustionReportsOffset(t *testing.T) {
	// Second sub-batch (offset 4) fails forever.
	inner := &recordingGenerator{failAt: map[string]int{"t4": 99}}
	batcher := NewBatcher(inner,
		WithBatchSize(4),
		WithMaxRetries(2),
		WithInitialDelay(time.Millisecond),
	)

	_, err := batcher.Generate(context.Background(), texts(8))
	require.Error(t, err)

	var genErr *embedding.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 4, genErr.Offset)
}

func TestBatcherPermanentErrorsFailFast(t *testing.T) {
	permanent := errors.New("invalid api key")
	inner := &recordingGenerator{failAt: map[string]int{"t0": 99}, err: permanent}
	batcher := NewBatcher(inner,
		WithBatchSize(4),
		WithMaxRetries(3),
		WithInitialDelay(time.Millisecond),
	)

	_, err := batcher.Generate(context.Background(), texts(2))
	require.Error(t, err)
	require.ErrorIs(t, err, permanent)
	assert.Len(t, inner.batches, 1, "permanent errors must not be retried")
}

func TestBatcherParallelismPreservesOrder(t *testing.T) {
	inner := &recordingGenerator{}
	batcher := NewBatcher(inner, WithBatchSize(2), WithParallelism(4))

	vectors, err := batcher.Generate(context.Background(), texts(20))
	require.NoError(t, err)
	require.Len(t, vectors, 20)
	for i, v := range vectors {
		assert.Equal(t, []float64{float64(i)}, v)
	}
}

func TestBatcherEmptyInput(t *testing.T) {
	inner := &recordingGenerator{}
	batcher := NewBatcher(inner)

	vectors, err := batcher.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, inner.batches)
}

func TestBatcherInnerCountMismatchFails(t *testing.T) {
	bad := embedding.GeneratorFunc(func(_ context.Context, texts []string) ([][]float64, error) {
		return [][]float64{{1}}, nil // always one vector
	})
	batcher := NewBatcher(bad,
		WithBatchSize(4),
		WithMaxRetries(1),
		WithInitialDelay(time.Millisecond),
	)

	_, err := batcher.Generate(context.Background(), texts(3))
	require.Error(t, err)
	require.ErrorIs(t, err, errEmbeddingCountMismatch)
}
