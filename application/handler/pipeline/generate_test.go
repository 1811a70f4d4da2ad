package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/domain/visualization"
	"github.com/vectorscope/vectorscope/infrastructure/persistence"
	"github.com/vectorscope/vectorscope/infrastructure/progress"
	"github.com/vectorscope/vectorscope/infrastructure/reduce"
	"github.com/vectorscope/vectorscope/internal/testdb"
)

const testModel = "test-embedder"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingGenerator produces a distinct deterministic vector per text and
// counts calls, so tests can assert the short-circuit path.
type countingGenerator struct {
	calls int
	fail  error
}

func (g *countingGenerator) Generate(_ context.Context, texts []string) ([][]float64, error) {
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = []float64{float64(len(text)), float64(i), float64(len(text) * (i + 1)), 1}
	}
	return vectors, nil
}

type fixture struct {
	handler   *Generate
	generator *countingGenerator
	registry  *reduce.Registry
	files     persistence.FileStore
	rows      persistence.RowStore
	vectors   persistence.EmbeddingStore
	points    persistence.VisualizationStore
	progress  *progress.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	logger := discardLogger()

	progressStore, err := progress.OpenInMemory(time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = progressStore.Close() })

	f := &fixture{
		generator: &countingGenerator{},
		registry:  reduce.NewRegistry(),
		files:     persistence.NewFileStore(db),
		rows:      persistence.NewRowStore(db),
		vectors:   persistence.NewEmbeddingStore(db),
		points:    persistence.NewVisualizationStore(db),
		progress:  progressStore,
	}
	f.handler = NewGenerate(
		f.files, f.rows, f.vectors, f.points,
		f.generator, f.registry, progressStore, 2, logger,
	)
	return f
}

// seed creates a file with n rows holding a "text" column, a progress
// record, and returns the ready-to-execute payload.
func (f *fixture) seed(t *testing.T, n int) (dataset.File, map[string]any, job.ID) {
	t.Helper()
	ctx := context.Background()

	file, err := f.files.Save(ctx, dataset.NewFile(1, 7, "data.csv", "/tmp/data.csv", dataset.FileTypeCSV, n))
	require.NoError(t, err)

	rows := make([]dataset.Row, n)
	for i := range rows {
		rows[i] = dataset.NewRow(file.ID(), i, []string{"text"}, map[string]dataset.Value{
			"text": dataset.StringValue(fmt.Sprintf("row number %d", i)),
		})
	}
	_, err = f.rows.SaveAll(ctx, rows)
	require.NoError(t, err)

	jobID := job.NewID()
	require.NoError(t, f.progress.Set(ctx, job.NewProgressRecord(jobID, file.ID(), testModel)))

	return file, handler.NewGeneratePayload(jobID, file.ID(), "text", testModel), jobID
}

func TestGenerateEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file, payload, jobID := f.seed(t, 5)

	require.NoError(t, f.handler.Execute(ctx, payload))

	// One embedding per row, in row order.
	embeddings, err := f.vectors.FindByFileAndModel(ctx, file.ID(), testModel)
	require.NoError(t, err)
	require.Len(t, embeddings, 5)
	for _, e := range embeddings {
		assert.Equal(t, embedding.StatusComplete, e.Status())
		assert.Equal(t, 4, e.Dimension())
	}

	// Every default projection produced a full point set.
	for _, projection := range visualization.DefaultProjections() {
		points, err := f.points.FindByFile(ctx, file.ID(), projection.Method, projection.Dimensions)
		require.NoError(t, err)
		assert.Len(t, points, 5, "%s-%dd", projection.Method, projection.Dimensions)
		for _, p := range points {
			assert.Len(t, p.Coordinate(), projection.Dimensions)
			assert.GreaterOrEqual(t, p.Cluster(), 0)
		}
	}

	record, err := f.progress.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusComplete, record.Status)
	assert.Equal(t, 100, record.Progress)
}

func TestGenerateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file, payload, _ := f.seed(t, 4)

	require.NoError(t, f.handler.Execute(ctx, payload))
	firstCalls := f.generator.calls
	require.Greater(t, firstCalls, 0)

	// Redelivery: the complete embedding set short-circuits generation and
	// point counts stay flat.
	require.NoError(t, f.handler.Execute(ctx, payload))
	assert.Equal(t, firstCalls, f.generator.calls)

	points, err := f.points.FindByFile(ctx, file.ID(), "", 0)
	require.NoError(t, err)
	assert.Len(t, points, 4*len(visualization.DefaultProjections()))
}

type stubRegistry struct {
	projector visualization.Projector
	projErr   map[visualization.Method]error
	clusterer visualization.Clusterer
}

func (s stubRegistry) Projector(method visualization.Method) (visualization.Projector, error) {
	if err, ok := s.projErr[method]; ok {
		return nil, err
	}
	return s.projector, nil
}

func (s stubRegistry) Clusterer() visualization.Clusterer { return s.clusterer }

func TestGenerateClusteringFailureDegrades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file, payload, jobID := f.seed(t, 3)

	registry := stubRegistry{
		projector: reduce.NewPCA(),
		clusterer: visualization.ClustererFunc(func(context.Context, [][]float64, int) ([]int, error) {
			return nil, errors.New("clustering blew up")
		}),
	}
	h := NewGenerate(f.files, f.rows, f.vectors, f.points, f.generator, registry, f.progress, 2, discardLogger())

	require.NoError(t, h.Execute(ctx, payload))

	points, err := f.points.FindByFile(ctx, file.ID(), "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	for _, p := range points {
		assert.Equal(t, visualization.ClusterUnassigned, p.Cluster())
	}

	// A degraded run still completes.
	record, err := f.progress.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusComplete, record.Status)
}

func TestGenerateFailedProjectionIsOmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file, payload, _ := f.seed(t, 3)

	registry := stubRegistry{
		projector: reduce.NewPCA(),
		projErr:   map[visualization.Method]error{visualization.MethodUMAP: errors.New("umap unavailable")},
		clusterer: reduce.NewKMeans(),
	}
	h := NewGenerate(f.files, f.rows, f.vectors, f.points, f.generator, registry, f.progress, 2, discardLogger())

	require.NoError(t, h.Execute(ctx, payload))

	umap, err := f.points.FindByFile(ctx, file.ID(), visualization.MethodUMAP, 0)
	require.NoError(t, err)
	assert.Empty(t, umap)

	pca, err := f.points.FindByFile(ctx, file.ID(), visualization.MethodPCA, 2)
	require.NoError(t, err)
	assert.Len(t, pca, 3)
}

func TestGenerateFailureIsRecordedOnProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, payload, jobID := f.seed(t, 3)

	f.generator.fail = errors.New("provider down")

	err := f.handler.Execute(ctx, payload)
	require.Error(t, err)

	record, err := f.progress.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, record.Status)
	assert.Equal(t, 100, record.Progress)
	require.NotNil(t, record.Error)
	assert.NotContains(t, record.Error.Message, "provider down", "raw errors stay in the trace")
	assert.Contains(t, record.Error.Trace, "provider down")
}

func TestGenerateUnknownColumnFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, jobID := f.seed(t, 3)

	file, err := f.files.Get(ctx, 1)
	require.NoError(t, err)
	payload := handler.NewGeneratePayload(jobID, file.ID(), "no_such_column", testModel)

	err = f.handler.Execute(ctx, payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_column")
	assert.True(t, service.IsValidation(err), "column errors carry the validation type")

	record, err := f.progress.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, record.Error)
	assert.Contains(t, record.Error.Message, "no_such_column")
}

func TestGenerateMissingFileIsValidationError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jobID := job.NewID()
	payload := handler.NewGeneratePayload(jobID, 404, "text", testModel)

	err := f.handler.Execute(ctx, payload)
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
}
