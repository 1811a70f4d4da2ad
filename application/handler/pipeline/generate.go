// Package pipeline implements the generation orchestrator: the staged run
// that turns one (file, column, model) request into persisted embeddings,
// cluster labels, and reduced coordinates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/domain/visualization"
	"github.com/vectorscope/vectorscope/internal/database"
)

// Progress percentages per stage. Embedding generation advances inside its
// band proportionally to completed batches; projections advance inside
// theirs per completed projection.
const (
	progressLoadFile       = 10
	progressValidateColumn = 15
	progressLoadRows       = 20
	progressEmbedStart     = 30
	progressEmbedEnd       = 55
	progressPersistVectors = 60
	progressCluster        = 70
	progressProjectStart   = 75
	progressProjectEnd     = 90
	progressPersistPoints  = 95
)

// StrategyRegistry resolves reduction strategies per method.
type StrategyRegistry interface {
	Projector(method visualization.Method) (visualization.Projector, error)
	Clusterer() visualization.Clusterer
}

// Generate executes the full embedding pipeline for one queued job. It is
// idempotent: all persistence is upsert-keyed, so a redelivered task
// converges to the same rows instead of duplicating them.
type Generate struct {
	files     dataset.FileStore
	rows      dataset.RowStore
	vectors   embedding.Store
	points    visualization.Store
	generator embedding.Generator
	registry  StrategyRegistry
	progress  job.ProgressStore
	batchSize int
	logger    *slog.Logger
}

// NewGenerate creates the generation handler.
func NewGenerate(
	files dataset.FileStore,
	rows dataset.RowStore,
	vectors embedding.Store,
	points visualization.Store,
	generator embedding.Generator,
	registry StrategyRegistry,
	progress job.ProgressStore,
	batchSize int,
	logger *slog.Logger,
) *Generate {
	if batchSize <= 0 {
		batchSize = 128
	}
	return &Generate{
		files:     files,
		rows:      rows,
		vectors:   vectors,
		points:    points,
		generator: generator,
		registry:  registry,
		progress:  progress,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Execute runs the pipeline for the payload's job. Any error is first
// recorded on the progress record, then returned so the queue marks the
// task failed.
func (h *Generate) Execute(ctx context.Context, payload map[string]any) error {
	p, err := handler.ExtractGeneratePayload(payload)
	if err != nil {
		return err
	}

	log := h.logger.With(
		slog.String("job_id", p.JobID().String()),
		slog.Int64("file_id", p.FileID()),
		slog.String("model", p.ModelName()),
	)

	if err := h.run(ctx, p, log); err != nil {
		h.fail(ctx, p.JobID(), err)
		return err
	}

	h.advance(ctx, p.JobID(), "finished", 100)
	h.complete(ctx, p.JobID())
	log.Info("generation pipeline finished")
	return nil
}

func (h *Generate) run(ctx context.Context, p handler.GeneratePayload, log *slog.Logger) error {
	// Stage 1: resolve the file.
	file, err := h.files.Get(ctx, p.FileID())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return service.NewValidationError("file_id", fmt.Sprintf("file %d does not exist", p.FileID()))
		}
		return fmt.Errorf("load file: %w", err)
	}
	h.advance(ctx, p.JobID(), "loading file", progressLoadFile)

	// Stage 2: validate the column. Metadata may still be absent; the rows
	// themselves are the authority then.
	rows, err := h.rows.FindByFile(ctx, file.ID())
	if err != nil {
		return fmt.Errorf("load rows: %w", err)
	}
	if len(rows) == 0 {
		return service.NewValidationError("file_id", fmt.Sprintf("file %d has no rows", file.ID()))
	}
	if _, ok := rows[0].Value(p.Column()); !ok {
		return service.NewValidationError("column", fmt.Sprintf("column %q not present in file %d", p.Column(), file.ID()))
	}
	h.advance(ctx, p.JobID(), "validating column", progressValidateColumn)
	h.advance(ctx, p.JobID(), "loading rows", progressLoadRows)

	// Stages 3-4: embed, unless a complete set already exists for this
	// (file, model). The short-circuit makes re-runs cheap and keeps the
	// pipeline idempotent end to end.
	embeddings, err := h.ensureEmbeddings(ctx, p, rows, log)
	if err != nil {
		return err
	}
	h.advance(ctx, p.JobID(), "persisting embeddings", progressPersistVectors)

	vectors := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = e.Vector()
	}

	// Stage 5: cluster. Failure degrades every label to unassigned rather
	// than failing the run; coordinates without clusters are still useful.
	labels := h.clusterOrDegrade(ctx, vectors, log)
	h.advance(ctx, p.JobID(), "clustering", progressCluster)

	// Stages 6-8: project independently per (method, dimensions). A failed
	// projection is omitted; the others still persist.
	points := h.projectAll(ctx, p, embeddings, vectors, labels, log)
	if len(points) == 0 {
		return fmt.Errorf("all projections failed")
	}

	// Stage 9: persist points.
	if _, err := h.points.SaveAll(ctx, points); err != nil {
		return fmt.Errorf("persist visualization points: %w", err)
	}
	h.advance(ctx, p.JobID(), "persisting coordinates", progressPersistPoints)

	return nil
}

// ensureEmbeddings returns one embedding per row in row order, generating
// and persisting them unless a complete set already exists.
func (h *Generate) ensureEmbeddings(ctx context.Context, p handler.GeneratePayload, rows []dataset.Row, log *slog.Logger) ([]embedding.Embedding, error) {
	complete, err := h.vectors.CountComplete(ctx, p.FileID(), p.ModelName())
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	if complete == int64(len(rows)) {
		log.Info("existing embeddings cover all rows, skipping generation")
		existing, err := h.vectors.FindByFileAndModel(ctx, p.FileID(), p.ModelName())
		if err != nil {
			return nil, fmt.Errorf("load embeddings: %w", err)
		}
		h.advance(ctx, p.JobID(), "reusing embeddings", progressEmbedEnd)
		return existing, nil
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		value, _ := row.Value(p.Column())
		texts[i] = value.Text()
	}

	embeddings := make([]embedding.Embedding, 0, len(rows))
	for start := 0; start < len(texts); start += h.batchSize {
		end := min(start+h.batchSize, len(texts))

		vectors, err := h.generator.Generate(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("generate embeddings for rows %d-%d: %w", start, end-1, err)
		}

		for i, vector := range vectors {
			embeddings = append(embeddings, embedding.NewEmbedding(p.FileID(), rows[start+i].ID(), p.ModelName(), vector))
		}

		pct := progressEmbedStart + (progressEmbedEnd-progressEmbedStart)*end/len(texts)
		h.advance(ctx, p.JobID(), fmt.Sprintf("embedding rows (%d/%d)", end, len(texts)), pct)
	}

	saved, err := h.vectors.SaveAll(ctx, embeddings)
	if err != nil {
		return nil, fmt.Errorf("persist embeddings: %w", err)
	}
	return saved, nil
}

// clusterOrDegrade labels the vectors, or marks all of them unassigned when
// clustering fails.
func (h *Generate) clusterOrDegrade(ctx context.Context, vectors [][]float64, log *slog.Logger) []int {
	labels, err := h.registry.Clusterer().Cluster(ctx, vectors, 0)
	if err == nil && len(labels) == len(vectors) {
		return labels
	}
	if err != nil {
		log.Warn("clustering failed, labels degraded to unassigned",
			slog.String("error", err.Error()),
		)
	}
	labels = make([]int, len(vectors))
	for i := range labels {
		labels[i] = visualization.ClusterUnassigned
	}
	return labels
}

// projectAll computes every default projection, skipping the ones that fail.
func (h *Generate) projectAll(
	ctx context.Context,
	p handler.GeneratePayload,
	embeddings []embedding.Embedding,
	vectors [][]float64,
	labels []int,
	log *slog.Logger,
) []visualization.Visualization {
	projections := visualization.DefaultProjections()
	var points []visualization.Visualization

	for i, projection := range projections {
		projector, err := h.registry.Projector(projection.Method)
		if err != nil {
			log.Warn("projection skipped",
				slog.String("method", string(projection.Method)),
				slog.Int("dimensions", projection.Dimensions),
				slog.String("error", err.Error()),
			)
			continue
		}

		coordinates, err := projector.Project(ctx, vectors, projection.Dimensions)
		if err != nil || len(coordinates) != len(vectors) {
			if err == nil {
				err = fmt.Errorf("projector returned %d coordinates for %d vectors", len(coordinates), len(vectors))
			}
			log.Warn("projection failed",
				slog.String("method", string(projection.Method)),
				slog.Int("dimensions", projection.Dimensions),
				slog.String("error", err.Error()),
			)
			continue
		}

		for j, e := range embeddings {
			points = append(points, visualization.NewVisualization(
				p.FileID(), e.ID(), e.RowID(),
				projection.Method, coordinates[j], labels[j],
			))
		}

		pct := progressProjectStart + (progressProjectEnd-progressProjectStart)*(i+1)/len(projections)
		h.advance(ctx, p.JobID(), fmt.Sprintf("projecting %s-%dd", projection.Method, projection.Dimensions), pct)
	}
	return points
}

// advance moves the progress record forward. Progress updates are advisory:
// a cache failure is logged, never fatal to the run.
func (h *Generate) advance(ctx context.Context, jobID job.ID, step string, pct int) {
	err := h.progress.Update(ctx, jobID, func(r job.ProgressRecord) job.ProgressRecord {
		return r.Advance(step, pct)
	})
	if err != nil && !errors.Is(err, job.ErrProgressNotFound) {
		h.logger.Warn("progress update failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Generate) complete(ctx context.Context, jobID job.ID) {
	err := h.progress.Update(ctx, jobID, func(r job.ProgressRecord) job.ProgressRecord {
		return r.Complete()
	})
	if err != nil && !errors.Is(err, job.ErrProgressNotFound) {
		h.logger.Warn("progress completion failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// fail records the failure with a display message and a diagnostic trace.
// The raw error chain goes into the trace field only.
func (h *Generate) fail(ctx context.Context, jobID job.ID, cause error) {
	message := "embedding generation failed"
	var genErr *embedding.GenerationError
	var valErr *service.ValidationError
	switch {
	case errors.As(cause, &genErr):
		message = fmt.Sprintf("embedding generation failed at row offset %d", genErr.Offset)
	case errors.As(cause, &valErr):
		message = valErr.Error()
	}

	err := h.progress.Update(ctx, jobID, func(r job.ProgressRecord) job.ProgressRecord {
		return r.Fail(message, fmt.Sprintf("%+v", cause))
	})
	if err != nil && !errors.Is(err, job.ErrProgressNotFound) {
		h.logger.Warn("progress failure update failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}
