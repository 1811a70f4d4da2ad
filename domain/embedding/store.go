package embedding

import "context"

// Store persists embeddings. SaveAll must upsert by (file_id, row_id,
// model_name) so queue redelivery cannot duplicate rows, and must be
// transactional: all rows of a batch commit or none do.
type Store interface {
	// FindByFileAndModel returns embeddings for (file, model) ordered by the
	// source row order (row_index of the referenced rows).
	FindByFileAndModel(ctx context.Context, fileID int64, modelName string) ([]Embedding, error)
	SaveAll(ctx context.Context, embeddings []Embedding) ([]Embedding, error)
	CountComplete(ctx context.Context, fileID int64, modelName string) (int64, error)
	DeleteByFile(ctx context.Context, fileID int64) error
}
