package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmbeddingStore implements embedding.Store using GORM.
type EmbeddingStore struct {
	db     database.Database
	mapper EmbeddingMapper
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db database.Database) EmbeddingStore {
	return EmbeddingStore{
		db:     db,
		mapper: EmbeddingMapper{},
	}
}

// FindByFileAndModel returns embeddings for (file, model) ordered by the
// row_index of the referenced rows.
func (s EmbeddingStore) FindByFileAndModel(ctx context.Context, fileID int64, modelName string) ([]embedding.Embedding, error) {
	var models []EmbeddingModel
	result := s.db.Session(ctx).
		Joins("JOIN file_rows ON file_rows.id = embeddings.row_id").
		Where("embeddings.file_id = ? AND embeddings.model_name = ?", fileID, modelName).
		Order("file_rows.row_index ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find embeddings: %w", result.Error)
	}

	embeddings := make([]embedding.Embedding, len(models))
	for i, model := range models {
		em, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		embeddings[i] = em
	}
	return embeddings, nil
}

// SaveAll upserts embeddings by (file_id, row_id, model_name) in a single
// transaction.
func (s EmbeddingStore) SaveAll(ctx context.Context, embeddings []embedding.Embedding) ([]embedding.Embedding, error) {
	if len(embeddings) == 0 {
		return []embedding.Embedding{}, nil
	}

	now := time.Now().UTC()
	models := make([]EmbeddingModel, len(embeddings))
	for i, em := range embeddings {
		if err := em.Validate(); err != nil {
			return nil, fmt.Errorf("save embeddings: %w", err)
		}
		model, err := s.mapper.ToModel(em)
		if err != nil {
			return nil, fmt.Errorf("save embeddings: %w", err)
		}
		if model.CreatedAt.IsZero() {
			model.CreatedAt = now
		}
		model.UpdatedAt = now
		models[i] = model
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "file_id"}, {Name: "row_id"}, {Name: "model_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "vector_dimension", "vector", "updated_at",
			}),
		}).CreateInBatches(&models, 500).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save embeddings: %w", err)
	}

	saved := make([]embedding.Embedding, len(models))
	for i, model := range models {
		em, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		saved[i] = em
	}
	return saved, nil
}

// CountComplete returns how many complete embeddings exist for (file, model).
func (s EmbeddingStore) CountComplete(ctx context.Context, fileID int64, modelName string) (int64, error) {
	var count int64
	result := s.db.Session(ctx).Model(&EmbeddingModel{}).
		Where("file_id = ? AND model_name = ? AND status = ?", fileID, modelName, string(embedding.StatusComplete)).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("count complete embeddings: %w", result.Error)
	}
	return count, nil
}

// DeleteByFile removes all embeddings of a file.
func (s EmbeddingStore) DeleteByFile(ctx context.Context, fileID int64) error {
	result := s.db.Session(ctx).Where("file_id = ?", fileID).Delete(&EmbeddingModel{})
	if result.Error != nil {
		return fmt.Errorf("delete embeddings: %w", result.Error)
	}
	return nil
}
