package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/visualization"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisualizationStore implements visualization.Store using GORM.
type VisualizationStore struct {
	db     database.Database
	mapper VisualizationMapper
}

// NewVisualizationStore creates a new VisualizationStore.
func NewVisualizationStore(db database.Database) VisualizationStore {
	return VisualizationStore{
		db:     db,
		mapper: VisualizationMapper{},
	}
}

// FindByFile returns points for a file ordered by source row order. Method
// and dimensions filter when non-zero.
func (s VisualizationStore) FindByFile(ctx context.Context, fileID int64, method visualization.Method, dimensions int) ([]visualization.Visualization, error) {
	db := s.db.Session(ctx).
		Joins("JOIN file_rows ON file_rows.id = visualizations.row_id").
		Where("visualizations.file_id = ?", fileID)
	if method != "" {
		db = db.Where("visualizations.method = ?", string(method))
	}
	if dimensions != 0 {
		db = db.Where("visualizations.dimensions = ?", dimensions)
	}

	var models []VisualizationModel
	result := db.Order("visualizations.method ASC, visualizations.dimensions ASC, file_rows.row_index ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find visualizations: %w", result.Error)
	}

	points := make([]visualization.Visualization, len(models))
	for i, model := range models {
		v, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		points[i] = v
	}
	return points, nil
}

// SaveAll upserts points by (file_id, row_id, method, dimensions) in a
// single transaction.
func (s VisualizationStore) SaveAll(ctx context.Context, points []visualization.Visualization) ([]visualization.Visualization, error) {
	if len(points) == 0 {
		return []visualization.Visualization{}, nil
	}

	now := time.Now().UTC()
	models := make([]VisualizationModel, len(points))
	for i, v := range points {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("save visualizations: %w", err)
		}
		model, err := s.mapper.ToModel(v)
		if err != nil {
			return nil, fmt.Errorf("save visualizations: %w", err)
		}
		if model.CreatedAt.IsZero() {
			model.CreatedAt = now
		}
		model.UpdatedAt = now
		models[i] = model
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "file_id"}, {Name: "row_id"}, {Name: "method"}, {Name: "dimensions"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"embedding_id", "coordinate", "cluster", "updated_at",
			}),
		}).CreateInBatches(&models, 500).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save visualizations: %w", err)
	}

	saved := make([]visualization.Visualization, len(models))
	for i, model := range models {
		v, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		saved[i] = v
	}
	return saved, nil
}

// DeleteByFile removes all points of a file.
func (s VisualizationStore) DeleteByFile(ctx context.Context, fileID int64) error {
	result := s.db.Session(ctx).Where("file_id = ?", fileID).Delete(&VisualizationModel{})
	if result.Error != nil {
		return fmt.Errorf("delete visualizations: %w", result.Error)
	}
	return nil
}
