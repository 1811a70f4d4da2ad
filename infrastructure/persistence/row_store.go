package persistence

import (
	"context"
	"fmt"

	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
)

// RowStore implements dataset.RowStore using GORM.
type RowStore struct {
	db     database.Database
	mapper RowMapper
}

// NewRowStore creates a new RowStore.
func NewRowStore(db database.Database) RowStore {
	return RowStore{
		db:     db,
		mapper: RowMapper{},
	}
}

// FindByFile returns all rows of a file ordered by row_index.
func (s RowStore) FindByFile(ctx context.Context, fileID int64) ([]dataset.Row, error) {
	var models []FileRowModel
	result := s.db.Session(ctx).
		Where("file_id = ?", fileID).
		Order("row_index ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find rows by file: %w", result.Error)
	}
	return s.toDomain(models)
}

// FindPage returns a row_index-ordered page of rows.
func (s RowStore) FindPage(ctx context.Context, fileID int64, limit, offset int) ([]dataset.Row, error) {
	var models []FileRowModel
	result := s.db.Session(ctx).
		Where("file_id = ?", fileID).
		Order("row_index ASC").
		Limit(limit).
		Offset(offset).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find row page: %w", result.Error)
	}
	return s.toDomain(models)
}

// SaveAll persists rows in a single transaction.
func (s RowStore) SaveAll(ctx context.Context, rows []dataset.Row) ([]dataset.Row, error) {
	if len(rows) == 0 {
		return []dataset.Row{}, nil
	}

	models := make([]FileRowModel, len(rows))
	for i, r := range rows {
		model, err := s.mapper.ToModel(r)
		if err != nil {
			return nil, fmt.Errorf("save rows: %w", err)
		}
		models[i] = model
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, 500).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save rows: %w", err)
	}

	return s.toDomain(models)
}

// CountByFile returns the number of rows stored for a file.
func (s RowStore) CountByFile(ctx context.Context, fileID int64) (int64, error) {
	var count int64
	result := s.db.Session(ctx).Model(&FileRowModel{}).
		Where("file_id = ?", fileID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("count rows: %w", result.Error)
	}
	return count, nil
}

func (s RowStore) toDomain(models []FileRowModel) ([]dataset.Row, error) {
	rows := make([]dataset.Row, len(models))
	for i, model := range models {
		r, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}
