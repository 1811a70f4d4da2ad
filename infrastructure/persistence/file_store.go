package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
)

// FileStore implements dataset.FileStore using GORM.
type FileStore struct {
	db     database.Database
	mapper FileMapper
}

// NewFileStore creates a new FileStore.
func NewFileStore(db database.Database) FileStore {
	return FileStore{
		db:     db,
		mapper: FileMapper{},
	}
}

// Get retrieves a file by ID.
func (s FileStore) Get(ctx context.Context, id int64) (dataset.File, error) {
	var model FileModel
	result := s.db.Session(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return dataset.File{}, fmt.Errorf("%w: file id %d", database.ErrNotFound, id)
		}
		return dataset.File{}, fmt.Errorf("get file: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// GetOwned retrieves a file only when it belongs to the given user.
func (s FileStore) GetOwned(ctx context.Context, id, userID int64) (dataset.File, error) {
	var model FileModel
	result := s.db.Session(ctx).Where("id = ? AND user_id = ?", id, userID).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return dataset.File{}, fmt.Errorf("%w: file id %d", database.ErrNotFound, id)
		}
		return dataset.File{}, fmt.Errorf("get owned file: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// FindByProject retrieves all files of a project, newest first.
func (s FileStore) FindByProject(ctx context.Context, projectID int64) ([]dataset.File, error) {
	var models []FileModel
	result := s.db.Session(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find files by project: %w", result.Error)
	}

	files := make([]dataset.File, len(models))
	for i, model := range models {
		f, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	return files, nil
}

// Save creates a new file or updates an existing one.
func (s FileStore) Save(ctx context.Context, f dataset.File) (dataset.File, error) {
	model, err := s.mapper.ToModel(f)
	if err != nil {
		return dataset.File{}, fmt.Errorf("save file: %w", err)
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	result := s.db.Session(ctx).Save(&model)
	if result.Error != nil {
		return dataset.File{}, fmt.Errorf("save file: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// UpdateColumns persists new column metadata for a file.
func (s FileStore) UpdateColumns(ctx context.Context, id int64, columns dataset.ColumnMetadata) error {
	data, err := columnsToDB(columns)
	if err != nil {
		return fmt.Errorf("update columns: %w", err)
	}
	result := s.db.Session(ctx).Model(&FileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"columns": data, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("update columns: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: file id %d", database.ErrNotFound, id)
	}
	return nil
}

// Delete removes a file.
func (s FileStore) Delete(ctx context.Context, id int64) error {
	result := s.db.Session(ctx).Delete(&FileModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete file: %w", result.Error)
	}
	return nil
}
