package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
	"gorm.io/gorm"
)

// LedgerStore implements job.LedgerStore using GORM.
type LedgerStore struct {
	db     database.Database
	mapper LedgerMapper
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(db database.Database) LedgerStore {
	return LedgerStore{
		db:     db,
		mapper: LedgerMapper{},
	}
}

// Get retrieves a ledger entry by job id.
func (s LedgerStore) Get(ctx context.Context, jobID job.ID) (job.LedgerEntry, error) {
	var model JobLedgerModel
	result := s.db.Session(ctx).Where("job_id = ?", jobID.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return job.LedgerEntry{}, fmt.Errorf("%w: job %s", database.ErrNotFound, jobID)
		}
		return job.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", result.Error)
	}
	return s.mapper.ToDomain(model), nil
}

// FindByProject retrieves all ledger entries of a project, newest first.
func (s LedgerStore) FindByProject(ctx context.Context, projectID int64) ([]job.LedgerEntry, error) {
	var models []JobLedgerModel
	result := s.db.Session(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, job_id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("find ledger entries: %w", result.Error)
	}

	entries := make([]job.LedgerEntry, len(models))
	for i, model := range models {
		entries[i] = s.mapper.ToDomain(model)
	}
	return entries, nil
}

// Save persists a ledger entry. Entries are written once at submission.
func (s LedgerStore) Save(ctx context.Context, e job.LedgerEntry) error {
	model := s.mapper.ToModel(e)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	result := s.db.Session(ctx).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("save ledger entry: %w", result.Error)
	}
	return nil
}

// Delete removes a ledger entry. Used as the compensating action when queue
// dispatch fails after the ledger write.
func (s LedgerStore) Delete(ctx context.Context, jobID job.ID) error {
	result := s.db.Session(ctx).Where("job_id = ?", jobID.String()).Delete(&JobLedgerModel{})
	if result.Error != nil {
		return fmt.Errorf("delete ledger entry: %w", result.Error)
	}
	return nil
}
