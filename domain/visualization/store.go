package visualization

import "context"

// Store persists visualization points. SaveAll must upsert by (file_id,
// row_id, method, dimensions) so queue redelivery cannot duplicate points,
// and must be transactional per batch.
type Store interface {
	// FindByFile returns points for a file, optionally filtered by method
	// and dimensions (zero values mean no filter), ordered by the source
	// row order.
	FindByFile(ctx context.Context, fileID int64, method Method, dimensions int) ([]Visualization, error)
	SaveAll(ctx context.Context, points []Visualization) ([]Visualization, error)
	DeleteByFile(ctx context.Context, fileID int64) error
}
