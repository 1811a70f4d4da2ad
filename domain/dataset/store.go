package dataset

import "context"

// FileStore persists File records.
type FileStore interface {
	Get(ctx context.Context, id int64) (File, error)
	// GetOwned retrieves a file only when its project belongs to the given user.
	GetOwned(ctx context.Context, id, userID int64) (File, error)
	FindByProject(ctx context.Context, projectID int64) ([]File, error)
	Save(ctx context.Context, f File) (File, error)
	UpdateColumns(ctx context.Context, id int64, columns ColumnMetadata) error
	Delete(ctx context.Context, id int64) error
}

// RowStore persists file rows.
type RowStore interface {
	// FindByFile returns rows for a file ordered by row_index ascending.
	FindByFile(ctx context.Context, fileID int64) ([]Row, error)
	// FindPage returns a row_index-ordered page of rows.
	FindPage(ctx context.Context, fileID int64, limit, offset int) ([]Row, error)
	SaveAll(ctx context.Context, rows []Row) ([]Row, error)
	CountByFile(ctx context.Context, fileID int64) (int64, error)
}
