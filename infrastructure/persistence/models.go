package persistence

import (
	"database/sql"
	"time"
)

// FileModel represents an uploaded tabular file in the database.
type FileModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ProjectID   int64     `gorm:"column:project_id;index"`
	UserID      int64     `gorm:"column:user_id;index"`
	Name        string    `gorm:"column:name;size:1024"`
	StoragePath string    `gorm:"column:storage_path;size:1024"`
	FileType    string    `gorm:"column:file_type;size:32"`
	Columns     []byte    `gorm:"column:columns;type:text"`
	RowCount    int       `gorm:"column:row_count;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (FileModel) TableName() string {
	return "files"
}

// FileRowModel represents one row of an uploaded file.
type FileRowModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	FileID   int64  `gorm:"column:file_id;uniqueIndex:ux_file_rows_file_index"`
	RowIndex int    `gorm:"column:row_index;uniqueIndex:ux_file_rows_file_index"`
	RowData  []byte `gorm:"column:row_data;type:text"`
}

// TableName returns the table name.
func (FileRowModel) TableName() string {
	return "file_rows"
}

// EmbeddingModel represents one per-row embedding vector.
type EmbeddingModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	FileID          int64     `gorm:"column:file_id;uniqueIndex:ux_embeddings_file_row_model"`
	RowID           int64     `gorm:"column:row_id;uniqueIndex:ux_embeddings_file_row_model"`
	ModelName       string    `gorm:"column:model_name;size:255;uniqueIndex:ux_embeddings_file_row_model"`
	Status          string    `gorm:"column:status;index;size:32"`
	VectorDimension int       `gorm:"column:vector_dimension"`
	Vector          []byte    `gorm:"column:vector;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (EmbeddingModel) TableName() string {
	return "embeddings"
}

// VisualizationModel represents one reduced-coordinate point.
type VisualizationModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	FileID      int64     `gorm:"column:file_id;uniqueIndex:ux_visualizations_point"`
	RowID       int64     `gorm:"column:row_id;uniqueIndex:ux_visualizations_point"`
	Method      string    `gorm:"column:method;size:32;uniqueIndex:ux_visualizations_point"`
	Dimensions  int       `gorm:"column:dimensions;uniqueIndex:ux_visualizations_point"`
	EmbeddingID int64     `gorm:"column:embedding_id;index"`
	Coordinate  []byte    `gorm:"column:coordinate;type:text"`
	Cluster     int       `gorm:"column:cluster"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (VisualizationModel) TableName() string {
	return "visualizations"
}

// JobLedgerModel durably records a submitted job.
type JobLedgerModel struct {
	JobID      string    `gorm:"column:job_id;primaryKey;size:36"`
	ProjectID  int64     `gorm:"column:project_id;index"`
	FileID     int64     `gorm:"column:file_id;index"`
	ColumnName string    `gorm:"column:column_name;size:255"`
	ModelName  string    `gorm:"column:model_name;size:255"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (JobLedgerModel) TableName() string {
	return "job_ledger"
}

// QueueTaskModel represents one durable queue task. Terminal tasks are kept,
// not deleted, so job status can be derived after the progress cache expires.
type QueueTaskModel struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	JobID          string         `gorm:"column:job_id;uniqueIndex;size:36"`
	Operation      string         `gorm:"column:operation;index;size:64"`
	Payload        []byte         `gorm:"column:payload;type:text"`
	State          string         `gorm:"column:state;index;size:32"`
	TimeoutSeconds int64          `gorm:"column:timeout_seconds"`
	EnqueuedAt     time.Time      `gorm:"column:enqueued_at"`
	StartedAt      sql.NullTime   `gorm:"column:started_at"`
	FinishedAt     sql.NullTime   `gorm:"column:finished_at"`
	ErrorMessage   sql.NullString `gorm:"column:error_message;type:text"`
}

// TableName returns the table name.
func (QueueTaskModel) TableName() string {
	return "queue_tasks"
}
