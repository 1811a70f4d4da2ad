// Package dataset provides domain types for uploaded tabular files and their rows.
package dataset

import (
	"time"
)

// FileType identifies the declared format of an uploaded file.
type FileType string

// FileType values.
const (
	FileTypeCSV     FileType = "csv"
	FileTypeParquet FileType = "parquet"
)

// IsValid reports whether the file type is one of the supported formats.
func (t FileType) IsValid() bool {
	return t == FileTypeCSV || t == FileTypeParquet
}

// ColumnMetadata describes the columns of an ingested file. It is populated
// asynchronously after upload, so any consumer must tolerate a zero value
// (ingestion not finished yet) or a metadata error (ingestion failed).
type ColumnMetadata struct {
	names          []string
	types          map[string]string
	numericColumns []string
	textColumns    []string
	errorMessage   string
}

// NewColumnMetadata creates metadata for a successfully ingested file.
func NewColumnMetadata(names []string, types map[string]string, numeric, text []string) ColumnMetadata {
	return ColumnMetadata{
		names:          append([]string(nil), names...),
		types:          copyTypes(types),
		numericColumns: append([]string(nil), numeric...),
		textColumns:    append([]string(nil), text...),
	}
}

// NewColumnMetadataError creates metadata recording an ingestion failure.
func NewColumnMetadataError(message string) ColumnMetadata {
	return ColumnMetadata{errorMessage: message}
}

// Names returns the column names in source order.
func (m ColumnMetadata) Names() []string { return append([]string(nil), m.names...) }

// Types returns the inferred type per column name.
func (m ColumnMetadata) Types() map[string]string { return copyTypes(m.types) }

// NumericColumns returns the columns classified as numeric.
func (m ColumnMetadata) NumericColumns() []string {
	return append([]string(nil), m.numericColumns...)
}

// TextColumns returns the columns classified as text.
func (m ColumnMetadata) TextColumns() []string { return append([]string(nil), m.textColumns...) }

// Error returns the ingestion error message, if any.
func (m ColumnMetadata) Error() string { return m.errorMessage }

// IsPresent reports whether ingestion produced usable column names.
func (m ColumnMetadata) IsPresent() bool {
	return m.errorMessage == "" && len(m.names) > 0
}

// HasColumn reports whether the named column exists. Only meaningful when
// IsPresent is true.
func (m ColumnMetadata) HasColumn(name string) bool {
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

func copyTypes(types map[string]string) map[string]string {
	if types == nil {
		return nil
	}
	out := make(map[string]string, len(types))
	for k, v := range types {
		out[k] = v
	}
	return out
}

// File is an uploaded tabular dataset scoped to a project and its owner.
type File struct {
	id          int64
	projectID   int64
	userID      int64
	name        string
	storagePath string
	fileType    FileType
	columns     ColumnMetadata
	rowCount    int
	createdAt   time.Time
}

// NewFile creates a File pending persistence (zero id).
func NewFile(projectID, userID int64, name, storagePath string, fileType FileType, rowCount int) File {
	return File{
		projectID:   projectID,
		userID:      userID,
		name:        name,
		storagePath: storagePath,
		fileType:    fileType,
		rowCount:    rowCount,
	}
}

// ReconstructFile creates a File with all fields (used by the store layer).
func ReconstructFile(
	id, projectID, userID int64,
	name, storagePath string,
	fileType FileType,
	columns ColumnMetadata,
	rowCount int,
	createdAt time.Time,
) File {
	return File{
		id:          id,
		projectID:   projectID,
		userID:      userID,
		name:        name,
		storagePath: storagePath,
		fileType:    fileType,
		columns:     columns,
		rowCount:    rowCount,
		createdAt:   createdAt,
	}
}

// ID returns the file id.
func (f File) ID() int64 { return f.id }

// ProjectID returns the owning project id.
func (f File) ProjectID() int64 { return f.projectID }

// UserID returns the owning user id.
func (f File) UserID() int64 { return f.userID }

// Name returns the original file name.
func (f File) Name() string { return f.name }

// StoragePath returns where the raw upload is stored.
func (f File) StoragePath() string { return f.storagePath }

// Type returns the declared file type.
func (f File) Type() FileType { return f.fileType }

// Columns returns the column metadata.
func (f File) Columns() ColumnMetadata { return f.columns }

// RowCount returns the number of rows ingested from the file.
func (f File) RowCount() int { return f.rowCount }

// CreatedAt returns when the file record was created.
func (f File) CreatedAt() time.Time { return f.createdAt }

// WithColumns returns a copy with updated column metadata.
func (f File) WithColumns(columns ColumnMetadata) File {
	f.columns = columns
	return f
}

// WithID returns a copy with the given id.
func (f File) WithID(id int64) File {
	f.id = id
	return f
}
