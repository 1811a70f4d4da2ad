// Package ingestion implements the column-metadata pass that follows a file
// upload: inferring per-column types and the numeric/text classification
// submission-time validation relies on.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/domain/dataset"
)

// Column type names recorded in metadata.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBool    = "boolean"
	TypeUnknown = "unknown"
)

// Columns infers column metadata for an uploaded file from its stored rows.
type Columns struct {
	files  dataset.FileStore
	rows   dataset.RowStore
	logger *slog.Logger
}

// NewColumns creates the ingestion handler.
func NewColumns(files dataset.FileStore, rows dataset.RowStore, logger *slog.Logger) *Columns {
	return &Columns{files: files, rows: rows, logger: logger}
}

// Execute infers and persists the file's column metadata. Inference errors
// are recorded as error metadata on the file rather than crashing the task,
// so the upload stays visible with a diagnosable state.
func (h *Columns) Execute(ctx context.Context, payload map[string]any) error {
	fileID, err := handler.ExtractInt64(payload, "file_id")
	if err != nil {
		return err
	}

	rows, err := h.rows.FindByFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("load rows for file %d: %w", fileID, err)
	}

	metadata := infer(rows)
	if metadata.Error() != "" {
		h.logger.Warn("column inference failed",
			slog.Int64("file_id", fileID),
			slog.String("error", metadata.Error()),
		)
	}

	if err := h.files.UpdateColumns(ctx, fileID, metadata); err != nil {
		return fmt.Errorf("update columns for file %d: %w", fileID, err)
	}

	h.logger.Info("column metadata ingested",
		slog.Int64("file_id", fileID),
		slog.Int("columns", len(metadata.Names())),
	)
	return nil
}

// infer classifies each column by the value kinds observed across all rows.
// A column is numeric or boolean only when every non-null cell agrees;
// mixed columns fall back to string. All-null columns are unknown and
// excluded from both classifications.
func infer(rows []dataset.Row) dataset.ColumnMetadata {
	if len(rows) == 0 {
		return dataset.NewColumnMetadataError("file has no rows")
	}

	names := rows[0].Columns()
	if len(names) == 0 {
		return dataset.NewColumnMetadataError("rows carry no columns")
	}

	types := make(map[string]string, len(names))
	var numeric, text []string

	for _, name := range names {
		columnType := inferColumn(rows, name)
		types[name] = columnType

		switch columnType {
		case TypeNumber:
			numeric = append(numeric, name)
		case TypeString, TypeBool:
			// Booleans embed as text like any other categorical value.
			text = append(text, name)
		}
	}

	return dataset.NewColumnMetadata(names, types, numeric, text)
}

func inferColumn(rows []dataset.Row, name string) string {
	sawNumber, sawBool, sawString, sawValue := false, false, false, false

	for _, row := range rows {
		value, ok := row.Value(name)
		if !ok || value.Kind() == dataset.ValueNull {
			continue
		}
		sawValue = true
		switch value.Kind() {
		case dataset.ValueNumber:
			sawNumber = true
		case dataset.ValueBool:
			sawBool = true
		default:
			sawString = true
		}
	}

	switch {
	case !sawValue:
		return TypeUnknown
	case sawString:
		return TypeString
	case sawNumber && !sawBool:
		return TypeNumber
	case sawBool && !sawNumber:
		return TypeBool
	default:
		return TypeString
	}
}
