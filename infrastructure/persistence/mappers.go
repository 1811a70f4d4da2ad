package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/domain/visualization"
)

// columnsDoc is the JSON shape stored in files.columns. A failed ingestion
// stores only the error field.
type columnsDoc struct {
	Names          []string          `json:"names,omitempty"`
	Types          map[string]string `json:"types,omitempty"`
	NumericColumns []string          `json:"numeric_columns,omitempty"`
	TextColumns    []string          `json:"text_columns,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// rowDoc is the JSON shape stored in file_rows.row_data. Columns carries the
// source order, which a bare JSON object would not preserve.
type rowDoc struct {
	Columns []string       `json:"columns"`
	Values  map[string]any `json:"values"`
}

// FileMapper maps between domain File and FileModel.
type FileMapper struct{}

// ToDomain converts a FileModel to a domain File.
func (m FileMapper) ToDomain(e FileModel) (dataset.File, error) {
	columns, err := columnsFromDB(e.Columns)
	if err != nil {
		return dataset.File{}, fmt.Errorf("file %d: %w", e.ID, err)
	}
	return dataset.ReconstructFile(
		e.ID,
		e.ProjectID,
		e.UserID,
		e.Name,
		e.StoragePath,
		dataset.FileType(e.FileType),
		columns,
		e.RowCount,
		e.CreatedAt,
	), nil
}

// ToModel converts a domain File to a FileModel.
func (m FileMapper) ToModel(f dataset.File) (FileModel, error) {
	columns, err := columnsToDB(f.Columns())
	if err != nil {
		return FileModel{}, err
	}
	return FileModel{
		ID:          f.ID(),
		ProjectID:   f.ProjectID(),
		UserID:      f.UserID(),
		Name:        f.Name(),
		StoragePath: f.StoragePath(),
		FileType:    string(f.Type()),
		Columns:     columns,
		RowCount:    f.RowCount(),
		CreatedAt:   f.CreatedAt(),
	}, nil
}

func columnsFromDB(raw []byte) (dataset.ColumnMetadata, error) {
	if len(raw) == 0 {
		return dataset.ColumnMetadata{}, nil
	}
	var doc columnsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return dataset.ColumnMetadata{}, fmt.Errorf("decode columns: %w", err)
	}
	if doc.Error != "" {
		return dataset.NewColumnMetadataError(doc.Error), nil
	}
	if len(doc.Names) == 0 {
		return dataset.ColumnMetadata{}, nil
	}
	return dataset.NewColumnMetadata(doc.Names, doc.Types, doc.NumericColumns, doc.TextColumns), nil
}

func columnsToDB(columns dataset.ColumnMetadata) ([]byte, error) {
	if columns.Error() != "" {
		return json.Marshal(columnsDoc{Error: columns.Error()})
	}
	if !columns.IsPresent() {
		return nil, nil
	}
	return json.Marshal(columnsDoc{
		Names:          columns.Names(),
		Types:          columns.Types(),
		NumericColumns: columns.NumericColumns(),
		TextColumns:    columns.TextColumns(),
	})
}

// RowMapper maps between domain Row and FileRowModel.
type RowMapper struct{}

// ToDomain converts a FileRowModel to a domain Row.
func (m RowMapper) ToDomain(e FileRowModel) (dataset.Row, error) {
	var doc rowDoc
	if err := json.Unmarshal(e.RowData, &doc); err != nil {
		return dataset.Row{}, fmt.Errorf("row %d: decode row data: %w", e.ID, err)
	}
	values := make(map[string]dataset.Value, len(doc.Values))
	for name, raw := range doc.Values {
		v, err := dataset.ValueFromInterface(raw)
		if err != nil {
			return dataset.Row{}, fmt.Errorf("row %d: column %q: %w", e.ID, name, err)
		}
		values[name] = v
	}
	return dataset.ReconstructRow(e.ID, e.FileID, e.RowIndex, doc.Columns, values), nil
}

// ToModel converts a domain Row to a FileRowModel.
func (m RowMapper) ToModel(r dataset.Row) (FileRowModel, error) {
	values := make(map[string]any, len(r.Columns()))
	for _, name := range r.Columns() {
		if v, ok := r.Value(name); ok {
			values[name] = v.Interface()
		}
	}
	data, err := json.Marshal(rowDoc{Columns: r.Columns(), Values: values})
	if err != nil {
		return FileRowModel{}, fmt.Errorf("encode row data: %w", err)
	}
	return FileRowModel{
		ID:       r.ID(),
		FileID:   r.FileID(),
		RowIndex: r.RowIndex(),
		RowData:  data,
	}, nil
}

// EmbeddingMapper maps between domain Embedding and EmbeddingModel.
type EmbeddingMapper struct{}

// ToDomain converts an EmbeddingModel to a domain Embedding.
func (m EmbeddingMapper) ToDomain(e EmbeddingModel) (embedding.Embedding, error) {
	var vector []float64
	if len(e.Vector) > 0 {
		if err := json.Unmarshal(e.Vector, &vector); err != nil {
			return embedding.Embedding{}, fmt.Errorf("embedding %d: decode vector: %w", e.ID, err)
		}
	}
	return embedding.ReconstructEmbedding(
		e.ID,
		e.FileID,
		e.RowID,
		e.ModelName,
		embedding.Status(e.Status),
		vector,
		e.CreatedAt,
	), nil
}

// ToModel converts a domain Embedding to an EmbeddingModel.
func (m EmbeddingMapper) ToModel(em embedding.Embedding) (EmbeddingModel, error) {
	vector, err := json.Marshal(em.Vector())
	if err != nil {
		return EmbeddingModel{}, fmt.Errorf("encode vector: %w", err)
	}
	return EmbeddingModel{
		ID:              em.ID(),
		FileID:          em.FileID(),
		RowID:           em.RowID(),
		ModelName:       em.ModelName(),
		Status:          string(em.Status()),
		VectorDimension: em.Dimension(),
		Vector:          vector,
		CreatedAt:       em.CreatedAt(),
	}, nil
}

// VisualizationMapper maps between domain Visualization and VisualizationModel.
type VisualizationMapper struct{}

// ToDomain converts a VisualizationModel to a domain Visualization.
func (m VisualizationMapper) ToDomain(e VisualizationModel) (visualization.Visualization, error) {
	var coordinate []float64
	if len(e.Coordinate) > 0 {
		if err := json.Unmarshal(e.Coordinate, &coordinate); err != nil {
			return visualization.Visualization{}, fmt.Errorf("visualization %d: decode coordinate: %w", e.ID, err)
		}
	}
	return visualization.ReconstructVisualization(
		e.ID,
		e.FileID,
		e.EmbeddingID,
		e.RowID,
		visualization.Method(e.Method),
		e.Dimensions,
		coordinate,
		e.Cluster,
		e.CreatedAt,
	), nil
}

// ToModel converts a domain Visualization to a VisualizationModel.
func (m VisualizationMapper) ToModel(v visualization.Visualization) (VisualizationModel, error) {
	coordinate, err := json.Marshal(v.Coordinate())
	if err != nil {
		return VisualizationModel{}, fmt.Errorf("encode coordinate: %w", err)
	}
	return VisualizationModel{
		ID:          v.ID(),
		FileID:      v.FileID(),
		RowID:       v.RowID(),
		Method:      string(v.Method()),
		Dimensions:  v.Dimensions(),
		EmbeddingID: v.EmbeddingID(),
		Coordinate:  coordinate,
		Cluster:     v.Cluster(),
		CreatedAt:   v.CreatedAt(),
	}, nil
}

// LedgerMapper maps between domain LedgerEntry and JobLedgerModel.
type LedgerMapper struct{}

// ToDomain converts a JobLedgerModel to a domain LedgerEntry.
func (m LedgerMapper) ToDomain(e JobLedgerModel) job.LedgerEntry {
	return job.ReconstructLedgerEntry(
		job.ID(e.JobID),
		e.ProjectID,
		e.FileID,
		e.ColumnName,
		e.ModelName,
		e.CreatedAt,
	)
}

// ToModel converts a domain LedgerEntry to a JobLedgerModel.
func (m LedgerMapper) ToModel(e job.LedgerEntry) JobLedgerModel {
	return JobLedgerModel{
		JobID:      e.JobID().String(),
		ProjectID:  e.ProjectID(),
		FileID:     e.FileID(),
		ColumnName: e.Column(),
		ModelName:  e.ModelName(),
		CreatedAt:  e.CreatedAt(),
	}
}

// TaskMapper maps between domain Task and QueueTaskModel.
type TaskMapper struct{}

// ToDomain converts a QueueTaskModel to a domain Task.
func (m TaskMapper) ToDomain(e QueueTaskModel) (job.Task, error) {
	payload := map[string]any{}
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return job.Task{}, fmt.Errorf("task %d: decode payload: %w", e.ID, err)
		}
	}
	var startedAt, finishedAt *time.Time
	if e.StartedAt.Valid {
		t := e.StartedAt.Time
		startedAt = &t
	}
	if e.FinishedAt.Valid {
		t := e.FinishedAt.Time
		finishedAt = &t
	}
	var errMessage string
	if e.ErrorMessage.Valid {
		errMessage = e.ErrorMessage.String
	}
	return job.ReconstructTask(
		e.ID,
		job.ID(e.JobID),
		job.Operation(e.Operation),
		payload,
		job.QueueState(e.State),
		time.Duration(e.TimeoutSeconds)*time.Second,
		e.EnqueuedAt,
		startedAt,
		finishedAt,
		errMessage,
	), nil
}

// ToModel converts a domain Task to a QueueTaskModel.
func (m TaskMapper) ToModel(t job.Task) (QueueTaskModel, error) {
	payload, err := json.Marshal(t.Payload())
	if err != nil {
		return QueueTaskModel{}, fmt.Errorf("encode payload: %w", err)
	}
	model := QueueTaskModel{
		ID:             t.ID(),
		JobID:          t.JobID().String(),
		Operation:      t.Operation().String(),
		Payload:        payload,
		State:          string(t.State()),
		TimeoutSeconds: int64(t.Timeout() / time.Second),
		EnqueuedAt:     t.EnqueuedAt(),
	}
	if started := t.StartedAt(); started != nil {
		model.StartedAt = sql.NullTime{Time: *started, Valid: true}
	}
	if finished := t.FinishedAt(); finished != nil {
		model.FinishedAt = sql.NullTime{Time: *finished, Valid: true}
	}
	if msg := t.ErrorMessage(); msg != "" {
		model.ErrorMessage = sql.NullString{String: msg, Valid: true}
	}
	return model, nil
}
