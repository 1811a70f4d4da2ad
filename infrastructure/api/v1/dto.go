package v1

import (
	"time"

	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/visualization"
)

// FileResponse is the API shape of a file record.
type FileResponse struct {
	ID        int64            `json:"id"`
	ProjectID int64            `json:"project_id"`
	Name      string           `json:"name"`
	FileType  string           `json:"file_type"`
	RowCount  int              `json:"row_count"`
	Columns   *ColumnsResponse `json:"columns,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ColumnsResponse is the API shape of ingested column metadata.
type ColumnsResponse struct {
	Names          []string          `json:"names,omitempty"`
	Types          map[string]string `json:"types,omitempty"`
	NumericColumns []string          `json:"numeric_columns,omitempty"`
	TextColumns    []string          `json:"text_columns,omitempty"`
	Error          string            `json:"error,omitempty"`
}

func fileToDTO(f dataset.File) FileResponse {
	resp := FileResponse{
		ID:        f.ID(),
		ProjectID: f.ProjectID(),
		Name:      f.Name(),
		FileType:  string(f.Type()),
		RowCount:  f.RowCount(),
		CreatedAt: f.CreatedAt(),
	}
	columns := f.Columns()
	if columns.IsPresent() || columns.Error() != "" {
		resp.Columns = &ColumnsResponse{
			Names:          columns.Names(),
			Types:          columns.Types(),
			NumericColumns: columns.NumericColumns(),
			TextColumns:    columns.TextColumns(),
			Error:          columns.Error(),
		}
	}
	return resp
}

func filesToDTO(files []dataset.File) []FileResponse {
	out := make([]FileResponse, len(files))
	for i, f := range files {
		out[i] = fileToDTO(f)
	}
	return out
}

// RowResponse is the API shape of one row.
type RowResponse struct {
	RowIndex int            `json:"row_index"`
	Values   map[string]any `json:"values"`
}

// RowListResponse is a page of rows.
type RowListResponse struct {
	Data  []RowResponse `json:"data"`
	Total int64         `json:"total"`
}

func rowsToDTO(rows []dataset.Row, total int64) RowListResponse {
	data := make([]RowResponse, len(rows))
	for i, row := range rows {
		values := make(map[string]any)
		for name, value := range row.Values() {
			values[name] = value.Interface()
		}
		data[i] = RowResponse{RowIndex: row.RowIndex(), Values: values}
	}
	return RowListResponse{Data: data, Total: total}
}

// PointResponse is the API shape of one visualization point.
type PointResponse struct {
	RowID      int64     `json:"row_id"`
	Method     string    `json:"method"`
	Dimensions int       `json:"dimensions"`
	Coordinate []float64 `json:"coordinate"`
	Cluster    int       `json:"cluster"`
}

// PointListResponse wraps a point set.
type PointListResponse struct {
	Data []PointResponse `json:"data"`
}

func pointsToDTO(points []visualization.Visualization) PointListResponse {
	data := make([]PointResponse, len(points))
	for i, p := range points {
		data[i] = PointResponse{
			RowID:      p.RowID(),
			Method:     string(p.Method()),
			Dimensions: p.Dimensions(),
			Coordinate: p.Coordinate(),
			Cluster:    p.Cluster(),
		}
	}
	return PointListResponse{Data: data}
}
