package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/vectorscope/vectorscope/domain/visualization"
)

// ExportFormat names a supported visualization export encoding.
type ExportFormat string

// ExportFormat values.
const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// Visualizations serves reduced-coordinate point sets and their exports.
type Visualizations struct {
	store  visualization.Store
	logger *slog.Logger
}

// NewVisualizations creates the visualizations service.
func NewVisualizations(store visualization.Store, logger *slog.Logger) *Visualizations {
	return &Visualizations{store: store, logger: logger}
}

// Find returns a file's points, optionally filtered by method and
// dimensions. Zero values mean no filter. Points enumerate in source row
// order per (method, dimensions) group.
func (s *Visualizations) Find(ctx context.Context, fileID int64, method visualization.Method, dimensions int) ([]visualization.Visualization, error) {
	if method != "" && !method.IsValid() {
		return nil, NewValidationError("method", fmt.Sprintf("unknown method %q", method))
	}
	if dimensions != 0 && dimensions != 2 && dimensions != 3 {
		return nil, NewValidationError("dimensions", "must be 2 or 3")
	}
	return s.store.FindByFile(ctx, fileID, method, dimensions)
}

// Export writes a file's points to w in the requested format.
func (s *Visualizations) Export(ctx context.Context, w io.Writer, fileID int64, method visualization.Method, dimensions int, format ExportFormat) error {
	points, err := s.Find(ctx, fileID, method, dimensions)
	if err != nil {
		return err
	}

	switch format {
	case ExportCSV:
		return exportCSV(w, points)
	case ExportJSON:
		return exportJSON(w, points)
	default:
		return NewValidationError("format", fmt.Sprintf("unknown export format %q", format))
	}
}

// exportPoint is the JSON shape of one exported point.
type exportPoint struct {
	RowID      int64     `json:"row_id"`
	Method     string    `json:"method"`
	Dimensions int       `json:"dimensions"`
	Coordinate []float64 `json:"coordinate"`
	Cluster    int       `json:"cluster"`
}

func exportJSON(w io.Writer, points []visualization.Visualization) error {
	out := make([]exportPoint, len(points))
	for i, p := range points {
		out[i] = exportPoint{
			RowID:      p.RowID(),
			Method:     string(p.Method()),
			Dimensions: p.Dimensions(),
			Coordinate: p.Coordinate(),
			Cluster:    p.Cluster(),
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func exportCSV(w io.Writer, points []visualization.Visualization) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row_id", "method", "dimensions", "x", "y", "z", "cluster"}); err != nil {
		return err
	}

	for _, p := range points {
		coordinate := p.Coordinate()
		record := []string{
			strconv.FormatInt(p.RowID(), 10),
			string(p.Method()),
			strconv.Itoa(p.Dimensions()),
			formatCoord(coordinate, 0),
			formatCoord(coordinate, 1),
			formatCoord(coordinate, 2),
			strconv.Itoa(p.Cluster()),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCoord(coordinate []float64, i int) string {
	if i >= len(coordinate) {
		return ""
	}
	return strconv.FormatFloat(coordinate[i], 'g', -1, 64)
}
