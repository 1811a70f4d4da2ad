// Package visualization provides domain types for reduced-coordinate points
// and the projection/clustering strategy contracts.
package visualization

import (
	"fmt"
	"time"
)

// Method is one of the closed set of reduction methods.
type Method string

// Method values.
const (
	MethodUMAP Method = "umap"
	MethodPCA  Method = "pca"
)

// IsValid reports whether the method is part of the closed set.
func (m Method) IsValid() bool {
	return m == MethodUMAP || m == MethodPCA
}

// Cluster label sentinels.
const (
	// ClusterUnassigned marks rows whose clustering failed or was unavailable.
	ClusterUnassigned = -1
	// ClusterSingle is applied to every row when there are too few points to
	// cluster meaningfully.
	ClusterSingle = 0
)

// Visualization is one reduced-coordinate point for one embedding under one
// method and dimensionality. For a given (file, method, dimensions) the point
// set enumerates in FileRow.row_index order.
type Visualization struct {
	id          int64
	fileID      int64
	embeddingID int64
	rowID       int64
	method      Method
	dimensions  int
	coordinate  []float64
	cluster     int
	createdAt   time.Time
}

// NewVisualization creates a Visualization pending persistence.
func NewVisualization(
	fileID, embeddingID, rowID int64,
	method Method,
	coordinate []float64,
	cluster int,
) Visualization {
	return Visualization{
		fileID:      fileID,
		embeddingID: embeddingID,
		rowID:       rowID,
		method:      method,
		dimensions:  len(coordinate),
		coordinate:  append([]float64(nil), coordinate...),
		cluster:     cluster,
	}
}

// ReconstructVisualization creates a Visualization with all fields (store layer).
func ReconstructVisualization(
	id, fileID, embeddingID, rowID int64,
	method Method,
	dimensions int,
	coordinate []float64,
	cluster int,
	createdAt time.Time,
) Visualization {
	return Visualization{
		id:          id,
		fileID:      fileID,
		embeddingID: embeddingID,
		rowID:       rowID,
		method:      method,
		dimensions:  dimensions,
		coordinate:  append([]float64(nil), coordinate...),
		cluster:     cluster,
		createdAt:   createdAt,
	}
}

// ID returns the visualization id.
func (v Visualization) ID() int64 { return v.id }

// FileID returns the owning file id.
func (v Visualization) FileID() int64 { return v.fileID }

// EmbeddingID returns the source embedding id.
func (v Visualization) EmbeddingID() int64 { return v.embeddingID }

// RowID returns the source row id.
func (v Visualization) RowID() int64 { return v.rowID }

// Method returns the reduction method.
func (v Visualization) Method() Method { return v.method }

// Dimensions returns the coordinate dimensionality (2 or 3).
func (v Visualization) Dimensions() int { return v.dimensions }

// Coordinate returns a copy of the reduced coordinate.
func (v Visualization) Coordinate() []float64 { return append([]float64(nil), v.coordinate...) }

// Cluster returns the cluster label (ClusterUnassigned when unavailable).
func (v Visualization) Cluster() int { return v.cluster }

// CreatedAt returns when the point was persisted.
func (v Visualization) CreatedAt() time.Time { return v.createdAt }

// Validate checks the internal invariants of the point.
func (v Visualization) Validate() error {
	if !v.method.IsValid() {
		return fmt.Errorf("unknown reduction method %q", v.method)
	}
	if v.dimensions != 2 && v.dimensions != 3 {
		return fmt.Errorf("dimensions must be 2 or 3, got %d", v.dimensions)
	}
	if len(v.coordinate) != v.dimensions {
		return fmt.Errorf("coordinate length %d does not match dimensions %d", len(v.coordinate), v.dimensions)
	}
	if v.embeddingID == 0 || v.rowID == 0 {
		return fmt.Errorf("visualization must reference an embedding and a row")
	}
	return nil
}
