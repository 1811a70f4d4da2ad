package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/domain/visualization"
)

func TestVisualizationStoreSaveAllAndFindOrdered(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rows := seedRows(t, NewRowStore(db), 1, 3)
	store := NewVisualizationStore(db)

	points := make([]visualization.Visualization, len(rows))
	for i, r := range rows {
		points[i] = visualization.NewVisualization(
			1, int64(i+1), r.ID(),
			visualization.MethodUMAP,
			[]float64{float64(i), float64(-i)},
			i,
		)
	}

	saved, err := store.SaveAll(ctx, points)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	got, err := store.FindByFile(ctx, 1, visualization.MethodUMAP, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, v := range got {
		assert.Equal(t, rows[i].ID(), v.RowID())
		assert.Equal(t, []float64{float64(i), float64(-i)}, v.Coordinate())
	}
}

// Cluster labels round-trip exactly, including label 0. Small files label
// every row visualization.ClusterSingle and the first k-means cluster is 0,
// so the column must not rewrite zeroes.
func TestVisualizationStoreClusterLabelRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rows := seedRows(t, NewRowStore(db), 1, 3)
	store := NewVisualizationStore(db)

	labels := []int{visualization.ClusterSingle, 4, visualization.ClusterUnassigned}
	points := make([]visualization.Visualization, len(rows))
	for i, r := range rows {
		points[i] = visualization.NewVisualization(
			1, int64(i+1), r.ID(),
			visualization.MethodPCA,
			[]float64{float64(i), 0},
			labels[i],
		)
	}

	_, err := store.SaveAll(ctx, points)
	require.NoError(t, err)

	got, err := store.FindByFile(ctx, 1, visualization.MethodPCA, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, v := range got {
		assert.Equal(t, labels[i], v.Cluster(), "row %d", i)
	}
}

func TestVisualizationStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rows := seedRows(t, NewRowStore(db), 1, 2)
	store := NewVisualizationStore(db)

	first := []visualization.Visualization{
		visualization.NewVisualization(1, 1, rows[0].ID(), visualization.MethodUMAP, []float64{1, 1}, 0),
		visualization.NewVisualization(1, 2, rows[1].ID(), visualization.MethodUMAP, []float64{2, 2}, 1),
	}
	_, err := store.SaveAll(ctx, first)
	require.NoError(t, err)

	second := []visualization.Visualization{
		visualization.NewVisualization(1, 1, rows[0].ID(), visualization.MethodUMAP, []float64{9, 9}, 2),
		visualization.NewVisualization(1, 2, rows[1].ID(), visualization.MethodUMAP, []float64{8, 8}, 0),
	}
	_, err = store.SaveAll(ctx, second)
	require.NoError(t, err)

	got, err := store.FindByFile(ctx, 1, visualization.MethodUMAP, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{9, 9}, got[0].Coordinate())
	assert.Equal(t, 2, got[0].Cluster())
	assert.Equal(t, []float64{8, 8}, got[1].Coordinate())
	assert.Equal(t, 0, got[1].Cluster())
}
