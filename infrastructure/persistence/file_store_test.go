package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/internal/database"
)

// newTestDB creates a migrated in-memory SQLite database for testing.
// Cannot use the testdb package here due to import cycle (testdb imports
// persistence).
func newTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFileStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(newTestDB(t))

	saved, err := store.Save(ctx, dataset.NewFile(7, 42, "animals.csv", "/data/animals.csv", dataset.FileTypeCSV, 3))
	require.NoError(t, err)
	require.NotZero(t, saved.ID())

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "animals.csv", got.Name())
	assert.Equal(t, int64(7), got.ProjectID())
	assert.Equal(t, int64(42), got.UserID())
	assert.Equal(t, dataset.FileTypeCSV, got.Type())
	assert.Equal(t, 3, got.RowCount())
	assert.False(t, got.Columns().IsPresent())
}

func TestFileStoreGetNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(newTestDB(t))

	_, err := store.Get(ctx, 999)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestFileStoreGetOwnedEnforcesTenancy(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(newTestDB(t))

	saved, err := store.Save(ctx, dataset.NewFile(1, 42, "a.csv", "/data/a.csv", dataset.FileTypeCSV, 1))
	require.NoError(t, err)

	_, err = store.GetOwned(ctx, saved.ID(), 42)
	require.NoError(t, err)

	_, err = store.GetOwned(ctx, saved.ID(), 43)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestFileStoreUpdateColumns(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(newTestDB(t))

	saved, err := store.Save(ctx, dataset.NewFile(1, 1, "a.csv", "/data/a.csv", dataset.FileTypeCSV, 2))
	require.NoError(t, err)

	columns := dataset.NewColumnMetadata(
		[]string{"name", "age"},
		map[string]string{"name": "string", "age": "number"},
		[]string{"age"},
		[]string{"name"},
	)
	require.NoError(t, store.UpdateColumns(ctx, saved.ID(), columns))

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	require.True(t, got.Columns().IsPresent())
	assert.Equal(t, []string{"name", "age"}, got.Columns().Names())
	assert.Equal(t, []string{"age"}, got.Columns().NumericColumns())
	assert.True(t, got.Columns().HasColumn("name"))
}

func TestFileStoreUpdateColumnsError(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(newTestDB(t))

	saved, err := store.Save(ctx, dataset.NewFile(1, 1, "broken.csv", "/data/broken.csv", dataset.FileTypeCSV, 0))
	require.NoError(t, err)

	require.NoError(t, store.UpdateColumns(ctx, saved.ID(), dataset.NewColumnMetadataError("malformed header")))

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	assert.False(t, got.Columns().IsPresent())
	assert.Equal(t, "malformed header", got.Columns().Error())
}

func TestRowStoreRoundTripOrdered(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	files := NewFileStore(db)
	rowStore := NewRowStore(db)

	file, err := files.Save(ctx, dataset.NewFile(1, 1, "a.csv", "/data/a.csv", dataset.FileTypeCSV, 3))
	require.NoError(t, err)

	columns := []string{"name", "score", "active"}
	// Insert out of order to verify row_index ordering on read.
	rows := []dataset.Row{
		dataset.NewRow(file.ID(), 2, columns, map[string]dataset.Value{
			"name":   dataset.StringValue("carol"),
			"score":  dataset.NumberValue(3.5),
			"active": dataset.BoolValue(false),
		}),
		dataset.NewRow(file.ID(), 0, columns, map[string]dataset.Value{
			"name":   dataset.StringValue("alice"),
			"score":  dataset.NumberValue(1),
			"active": dataset.BoolValue(true),
		}),
		dataset.NewRow(file.ID(), 1, columns, map[string]dataset.Value{
			"name":   dataset.StringValue("bob"),
			"score":  dataset.NullValue(),
			"active": dataset.BoolValue(true),
		}),
	}

	_, err = rowStore.SaveAll(ctx, rows)
	require.NoError(t, err)

	got, err := rowStore.FindByFile(ctx, file.ID())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].RowIndex())
	assert.Equal(t, 1, got[1].RowIndex())
	assert.Equal(t, 2, got[2].RowIndex())
	assert.Equal(t, columns, got[0].Columns())

	name, ok := got[0].Value("name")
	require.True(t, ok)
	assert.Equal(t, "alice", name.String())

	score, ok := got[1].Value("score")
	require.True(t, ok)
	assert.Equal(t, dataset.ValueNull, score.Kind())

	count, err := rowStore.CountByFile(ctx, file.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRowStoreFindPage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rowStore := NewRowStore(db)

	columns := []string{"v"}
	rows := make([]dataset.Row, 5)
	for i := range rows {
		rows[i] = dataset.NewRow(1, i, columns, map[string]dataset.Value{
			"v": dataset.NumberValue(float64(i)),
		})
	}
	_, err := rowStore.SaveAll(ctx, rows)
	require.NoError(t, err)

	page, err := rowStore.FindPage(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].RowIndex())
	assert.Equal(t, 3, page[1].RowIndex())
}
