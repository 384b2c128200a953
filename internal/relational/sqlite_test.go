package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupreaper/internal/store"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestSQLiteEnsureSchemaIsIdempotent(t *testing.T) {
	db := openTestSQLite(t)
	require.NoError(t, db.EnsureSchema(context.Background()))
}

func TestSQLiteCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	groupID, err := db.Insert(ctx, "issue_group", map[string]any{"project_id": int64(3), "status": 0, "title": "boom"})
	require.NoError(t, err)
	require.Positive(t, groupID)

	for i := 0; i < 5; i++ {
		_, err := db.Insert(ctx, "group_hash", map[string]any{"group_id": groupID, "project_id": int64(3)})
		require.NoError(t, err)
	}
	_, err = db.Insert(ctx, "group_hash", map[string]any{"group_id": groupID + 100})
	require.NoError(t, err)

	rows, err := db.Filter(ctx, store.Query{
		Table:   "group_hash",
		Columns: []string{"id"},
		Where:   []store.Cond{store.Eq("group_id", groupID)},
		OrderBy: []string{"id"},
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		id, err := r.Int64("id")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.True(t, ids[0] < ids[1] && ids[1] < ids[2])

	n, err := db.Delete(ctx, "group_hash", []store.Cond{store.In("id", ids)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// 重复删除同一批 id 是无害的
	n, err = db.Delete(ctx, "group_hash", []store.Cond{store.In("id", ids)})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	rest, err := db.Filter(ctx, store.Query{Table: "group_hash", Where: []store.Cond{store.Eq("group_id", groupID)}})
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	n, err = db.BulkUpdate(ctx, "issue_group",
		[]store.Cond{store.In("id", []int64{groupID}), store.Ne("status", 4)},
		map[string]any{"status": 4})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = db.BulkUpdate(ctx, "issue_group",
		[]store.Cond{store.In("id", []int64{groupID}), store.Ne("status", 4)},
		map[string]any{"status": 4})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "already in progress rows are excluded")

	groups, err := db.Filter(ctx, store.Query{Table: "issue_group", Where: []store.Cond{store.Eq("id", groupID)}})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	status, err := groups[0].Int64("status")
	require.NoError(t, err)
	assert.EqualValues(t, 4, status)
	assert.Equal(t, "boom", groups[0].String("title"))
}

func TestSQLiteBoolColumns(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	id, err := db.Insert(ctx, "scheduled_deletion", map[string]any{
		"guid":           "g-1",
		"root_kind":      "issue_group",
		"object_id":      int64(1),
		"date_added":     int64(10),
		"date_scheduled": int64(10),
		"in_progress":    false,
	})
	require.NoError(t, err)

	n, err := db.BulkUpdate(ctx, "scheduled_deletion",
		[]store.Cond{store.Eq("id", id), store.Eq("in_progress", false)},
		map[string]any{"in_progress": true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := db.Filter(ctx, store.Query{Table: "scheduled_deletion", Where: []store.Cond{store.Eq("id", id)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Bool("in_progress"))
	assert.False(t, rows[0].Bool("failed"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	_, err = Open(context.Background(), Config{Driver: DriverSQLite})
	require.Error(t, err)
}
