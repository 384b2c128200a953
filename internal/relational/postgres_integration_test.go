//go:build integration

package relational

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"groupreaper/internal/store"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("reaper"),
		postgres.WithUsername("reaper"),
		postgres.WithPassword("reaper"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := ConnectPostgres(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestPostgresCRUD(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)

	groupID, err := db.Insert(ctx, "issue_group", map[string]any{"project_id": int64(1), "status": 0})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := db.Insert(ctx, "group_bookmark", map[string]any{"group_id": groupID})
		require.NoError(t, err)
	}

	rows, err := db.Filter(ctx, store.Query{
		Table:   "group_bookmark",
		Columns: []string{"id"},
		Where:   []store.Cond{store.Eq("group_id", groupID)},
		OrderBy: []string{"id"},
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	ids := make([]int64, 0, 3)
	for _, r := range rows {
		id, err := r.Int64("id")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	n, err := db.Delete(ctx, "group_bookmark", []store.Cond{store.In("id", ids)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = db.BulkUpdate(ctx, "issue_group",
		[]store.Cond{store.Eq("id", groupID), store.Ne("status", 4)},
		map[string]any{"status": 4})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.EnsureSchema(ctx))
}
