package deletion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groupreaper/internal/domain"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/relational"
	"groupreaper/internal/store"
)

// recordingStore 记录每次访问的表，用于断言调用顺序和次数。
type recordingStore struct {
	store.Store
	mu  sync.Mutex
	ops []string
}

func (s *recordingStore) record(op, table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op+":"+table)
}

func (s *recordingStore) count(op, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.ops {
		if o == op+":"+table {
			n++
		}
	}
	return n
}

func (s *recordingStore) Filter(ctx context.Context, q store.Query) ([]store.Row, error) {
	s.record("filter", q.Table)
	return s.Store.Filter(ctx, q)
}

func (s *recordingStore) Delete(ctx context.Context, table string, where []store.Cond) (int64, error) {
	s.record("delete", table)
	return s.Store.Delete(ctx, table, where)
}

func (s *recordingStore) BulkUpdate(ctx context.Context, table string, where []store.Cond, values map[string]any) (int64, error) {
	s.record("update", table)
	return s.Store.BulkUpdate(ctx, table, where, values)
}

type countingEvents struct {
	eventstore.Store
	mu    sync.Mutex
	calls int
}

func (c *countingEvents) GetEvents(ctx context.Context, f eventstore.Filter, o eventstore.QueryOptions) ([]domain.Event, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Store.GetEvents(ctx, f, o)
}

type failingIndex struct {
	err   error
	calls int
}

func (f *failingIndex) Delete(context.Context, int64, int64) error {
	f.calls++
	return f.err
}

var errHook = errors.New("similarity unavailable")

func openDB(t *testing.T) *recordingStore {
	t.Helper()
	ctx := context.Background()
	db, err := relational.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))
	return &recordingStore{Store: db}
}

func insert(t *testing.T, db store.Store, table string, values map[string]any) int64 {
	t.Helper()
	id, err := db.Insert(context.Background(), table, values)
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, db store.Store, table string, where ...store.Cond) int {
	t.Helper()
	rows, err := db.Filter(context.Background(), store.Query{Table: table, Columns: []string{"id"}, Where: where})
	require.NoError(t, err)
	return len(rows)
}

func groupStatus(t *testing.T, db store.Store, id int64) (domain.GroupStatus, bool) {
	t.Helper()
	rows, err := db.Filter(context.Background(), store.Query{
		Table:   "issue_group",
		Columns: []string{"status"},
		Where:   []store.Cond{store.Eq("id", id)},
	})
	require.NoError(t, err)
	if len(rows) == 0 {
		return 0, false
	}
	n, err := rows[0].Int64("status")
	require.NoError(t, err)
	return domain.GroupStatus(n), true
}

// makeEvents 生成 n 个事件，时间戳只有 distinct 种取值以制造大量重复。
func makeEvents(projectID, groupID int64, n, distinct int) []domain.Event {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Event{
			ProjectID: projectID,
			GroupID:   groupID,
			EventID:   fmt.Sprintf("%032x", i),
			Timestamp: base.Add(time.Duration(i%distinct) * time.Second),
		})
	}
	return out
}
