package nodestore

import (
	"context"
	"sync"
)

// Store 是事件正文的对象存储。删除不存在的 id 不视为错误。
type Store interface {
	DeleteMulti(ctx context.Context, nodeIDs []string) error
}

// MemoryStore 在内存中保存节点，未配置 bucket 时使用。
type MemoryStore struct {
	mu    sync.Mutex
	nodes map[string][]byte
	calls int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string][]byte)}
}

// Put 写入节点。
func (m *MemoryStore) Put(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = data
}

// Has 判断节点是否存在。
func (m *MemoryStore) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok
}

// Len 返回节点数量。
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// Calls 返回 DeleteMulti 的调用次数。
func (m *MemoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryStore) DeleteMulti(ctx context.Context, nodeIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, id := range nodeIDs {
		delete(m.nodes, id)
	}
	return nil
}
