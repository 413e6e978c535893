package store

import (
	"context"
	"sync"

	"github.com/rushteam/recoserve/core"
)

// MemoryStore 是内存实现的 HashStore，用于测试/开发/原型，进程重启后数据丢失。
// HSet 只在这里提供，用于测试与本地 fixture 灌数。
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: make(map[string]map[string]string)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() error { return nil }

var _ core.HashStore = (*MemoryStore)(nil)

// HSet 写入 Hash 字段，已有字段被覆盖
func (m *MemoryStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyHash(key), nil
}

func (m *MemoryStore) BatchHGetAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.copyHash(k)
	}
	return out, nil
}

// copyHash 返回副本，调用方拿到的 bundle 与存储互不影响
func (m *MemoryStore) copyHash(key string) map[string]string {
	h := m.hashes[key]
	out := make(map[string]string, len(h))
	for f, v := range h {
		out[f] = v
	}
	return out
}
