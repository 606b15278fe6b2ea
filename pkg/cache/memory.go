package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCache 进程内 LRU 缓存，未启用 redis 时使用
type MemoryCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, memoryItem]
	now func() time.Time
}

// NewMemoryCache 创建容量为 size 的进程内缓存
func NewMemoryCache(size int) (*MemoryCache, error) {
	l, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: l, now: time.Now}, nil
}

func (m *MemoryCache) item(value string, expiration time.Duration) memoryItem {
	item := memoryItem{value: value}
	if expiration > 0 {
		item.expiresAt = m.now().Add(expiration)
	}
	return item
}

// Get 获取缓存
func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.lru.Get(key)
	if !ok {
		return "", ErrMiss
	}
	if item.expired(m.now()) {
		m.lru.Remove(key)
		return "", ErrMiss
	}
	return item.value, nil
}

// Set 设置缓存
func (m *MemoryCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, m.item(value, expiration))
	return nil
}

// SetNX 设置缓存（不存在时才设置）
func (m *MemoryCache) SetNX(_ context.Context, key string, value string, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.lru.Get(key); ok && !item.expired(m.now()) {
		return false, nil
	}
	m.lru.Add(key, m.item(value, expiration))
	return true, nil
}

// Delete 删除缓存
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.lru.Remove(key)
	}
	return nil
}

// Close 清空缓存
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
	return nil
}
