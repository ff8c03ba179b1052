package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache: 未命中")

// Cache 缓存接口
type Cache interface {
	// GetJSON 获取JSON格式的缓存并反序列化，未命中返回 ErrMiss
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON 序列化为JSON并设置缓存
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error
}

// 缓存键
const (
	TagCloudKey     = "folio:tag:cloud"
	PopularTagsKey  = "folio:tag:popular"
	TagCloudExpires = 10 * time.Minute
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

// MemoryCache 进程内缓存，未启用Redis时使用
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem)}
}

// GetJSON 获取缓存
func (m *MemoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || (!item.expireAt.IsZero() && time.Now().After(item.expireAt)) {
		return ErrMiss
	}
	return json.Unmarshal(item.data, dest)
}

// SetJSON 设置缓存
func (m *MemoryCache) SetJSON(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	item := memoryItem{data: data}
	if expiration > 0 {
		item.expireAt = time.Now().Add(expiration)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Delete 删除缓存
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
