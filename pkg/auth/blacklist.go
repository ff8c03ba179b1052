package auth

import (
	"sync"
	"time"
)

// TokenBlacklist 内存令牌黑名单
type TokenBlacklist struct {
	tokens map[string]time.Time // 令牌ID->过期时间
	mutex  sync.RWMutex
	stop   chan struct{}
	once   sync.Once
}

// NewTokenBlacklist 创建内存黑名单并启动定期清理
func NewTokenBlacklist(cleanupInterval time.Duration) *TokenBlacklist {
	b := &TokenBlacklist{
		tokens: make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go b.cleanupTask(cleanupInterval)
	}
	return b
}

// AddToBlacklist 将令牌添加到黑名单
func (b *TokenBlacklist) AddToBlacklist(tokenID string, expireAt time.Time) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.tokens[tokenID] = expireAt
	return nil
}

// IsBlacklisted 检查令牌是否在黑名单中
func (b *TokenBlacklist) IsBlacklisted(tokenID string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	expireAt, exists := b.tokens[tokenID]
	return exists && time.Now().Before(expireAt)
}

// Stop 停止清理任务
func (b *TokenBlacklist) Stop() {
	b.once.Do(func() { close(b.stop) })
}

func (b *TokenBlacklist) cleanupTask(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cleanup()
		case <-b.stop:
			return
		}
	}
}

// cleanup 清理过期的令牌
func (b *TokenBlacklist) cleanup() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := time.Now()
	for token, expireAt := range b.tokens {
		if now.After(expireAt) {
			delete(b.tokens, token)
		}
	}
}

// Len 当前黑名单条目数
func (b *TokenBlacklist) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.tokens)
}
