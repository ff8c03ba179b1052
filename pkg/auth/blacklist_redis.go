package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	blacklistKeyPrefix = "jwt:blacklist:"
	maxLocalCacheSize  = 10000
	redisTimeout       = 2 * time.Second
)

// RedisTokenBlacklist Redis令牌黑名单，带本地缓存
type RedisTokenBlacklist struct {
	redis      *redis.Client
	logger     *zap.SugaredLogger
	localCache map[string]time.Time
	mutex      sync.RWMutex
}

// NewRedisTokenBlacklist 创建Redis黑名单
func NewRedisTokenBlacklist(client *redis.Client, logger *zap.SugaredLogger) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		redis:      client,
		logger:     logger,
		localCache: make(map[string]time.Time),
	}
}

// AddToBlacklist 将令牌添加到黑名单
func (b *RedisTokenBlacklist) AddToBlacklist(tokenID string, expireAt time.Time) error {
	duration := time.Until(expireAt)
	if duration <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := b.redis.Set(ctx, blacklistKeyPrefix+tokenID, "1", duration).Err(); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(b.localCache) >= maxLocalCacheSize {
		b.cleanupLocalCacheUnsafe()
	}
	b.localCache[tokenID] = expireAt
	return nil
}

// IsBlacklisted 检查令牌是否在黑名单中
func (b *RedisTokenBlacklist) IsBlacklisted(tokenID string) bool {
	b.mutex.RLock()
	expireAt, exists := b.localCache[tokenID]
	b.mutex.RUnlock()
	if exists && time.Now().Before(expireAt) {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	ttl, err := b.redis.TTL(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		b.logger.Errorf("检查Redis黑名单失败: %v", err)
		return false
	}
	if ttl <= 0 {
		return false
	}

	b.mutex.Lock()
	b.localCache[tokenID] = time.Now().Add(ttl)
	b.mutex.Unlock()
	return true
}

// cleanupLocalCacheUnsafe 清理本地缓存中的过期令牌（调用方持锁）
func (b *RedisTokenBlacklist) cleanupLocalCacheUnsafe() {
	now := time.Now()
	for token, expireAt := range b.localCache {
		if now.After(expireAt) {
			delete(b.localCache, token)
		}
	}
}
