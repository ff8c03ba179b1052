package auth

import "time"

// BlacklistInterface 黑名单接口
type BlacklistInterface interface {
	// AddToBlacklist 将令牌ID加入黑名单直至过期
	AddToBlacklist(tokenID string, expireAt time.Time) error

	// IsBlacklisted 检查令牌ID是否在黑名单中
	IsBlacklisted(tokenID string) bool
}

// BlacklistType 黑名单类型
type BlacklistType string

const (
	// MemoryBlacklist 内存黑名单
	MemoryBlacklist BlacklistType = "memory"
	// RedisBlacklist Redis黑名单
	RedisBlacklist BlacklistType = "redis"
)
