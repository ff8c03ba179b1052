package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	rdb      *redis.Client
	redisErr error
	redisOne sync.Once
)

// InitRedis 初始化Redis连接
func InitRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接redis失败: %w", err)
	}

	logger.Info("redis连接成功", zap.String("addr", cfg.Addr()))
	return client, nil
}

// GetRedis 获取Redis客户端实例，未启用时返回nil
func GetRedis() (*redis.Client, error) {
	cfg := config.GetConfig().Redis
	if !cfg.Enabled {
		return nil, nil
	}
	redisOne.Do(func() {
		rdb, redisErr = InitRedis(context.Background(), &cfg)
	})
	return rdb, redisErr
}
