package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"go.uber.org/zap"
)

var (
	es    *elasticsearch.Client
	esErr error
	esOne sync.Once
)

// InitElasticsearch 初始化Elasticsearch连接
func InitElasticsearch(ctx context.Context, cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	esConfig := elasticsearch.Config{
		Addresses: cfg.URLs,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esConfig.Username = cfg.Username
		esConfig.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("连接elasticsearch失败: %w", err)
	}

	info, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %s", info.Status())
	}

	logger.Info("elasticsearch连接成功", zap.Strings("addresses", cfg.URLs))
	return client, nil
}

// GetES 获取Elasticsearch客户端实例，未启用时返回nil
func GetES() (*elasticsearch.Client, error) {
	cfg := config.GetConfig().Elasticsearch
	if !cfg.Enabled {
		return nil, nil
	}
	esOne.Do(func() {
		es, esErr = InitElasticsearch(context.Background(), &cfg)
	})
	return es, esErr
}
