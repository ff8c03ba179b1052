package service

import (
	"strings"
	"sync"

	"github.com/importcjj/sensitive"
	"github.com/nsxzhou1114/folio-api/internal/config"
	"go.uber.org/zap"
)

// SensitiveService 敏感词检测服务
type SensitiveService struct {
	mu     sync.RWMutex
	filter *sensitive.Filter
	logger *zap.SugaredLogger
}

// NewSensitiveService 按配置加载词库，词库文件缺失时只记录日志
func NewSensitiveService(cfg config.ModerationConfig, logger *zap.SugaredLogger) *SensitiveService {
	s := &SensitiveService{
		filter: sensitive.New(),
		logger: logger,
	}
	if cfg.DictPath != "" {
		if err := s.LoadWordDict(cfg.DictPath); err != nil {
			logger.Warnf("加载敏感词库失败: %v", err)
		}
	}
	s.AddWords(cfg.Words...)
	return s
}

// LoadWordDict 从文件加载敏感词，每行一个
func (s *SensitiveService) LoadWordDict(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.filter.LoadWordDict(path); err != nil {
		return err
	}
	s.logger.Infof("已加载敏感词库: %s", path)
	return nil
}

// AddWords 添加敏感词，统一小写
func (s *SensitiveService) AddWords(words ...string) {
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			normalized = append(normalized, w)
		}
	}
	if len(normalized) == 0 {
		return
	}
	s.mu.Lock()
	s.filter.AddWord(normalized...)
	s.mu.Unlock()
}

// Contains 文本是否命中敏感词，不区分大小写
func (s *SensitiveService) Contains(text string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, _ := s.filter.FindIn(strings.ToLower(text))
	return found
}

// FindAll 返回文本中命中的全部敏感词
func (s *SensitiveService) FindAll(text string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.FindAll(strings.ToLower(text))
}
