package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 六段式表达式，秒在最前
//"0 */5 * * * *"     // 每隔5分钟
//"0 0 3 * * *"       // 每天凌晨3点

// NotificationCleaner 清理已读通知
type NotificationCleaner interface {
	CleanupRead(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler 定时任务
type Scheduler struct {
	cron          *cron.Cron
	notifications NotificationCleaner
	ttl           time.Duration
	timeout       time.Duration
	now           func() time.Time
	logger        *zap.SugaredLogger
}

// New 按配置注册定时任务，不会启动
func New(cfg config.CronConfig, notifications NotificationCleaner, logger *zap.SugaredLogger) (*Scheduler, error) {
	location := time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("加载时区失败: %w", err)
		}
		location = loc
	}

	days := cfg.ReadNotificationTTLDay
	if days <= 0 {
		days = 30
	}
	spec := cfg.CleanupSpec
	if spec == "" {
		spec = "0 0 3 * * *"
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		notifications: notifications,
		ttl:           time.Duration(days) * 24 * time.Hour,
		timeout:       time.Minute,
		now:           time.Now,
		logger:        logger,
	}
	if _, err := s.cron.AddFunc(spec, s.cleanupJob); err != nil {
		return nil, fmt.Errorf("注册通知清理任务失败: %w", err)
	}
	return s, nil
}

// Start 启动
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("定时任务已启动，共 %d 个", len(s.cron.Entries()))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}

// CleanupNotifications 删除早于保留期的已读通知
func (s *Scheduler) CleanupNotifications(ctx context.Context) (int64, error) {
	return s.notifications.CleanupRead(ctx, s.now().Add(-s.ttl))
}

func (s *Scheduler) cleanupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.CleanupNotifications(ctx); err != nil {
		s.logger.Errorw("清理已读通知失败", "error", err)
	}
}
