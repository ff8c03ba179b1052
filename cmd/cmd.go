package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/database"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/router"
	"github.com/nsxzhou1114/folio-api/internal/scheduler"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/nsxzhou1114/folio-api/pkg/cache"
	"github.com/nsxzhou1114/folio-api/pkg/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "folio-api",
	Short: "Folio API服务",
	Long:  `图书目录与博客社区API服务，支持图书馆藏管理、文章发布、评论、关注与通知`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// app 运行时依赖
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	redis    *redis.Client
	es       *elasticsearch.Client
	services *service.Services
	tokens   *auth.Manager
	log      *zap.SugaredLogger
}

// bootstrap 初始化配置、日志、存储和服务
func bootstrap(ctx context.Context) (*app, error) {
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("配置初始化失败: %w", err)
	}
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("日志初始化失败: %w", err)
	}
	cfg := config.GetConfig()
	if err := snowflake.Init(cfg.Snowflake.StartTime, cfg.Snowflake.MachineID); err != nil {
		return nil, fmt.Errorf("雪花算法初始化失败: %w", err)
	}

	a := &app{cfg: cfg, log: logger.GetSugaredLogger()}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := model.InitTables(db); err != nil {
		return nil, err
	}

	opts := service.Options{Logger: a.log, Moderation: cfg.Moderation}
	var blacklist auth.BlacklistInterface

	rdb, err := database.GetRedis()
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.redis = rdb
		opts.Cache = cache.NewRedisCache(rdb)
		if cfg.JWT.Blacklist == "redis" {
			blacklist = auth.NewRedisTokenBlacklist(rdb, a.log)
		}
	}

	es, err := database.GetES()
	if err != nil {
		return nil, err
	}
	if es != nil {
		a.es = es
		if err := model.InitESIndices(ctx, es, model.NewESPost(cfg.Elasticsearch.Index)); err != nil {
			return nil, fmt.Errorf("初始化Elasticsearch索引失败: %w", err)
		}
		opts.Indexer = service.NewESPostIndexer(es, cfg.Elasticsearch.Index, a.log)
	}

	a.services = service.New(db, opts)
	a.tokens = auth.NewManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Expire(), blacklist)
	return a, nil
}

// close 释放连接
func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = logger.Sync()
}

// startServer 启动HTTP服务
func startServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("系统初始化失败: %w", err)
	}
	defer a.close()

	gin.SetMode(a.cfg.App.Mode)
	r := router.New(router.Deps{
		DB:       a.db,
		Services: a.services,
		Tokens:   a.tokens,
		Config:   a.cfg,
		Logger:   a.log,
	})

	var sched *scheduler.Scheduler
	if a.cfg.Cron.Enabled {
		sched, err = scheduler.New(a.cfg.Cron, a.services.Notifications, a.log)
		if err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP服务启动失败: %w", err)
	case <-ctx.Done():
	}
	logger.Info("关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务关闭异常: %w", err)
	}
	logger.Info("服务已关闭")
	return nil
}
