package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/database"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/auth"
	"github.com/realriphub/cmt-rr/pkg/cache"
	"github.com/realriphub/cmt-rr/pkg/content"
	"gorm.io/gorm"
)

// app 命令共用的依赖
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	cache cache.Cache

	settings *service.SettingService
	comments *service.CommentService
	notifier *service.NotificationService
	stats    *service.StatsService
	visits   *service.VisitService
	backups  *service.BackupService
	auth     *service.AuthService
	tokens   *auth.Manager
}

// initializeSystem 初始化系统
func initializeSystem() (*app, error) {
	// 初始化配置
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("配置初始化失败: %v", err)
	}
	cfg := config.GetConfig()

	// 初始化日志
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("日志初始化失败: %v", err)
	}

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := model.InitTables(db); err != nil {
		return nil, fmt.Errorf("初始化数据库表失败: %v", err)
	}

	// redis 未启用时使用进程内缓存
	c, err := cache.New(database.GetRedis())
	if err != nil {
		return nil, fmt.Errorf("缓存初始化失败: %v", err)
	}

	a := &app{cfg: cfg, db: db, cache: c}
	a.settings = service.NewSettingService(db, c)
	if err := a.settings.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("初始化配置表失败: %v", err)
	}

	var words *content.WordFilter
	if cfg.Comment.SensitiveWords != "" {
		words, err = content.LoadWordFilter(cfg.Comment.SensitiveWords)
		if err != nil {
			return nil, err
		}
		logger.Infof("已加载敏感词 %d 个", words.Len())
	}

	a.notifier = service.NewNotificationService(db, a.settings, service.NewMailDispatcher(cfg.Mail), cfg.Mail.QueueSize)
	a.comments = service.NewCommentService(db, service.CommentServiceOptions{
		Settings:      a.settings,
		Limiter:       service.NewRateLimiter(db, time.Duration(cfg.Comment.RateLimitSeconds)*time.Second),
		Sanitizer:     content.NewSanitizer(words),
		Notifier:      a.notifier,
		DefaultStatus: cfg.Comment.DefaultStatus,
	})
	a.stats = service.NewStatsService(db)
	a.visits = service.NewVisitService(db, c, time.Duration(cfg.Visit.DedupeSeconds)*time.Second)
	a.backups = service.NewBackupService(db, a.settings, cfg.Storage, cfg.Backup.Prefix)
	a.tokens = auth.NewManager(cfg.JWT.SecretKey, cfg.JWT.Issuer,
		time.Duration(cfg.JWT.ExpireSeconds)*time.Second, auth.NewCacheBlacklist(c))
	a.auth = service.NewAuthService(cfg.Admin, a.tokens)

	dto.RegisterValidators()
	return a, nil
}

// close 释放连接
func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		logger.Warnf("关闭缓存失败: %v", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}

// mustInit 命令行子命令使用，失败直接退出
func mustInit() *app {
	a, err := initializeSystem()
	if err != nil {
		exitf("系统初始化失败: %v", err)
	}
	return a
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}
