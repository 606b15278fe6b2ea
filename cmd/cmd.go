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

	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/controller"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/middleware"
	"github.com/realriphub/cmt-rr/internal/router"
	"github.com/realriphub/cmt-rr/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "cmt-rr",
	Short: "博客评论服务",
	Long:  `自托管的博客评论与访问统计服务，支持邮件通知与对象存储备份`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动评论服务的HTTP服务器`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	// 添加全局标志
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// startServer 启动HTTP服务
func startServer() {
	a := mustInit()
	defer a.close()

	// 设置Gin模式
	gin.SetMode(a.cfg.App.Mode)

	a.notifier.Start(a.cfg.Mail.Workers)

	sched := scheduler.New()
	if a.cfg.Backup.Enabled {
		if err := sched.AddBackup(a.cfg.Backup.Cron, a.backups); err != nil {
			logger.Fatal("注册定时备份失败", zap.Error(err))
		}
	}
	sched.Start()

	// 初始化路由
	r, err := initRouter(a)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 启动HTTP服务
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 优雅关闭
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("关闭服务...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务关闭异常", zap.Error(err))
	}
	if err := sched.Stop(ctx); err != nil {
		logger.Warn("等待定时任务结束超时", zap.Error(err))
	}
	// 评论已入库，剩余通知尽量发完
	if err := a.notifier.Shutdown(ctx); err != nil {
		logger.Warn("通知队列未完全排空", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// 初始化路由
func initRouter(a *app) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(a.cfg.App.TrustedProxies); err != nil {
		return nil, err
	}

	router.Setup(r, &router.Handlers{
		Comment:       controller.NewCommentApi(a.comments),
		AdminComment:  controller.NewAdminCommentApi(a.comments),
		Stats:         controller.NewStatsApi(a.stats),
		Visit:         controller.NewVisitApi(a.visits),
		Backup:        controller.NewBackupApi(a.backups),
		Setting:       controller.NewSettingApi(a.settings, a.cfg.Storage.S3),
		Auth:          controller.NewAuthApi(a.auth),
		Tokens:        a.tokens,
		VisitThrottle: middleware.NewIPThrottle(a.cfg.Visit.RatePerSecond, a.cfg.Visit.Burst),
		Cors:          a.cfg.App.Cors,
	})
	return r, nil
}
