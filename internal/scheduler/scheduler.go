package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BackupUploader 导出并上传备份
type BackupUploader interface {
	Upload(ctx context.Context) (string, error)
}

// 单次备份任务的超时时间
const backupTimeout = 5 * time.Minute

// cronLogger 将 cron 内部日志接入 zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler 定时任务，表达式带秒字段，按 UTC 计算
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger
}

// New 创建调度器
func New() *Scheduler {
	log := logger.GetSugaredLogger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: log,
	}
}

// BackupJob 执行一次备份上传，失败只记录日志
func BackupJob(up BackupUploader, log *zap.SugaredLogger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
		defer cancel()

		start := time.Now()
		name, err := up.Upload(ctx)
		if err != nil {
			log.Errorf("定时备份失败: %v", err)
			return
		}
		log.Infow("定时备份完成", "file", name, "cost", time.Since(start))
	}
}

// AddBackup 注册定时备份任务
func (s *Scheduler) AddBackup(spec string, up BackupUploader) error {
	if _, err := s.cron.AddFunc(spec, BackupJob(up, s.logger)); err != nil {
		return fmt.Errorf("无效的备份计划 %q: %w", spec, err)
	}
	s.logger.Infow("已注册定时备份", "cron", spec)
	return nil
}

// Len 已注册的任务数
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
