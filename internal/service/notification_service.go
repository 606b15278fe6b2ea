package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/content"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 通知队列默认参数
const (
	DefaultNotifyQueueSize = 256
	DefaultNotifyWorkers   = 2
	notifyJobTimeout       = 60 * time.Second
)

// NotificationJob 新评论通知任务
type NotificationJob struct {
	CommentID   uint
	ParentID    *uint
	PostTitle   string
	PostURL     string
	AuthorName  string
	AuthorEmail string
	ContentHTML string
}

// Notifier 通知投递接口，评论创建时调用
type Notifier interface {
	Enqueue(job NotificationJob) bool
}

// NotificationService 有界队列加固定数量的 worker 发送评论通知邮件
type NotificationService struct {
	db       *gorm.DB
	settings *SettingService
	mailer   Mailer
	queue    chan NotificationJob
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	logger   *zap.SugaredLogger
}

// NewNotificationService 创建通知服务，需调用 Start 启动 worker
func NewNotificationService(db *gorm.DB, settings *SettingService, mailer Mailer, queueSize int) *NotificationService {
	if queueSize <= 0 {
		queueSize = DefaultNotifyQueueSize
	}
	return &NotificationService{
		db:       db,
		settings: settings,
		mailer:   mailer,
		queue:    make(chan NotificationJob, queueSize),
		logger:   logger.GetSugaredLogger(),
	}
}

// Start 启动 worker
func (s *NotificationService) Start(workers int) {
	if workers <= 0 {
		workers = DefaultNotifyWorkers
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Infof("通知队列已启动，worker数量: %d", workers)
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()
	for job := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), notifyJobTimeout)
		if err := s.Handle(ctx, job); err != nil {
			s.logger.Errorw("发送评论通知失败", "worker", id, "comment_id", job.CommentID, "error", err)
		}
		cancel()
	}
}

// Enqueue 非阻塞投递，队列已满或已关闭时丢弃并返回 false
func (s *NotificationService) Enqueue(job NotificationJob) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warnw("通知队列已关闭，丢弃任务", "comment_id", job.CommentID)
		return false
	}
	select {
	case s.queue <- job:
		return true
	default:
		s.logger.Warnw("通知队列已满，丢弃任务", "comment_id", job.CommentID)
		return false
	}
}

// Shutdown 停止接收任务并等待队列中的任务处理完毕
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("通知队列已排空")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待通知队列排空超时: %w", ctx.Err())
	}
}

// Handle 处理单个通知任务：回复通知被回复者，根评论通知站长
func (s *NotificationService) Handle(ctx context.Context, job NotificationJob) error {
	settings, err := s.settings.EmailSettings(ctx)
	if err != nil {
		s.logger.Errorf("读取邮件配置失败，使用默认配置: %v", err)
		settings = &dto.EmailSettings{GlobalEnabled: true}
	}
	if !settings.GlobalEnabled {
		s.logger.Debugw("邮件通知已关闭", "comment_id", job.CommentID)
		return nil
	}

	if job.ParentID != nil {
		return s.notifyReply(ctx, job, settings.SMTP)
	}
	return s.notifyAdmin(ctx, job, settings.SMTP)
}

func (s *NotificationService) notifyReply(ctx context.Context, job NotificationJob, smtp dto.SMTPSettings) error {
	var parent model.Comment
	err := s.db.WithContext(ctx).
		Select("id", "name", "email", "content_html").
		Take(&parent, *job.ParentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询父评论失败: %w", err)
	}

	if parent.Email == "" || parent.Email == job.AuthorEmail {
		return nil
	}
	if !dto.IsValidEmail(parent.Email) {
		s.logger.Warnw("被回复者邮箱无效", "email", parent.Email)
		return nil
	}

	html, err := renderMail(replyMailTemplate, mailData{
		PostTitle:     job.PostTitle,
		PostURL:       job.PostURL,
		ToName:        parent.Name,
		AuthorName:    job.AuthorName,
		Content:       trustedHTML(job.ContentHTML),
		ParentContent: trustedHTML(parent.ContentHTML),
	})
	if err != nil {
		return err
	}

	s.logger.Infow("发送回复通知", "to", parent.Email, "excerpt", content.Excerpt(job.ContentHTML, 50))
	return s.mailer.Send(ctx, Mail{
		To:      []string{parent.Email},
		Subject: fmt.Sprintf("评论回复 - %s", job.PostTitle),
		HTML:    html,
	}, smtp)
}

func (s *NotificationService) notifyAdmin(ctx context.Context, job NotificationJob, smtp dto.SMTPSettings) error {
	to, err := s.settings.AdminNotifyEmail(ctx)
	if err != nil {
		return fmt.Errorf("读取站长邮箱失败: %w", err)
	}
	to = strings.TrimSpace(to)
	if to == "" || !dto.IsValidEmail(to) {
		s.logger.Warnw("未配置站长通知邮箱或格式不正确", "email", to)
		return nil
	}

	html, err := renderMail(adminMailTemplate, mailData{
		PostTitle:  job.PostTitle,
		PostURL:    job.PostURL,
		AuthorName: job.AuthorName,
		Content:    trustedHTML(job.ContentHTML),
	})
	if err != nil {
		return err
	}

	s.logger.Infow("发送站长通知", "to", to, "excerpt", content.Excerpt(job.ContentHTML, 50))
	return s.mailer.Send(ctx, Mail{
		To:      []string{to},
		Subject: fmt.Sprintf("新评论提醒 - %s", job.PostTitle),
		HTML:    html,
	}, smtp)
}
