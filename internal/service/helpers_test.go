package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/cache"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.InitTables(db))
	return db
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	mem, err := cache.NewMemoryCache(128)
	require.NoError(t, err)
	return mem
}

func newTestSettings(t *testing.T, db *gorm.DB) *SettingService {
	t.Helper()
	return NewSettingService(db, newTestCache(t))
}

func uintPtr(v uint) *uint { return &v }

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

// recordingNotifier 记录投递的通知任务
type recordingNotifier struct {
	mu   sync.Mutex
	jobs []NotificationJob
}

func (n *recordingNotifier) Enqueue(job NotificationJob) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
	return true
}

func (n *recordingNotifier) Jobs() []NotificationJob {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotificationJob(nil), n.jobs...)
}

// fakeMailer 记录发送的邮件
type fakeMailer struct {
	mu    sync.Mutex
	sent  []Mail
	smtps []dto.SMTPSettings
	err   error
}

func (m *fakeMailer) Send(_ context.Context, mail Mail, smtp dto.SMTPSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	m.smtps = append(m.smtps, smtp)
	return m.err
}

func (m *fakeMailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

func insertComment(t *testing.T, db *gorm.DB, c model.Comment) model.Comment {
	t.Helper()
	if c.Status == "" {
		c.Status = model.CommentStatusApproved
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}
