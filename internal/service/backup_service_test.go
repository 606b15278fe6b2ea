package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryStore 内存对象存储
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return body, nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]objectstore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]objectstore.Object, 0)
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			list = append(list, objectstore.Object{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key > list[j].Key })
	return list, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type backupFixture struct {
	db       *gorm.DB
	svc      *BackupService
	settings *SettingService
	store    *memoryStore
	now      time.Time
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	db := newTestDB(t)
	settings := newTestSettings(t, db)
	store := newMemoryStore()
	now := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

	svc := NewBackupService(db, settings, config.StorageConfig{Type: "s3"}, "")
	svc.now = func() time.Time { return now }
	svc.newStore = func(context.Context) (objectstore.Store, error) { return store, nil }

	return &backupFixture{db: db, svc: svc, settings: settings, store: store, now: now}
}

func countComments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Comment{}).Count(&n).Error)
	return n
}

func TestBackupServiceExport(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"comments":[]`)
	assert.Contains(t, string(raw), `"likes":[]`)

	insertComment(t, f.db, model.Comment{Created: 1, PostSlug: "/p", Name: "a", Email: "a@x.io", Status: model.CommentStatusPending})
	require.NoError(t, f.settings.Set(ctx, KeyAdminNotifyEmail, "admin@x.io"))

	doc, err := f.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.BackupVersion, doc.Version)
	assert.Equal(t, f.now.UnixMilli(), doc.Timestamp)
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, model.CommentStatusPending, doc.Comments[0].Status)
	require.Len(t, doc.Settings, 1)
	assert.Equal(t, "admin@x.io", doc.Settings[0].Value)
}

func TestNormalizeImportComment(t *testing.T) {
	now := int64(1_700_000_000_000)

	c := normalizeImportComment(dto.ImportComment{
		PostSlug:    "/p",
		ContentHTML: "<p><strong>hi</strong></p>",
		ParentID:    uintPtr(0),
		Likes:       "3",
	}, now)
	assert.Equal(t, anonymousName, c.Name)
	assert.Equal(t, model.CommentStatusApproved, c.Status)
	assert.Equal(t, now, c.Created)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, int64(0), c.Likes)
	assert.Equal(t, "**hi**", c.ContentText)

	c = normalizeImportComment(dto.ImportComment{
		ID:          uintPtr(7),
		Created:     int64Ptr(42),
		Name:        "bob",
		Status:      model.CommentStatusRejected,
		ContentText: "kept",
		ContentHTML: "<p>other</p>",
		Likes:       float64(5),
		SiteID:      strPtr("blog"),
	}, now)
	assert.Equal(t, uint(7), c.ID)
	assert.Equal(t, int64(42), c.Created)
	assert.Equal(t, "kept", c.ContentText)
	assert.Equal(t, int64(5), c.Likes)
	assert.Equal(t, "blog", c.SiteID)
}

func TestNormalizeLikes(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{in: nil, want: 0},
		{in: float64(3), want: 3},
		{in: float64(-2), want: 0},
		{in: "10", want: 0},
		{in: true, want: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeLikes(tt.in))
		})
	}
}

func TestBackupServiceImport(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	var doc dto.ImportDocument
	require.NoError(t, json.Unmarshal([]byte(`{
		"comments": [
			{"id": 5, "created": 100, "post_slug": "/p", "name": "a", "email": "a@x.io", "likes": -3},
			{"id": 6, "created": 200, "post_slug": "/p", "name": "b", "email": "b@x.io", "parent_id": 5, "status": "pending", "likes": 4}
		],
		"settings": [{"key": "admin_notify_email", "value": "admin@x.io"}],
		"page_stats": [{"id": 99, "post_slug": "/p", "pv": 12}],
		"page_visit_daily": [{"date": "2024-03-14", "domain": "blog.test", "count": 4}],
		"likes": [{"page_slug": "/p", "user_id": "v1"}]
	}`), &doc))

	result, err := f.svc.Import(ctx, &doc)
	require.NoError(t, err)
	assert.Equal(t, "Import finished: comments 2; settings 1; stats 3", result.Message)
	assert.Equal(t, 2, result.Comments)
	assert.Equal(t, 1, result.PageStats)

	// 再次导入结果不变
	_, err = f.svc.Import(ctx, &doc)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countComments(t, f.db))

	var reply model.Comment
	require.NoError(t, f.db.First(&reply, 6).Error)
	assert.Equal(t, model.CommentStatusPending, reply.Status)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, uint(5), *reply.ParentID)
	assert.Equal(t, int64(4), reply.Likes)

	var first model.Comment
	require.NoError(t, f.db.First(&first, 5).Error)
	assert.Equal(t, int64(0), first.Likes)

	email, err := f.settings.AdminNotifyEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@x.io", email)

	var pages []model.PageStat
	require.NoError(t, f.db.Find(&pages).Error)
	require.Len(t, pages, 1)
	assert.Equal(t, int64(12), pages[0].PV)

	var likes int64
	require.NoError(t, f.db.Model(&model.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)

	var daily model.PageVisitDaily
	require.NoError(t, f.db.Take(&daily).Error)
	assert.Equal(t, int64(4), daily.Count)
}

func TestBackupServiceImportBatches(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	rows := make([]dto.ImportComment, 0, 2*ImportBatchSize+7)
	for i := 0; i < cap(rows); i++ {
		rows = append(rows, dto.ImportComment{PostSlug: "/bulk", Email: "x@x.io", ContentText: fmt.Sprint(i)})
	}
	result, err := f.svc.Import(ctx, &dto.ImportDocument{Comments: rows})
	require.NoError(t, err)
	assert.Equal(t, len(rows), result.Comments)
	assert.Equal(t, int64(len(rows)), countComments(t, f.db))

	var sample model.Comment
	require.NoError(t, f.db.Where("content_text = ?", "0").Take(&sample).Error)
	assert.Equal(t, anonymousName, sample.Name)
	assert.Equal(t, f.now.UnixMilli(), sample.Created)
}

func TestBackupServiceImportPartialFailure(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Exec(`CREATE TRIGGER reject_row BEFORE INSERT ON "Comment"
		WHEN NEW.content_text = 'reject'
		BEGIN SELECT RAISE(ABORT, 'row rejected'); END`).Error)

	rows := make([]dto.ImportComment, 0, 120)
	for i := 0; i < cap(rows); i++ {
		rows = append(rows, dto.ImportComment{PostSlug: "/bulk", Email: "x@x.io", ContentText: fmt.Sprint(i)})
	}
	rows[74].ContentText = "reject"

	result, err := f.svc.Import(ctx, &dto.ImportDocument{Comments: rows})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "导入第2批评论失败")

	assert.Equal(t, int64(ImportBatchSize), countComments(t, f.db))
	var n int64
	require.NoError(t, f.db.Model(&model.Comment{}).Where("content_text IN ?", []string{"49", "50", "73", "75"}).Count(&n).Error)
	assert.Equal(t, int64(1), n, "only row 49 from the first batch is kept")
}

func TestBackupServiceImportEmpty(t *testing.T) {
	f := newBackupFixture(t)
	result, err := f.svc.Import(context.Background(), &dto.ImportDocument{})
	require.NoError(t, err)
	assert.Equal(t, "Import finished", result.Message)
}

func TestBackupServiceStore(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()
	insertComment(t, f.db, model.Comment{Created: 1, PostSlug: "/p", Name: "a", Email: "a@x.io"})

	name, err := f.svc.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("cwd-backup-2024-03-15-%d.json", f.now.UnixMilli()), name)

	files, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, name, files[0].Key)

	body, err := f.svc.Download(ctx, name)
	require.NoError(t, err)
	var doc dto.BackupDocument
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Len(t, doc.Comments, 1)

	var ve *ValidationError
	_, err = f.svc.Download(ctx, "")
	assert.ErrorAs(t, err, &ve)
	assert.ErrorAs(t, f.svc.Delete(ctx, " "), &ve)

	require.NoError(t, f.store.Put(ctx, "other/secret.json", []byte("{}"), "application/json"))
	for _, key := range []string{"other/secret.json", "cwd-backup-", "cwd-backup-../secret.json", "cwd-backup-x/y.json", "secret.json"} {
		_, err = f.svc.Download(ctx, key)
		require.ErrorAs(t, err, &ve, key)
		assert.Equal(t, "invalid backup key", ve.Error())
		assert.ErrorAs(t, f.svc.Delete(ctx, key), &ve, key)
	}
	_, err = f.store.Get(ctx, "other/secret.json")
	assert.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, name))
	files, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestBackupServiceNotConfigured(t *testing.T) {
	db := newTestDB(t)
	svc := NewBackupService(db, newTestSettings(t, db), config.StorageConfig{Type: "s3"}, "")
	ctx := context.Background()

	_, err := svc.Upload(ctx)
	assert.ErrorIs(t, err, ErrS3NotConfigured)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, ErrS3NotConfigured)

	cos := NewBackupService(db, newTestSettings(t, db), config.StorageConfig{Type: "cos"}, "")
	_, err = cos.Store(ctx)
	assert.ErrorIs(t, err, ErrS3NotConfigured)
}
