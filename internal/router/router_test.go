package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/controller"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/middleware"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/auth"
	"github.com/realriphub/cmt-rr/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	r        *gin.Engine
	db       *gorm.DB
	settings *service.SettingService
	token    string
}

// nopNotifier 丢弃通知任务
type nopNotifier struct{}

func (nopNotifier) Enqueue(service.NotificationJob) bool { return true }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dto.RegisterValidators()

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

	mem, err := cache.NewMemoryCache(256)
	require.NoError(t, err)

	settings := service.NewSettingService(db, mem)
	comments := service.NewCommentService(db, service.CommentServiceOptions{
		Settings: settings,
		Limiter:  service.NewRateLimiter(db, 10*time.Second),
		Notifier: nopNotifier{},
	})
	tokens := auth.NewManager("test-secret", "test", time.Hour, auth.NewCacheBlacklist(mem))

	hash, err := service.HashPassword("s3cret")
	require.NoError(t, err)

	r := gin.New()
	Setup(r, &Handlers{
		Comment:       controller.NewCommentApi(comments),
		AdminComment:  controller.NewAdminCommentApi(comments),
		Stats:         controller.NewStatsApi(service.NewStatsService(db)),
		Visit:         controller.NewVisitApi(service.NewVisitService(db, mem, 0)),
		Backup:        controller.NewBackupApi(service.NewBackupService(db, settings, config.StorageConfig{}, "")),
		Setting:       controller.NewSettingApi(settings, config.S3Storage{Region: "auto"}),
		Auth:          controller.NewAuthApi(service.NewAuthService(config.AdminConfig{Username: "admin", PasswordHash: hash}, tokens)),
		Tokens:        tokens,
		VisitThrottle: middleware.NewIPThrottle(100, 100),
		Cors:          config.CorsConfig{AllowOrigins: []string{"*"}},
	})

	env := &testEnv{r: r, db: db, settings: settings}
	w := env.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	env.token = login.Token
	return env
}

func (e *testEnv) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(method, path string, body any) *httptest.ResponseRecorder {
	return e.do(method, path, body, map[string]string{"Authorization": "Bearer " + e.token})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type commentPage struct {
	Data       []dto.CommentResponse `json:"data"`
	Pagination dto.Pagination        `json:"pagination"`
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/comments", map[string]any{
		"postSlug":  "https://blog.test/hello",
		"postTitle": "Hello",
		"content":   "first **post**",
		"name":      "alice",
		"email":     "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[dto.CommentCreateResponse](t, w)
	assert.Equal(t, model.CommentStatusApproved, created.Status)
	assert.Equal(t, service.CommentSubmittedMessage, created.Message)

	t.Run("rate limited", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/comments", map[string]any{
			"post_slug": "https://blog.test/hello",
			"content":   "again",
			"name":      "alice",
			"email":     "alice@example.com",
		}, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), controller.RateLimitedMessage)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/comments", map[string]any{
			"post_slug": "https://blog.test/hello",
			"content":   "x",
			"name":      "bob",
			"email":     "not-an-email",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = env.do(http.MethodGet, "/api/comments?post_slug=https://blog.test/hello", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[commentPage](t, w)
	require.Len(t, page.Data, 1)
	assert.Contains(t, page.Data[0].ContentHTML, "<strong>post</strong>")
	assert.NotContains(t, w.Body.String(), "alice@example.com")
	assert.Equal(t, 1, page.Pagination.Page)

	w = env.do(http.MethodGet, "/api/comments", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := page.Data[0].ID
	w = env.do(http.MethodPost, fmt.Sprintf("/api/comments/%d/like", id), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dto.CommentLikeResponse](t, w).Likes)

	w = env.do(http.MethodPost, "/api/comments/abc/like", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/comments/999/like", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentCreateBodyTyping(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/comments", map[string]any{
		"post_slug": "/typed",
		"content":   "",
		"name":      1,
		"email":     "bob@example.com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")

	parent := model.Comment{Created: 1, PostSlug: "/typed", Name: "alice", Email: "alice@example.com", Status: model.CommentStatusApproved}
	require.NoError(t, env.db.Create(&parent).Error)

	w = env.do(http.MethodPost, "/api/comments", map[string]any{
		"post_slug": "/typed",
		"content":   "reply",
		"name":      "bob",
		"email":     "bob@example.com",
		"parent_id": fmt.Sprint(parent.ID),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply model.Comment
	require.NoError(t, env.db.Where("name = ?", "bob").Take(&reply).Error)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/admin/comments", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.admin(http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.admin(http.MethodGet, "/api/admin/comments", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminModeration(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UnixMilli()
	c := model.Comment{
		PostSlug: "/hello", PostURL: "https://blog.test/hello", Name: "bob", Email: "bob@example.com",
		ContentText: "hey", ContentHTML: "<p>hey</p>", Status: model.CommentStatusPending, Created: now,
	}
	require.NoError(t, env.db.Create(&c).Error)
	path := fmt.Sprintf("/api/admin/comments/%d", c.ID)

	w := env.admin(http.MethodGet, "/api/admin/comments?page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob@example.com")

	w = env.admin(http.MethodPut, path+"/status", map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.admin(http.MethodPut, path+"/status", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.admin(http.MethodPut, path+"/priority", map[string]int{"priority": 5})
	require.Equal(t, http.StatusOK, w.Code)

	var stored model.Comment
	require.NoError(t, env.db.First(&stored, c.ID).Error)
	assert.Equal(t, model.CommentStatusApproved, stored.Status)
	assert.Equal(t, 5, stored.Priority)

	w = env.admin(http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[dto.CommentStats](t, w)
	assert.Equal(t, 1, stats.Summary.Approved)

	w = env.admin(http.MethodGet, "/api/admin/domains", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"blog.test"}, decode[dto.DomainList](t, w).Domains)

	w = env.admin(http.MethodGet, "/api/admin/comments/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Comment](t, w), 1)

	w = env.admin(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.admin(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVisitAndPageLikes(t *testing.T) {
	env := newTestEnv(t)
	visitor := map[string]string{middleware.VisitorHeader: "visitor-0001"}

	body := map[string]string{"postSlug": "/hello", "postTitle": "Hello", "postUrl": "https://blog.test/hello"}
	w := env.do(http.MethodPost, "/api/analytics/visit", body, visitor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[dto.VisitResponse](t, w).Counted)

	w = env.do(http.MethodPost, "/api/analytics/visit", body, visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.VisitResponse](t, w).Counted)

	w = env.do(http.MethodPost, "/api/analytics/visit", map[string]string{}, visitor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.admin(http.MethodGet, "/api/admin/analytics/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overview := decode[dto.VisitOverview](t, w)
	assert.EqualValues(t, 2, overview.TotalPv)
	assert.EqualValues(t, 2, overview.TodayPv)

	w = env.admin(http.MethodGet, "/api/admin/analytics/pages?order=latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pages := decode[dto.VisitPages](t, w)
	require.Len(t, pages.Items, 1)
	assert.Equal(t, "Hello", pages.Items[0].PostTitle)

	w = env.do(http.MethodPost, "/api/like", map[string]string{"postSlug": "/hello"}, visitor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	liked := decode[dto.PageLikeResponse](t, w)
	assert.EqualValues(t, 1, liked.Likes)
	assert.True(t, liked.Liked)

	w = env.do(http.MethodPost, "/api/like?post_slug=/hello", nil, visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dto.PageLikeResponse](t, w).Likes)

	w = env.do(http.MethodGet, "/api/like?post_slug=/hello", nil, map[string]string{middleware.VisitorHeader: "visitor-0002"})
	require.Equal(t, http.StatusOK, w.Code)
	other := decode[dto.PageLikeResponse](t, w)
	assert.EqualValues(t, 1, other.Likes)
	assert.False(t, other.Liked)

	w = env.do(http.MethodGet, "/api/like", nil, visitor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsMasking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w := env.admin(http.MethodPut, "/api/admin/settings/email", map[string]any{
		"globalEnabled": false,
		"smtp":          map[string]any{"host": "smtp.test", "port": 587, "user": "u", "pass": "p"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.admin(http.MethodGet, "/api/admin/settings/email", nil)
	require.Equal(t, http.StatusOK, w.Code)
	email := decode[dto.EmailSettings](t, w)
	assert.False(t, email.GlobalEnabled)
	assert.Equal(t, "smtp.test", email.SMTP.Host)
	assert.Equal(t, 587, email.SMTP.Port)
	assert.Equal(t, controller.SecretMask, email.SMTP.Pass)

	// 回传遮盖值不覆盖原密码
	w = env.admin(http.MethodPut, "/api/admin/settings/email", map[string]any{
		"smtp": map[string]any{"pass": controller.SecretMask},
	})
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := env.settings.EmailSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p", stored.SMTP.Pass)

	w = env.admin(http.MethodPut, "/api/admin/settings/email", map[string]any{
		"smtp": map[string]any{"port": 70000},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.admin(http.MethodPut, "/api/admin/settings/comment", map[string]any{"notifyEmail": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.admin(http.MethodPut, "/api/admin/settings/comment", map[string]any{"notifyEmail": "owner@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.admin(http.MethodGet, "/api/admin/settings/comment", nil)
	assert.Equal(t, "owner@example.com", decode[dto.CommentSettings](t, w).NotifyEmail)

	w = env.admin(http.MethodPut, "/api/admin/settings/s3", map[string]any{
		"endpoint": "https://s3.test", "bucket": "b", "accessKeyId": "id", "secretAccessKey": "sk",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.admin(http.MethodGet, "/api/admin/settings/s3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s3 := decode[dto.S3Settings](t, w)
	assert.Equal(t, "auto", s3.Region)
	assert.Equal(t, controller.SecretMask, s3.SecretAccessKey)
}

func TestBackupEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.admin(http.MethodPost, "/api/admin/backup/import", map[string]any{
		"comments": []map[string]any{
			{"id": 7, "post_slug": "/a", "name": "x", "email": "x@example.com", "content_text": "hi", "status": "approved"},
		},
		"settings": []map[string]string{{"key": "comment_admin_email", "value": "me@example.com"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[dto.ImportResult](t, w)
	assert.Equal(t, 1, result.Comments)
	assert.Equal(t, 1, result.Settings)

	w = env.admin(http.MethodGet, "/api/admin/backup/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cwd-backup-")
	doc := decode[dto.BackupDocument](t, w)
	assert.Equal(t, dto.BackupVersion, doc.Version)
	require.Len(t, doc.Comments, 1)
	assert.EqualValues(t, 7, doc.Comments[0].ID)

	w = env.admin(http.MethodPost, "/api/admin/backup/import", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未配置对象存储
	w = env.admin(http.MethodPost, "/api/admin/backup/s3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.admin(http.MethodGet, "/api/admin/backup/s3/list", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.admin(http.MethodGet, "/api/admin/backup/s3/download", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "key is required")
	w = env.admin(http.MethodGet, "/api/admin/backup/s3/download?key=other/secret.json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid backup key")
	w = env.admin(http.MethodDelete, "/api/admin/backup/s3?key=cwd-backup-../secret.json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid backup key")
}

func TestCorsPreflight(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodOptions, "/api/comments", nil, map[string]string{"Origin": "https://blog.test"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
