package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/content"
	"github.com/realriphub/cmt-rr/pkg/objectstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// ImportBatchSize 每个事务写入的评论条数
	ImportBatchSize = 50
	// DefaultBackupPrefix 备份文件名前缀
	DefaultBackupPrefix = "cwd-backup-"
	anonymousName       = "Anonymous"
)

// StoreFactory 按当前配置创建对象存储客户端
type StoreFactory func(ctx context.Context) (objectstore.Store, error)

// BackupService 备份导出、导入与对象存储管理
type BackupService struct {
	db       *gorm.DB
	settings *SettingService
	storage  config.StorageConfig
	prefix   string
	client   *http.Client
	newStore StoreFactory
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewBackupService 创建备份服务
func NewBackupService(db *gorm.DB, settings *SettingService, storage config.StorageConfig, prefix string) *BackupService {
	if prefix == "" {
		prefix = DefaultBackupPrefix
	}
	s := &BackupService{
		db:       db,
		settings: settings,
		storage:  storage,
		prefix:   prefix,
		client:   &http.Client{Timeout: 60 * time.Second},
		now:      time.Now,
		logger:   logger.GetSugaredLogger(),
	}
	s.newStore = s.defaultStore
	return s
}

// Export 导出全部数据
func (s *BackupService) Export(ctx context.Context) (*dto.BackupDocument, error) {
	doc := &dto.BackupDocument{
		Version:        dto.BackupVersion,
		Timestamp:      s.now().UnixMilli(),
		Comments:       []model.Comment{},
		Settings:       []model.Setting{},
		PageStats:      []model.PageStat{},
		PageVisitDaily: []model.PageVisitDaily{},
		Likes:          []model.Like{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("priority DESC").Order("created DESC").Find(&doc.Comments).Error
	})
	g.Go(func() error {
		rows, err := s.settings.All(gctx)
		if err == nil {
			doc.Settings = rows
		}
		return err
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("id").Find(&doc.PageStats).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("date").Order("domain").Find(&doc.PageVisitDaily).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("id").Find(&doc.Likes).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("导出备份失败: %w", err)
	}
	return doc, nil
}

// FileName 备份文件名 cwd-backup-YYYY-MM-DD-<毫秒>.json
func (s *BackupService) FileName(now time.Time) string {
	return fmt.Sprintf("%s%s-%d.json", s.prefix, now.UTC().Format("2006-01-02"), now.UnixMilli())
}

// normalizeLikes 非数字、负数或非有限值一律为 0
func normalizeLikes(v any) int64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}

func normalizeImportComment(in dto.ImportComment, now int64) model.Comment {
	c := model.Comment{
		Created:     now,
		PostSlug:    in.PostSlug,
		PostURL:     in.PostURL,
		Name:        in.Name,
		Email:       in.Email,
		URL:         in.URL,
		IPAddress:   in.IPAddress,
		OS:          in.OS,
		Browser:     in.Browser,
		Device:      in.Device,
		UA:          in.UA,
		ContentText: in.ContentText,
		ContentHTML: in.ContentHTML,
		ParentID:    in.ParentID,
		Status:      in.Status,
		Priority:    in.Priority,
		Likes:       normalizeLikes(in.Likes),
	}
	if in.ID != nil {
		c.ID = *in.ID
	}
	if in.Created != nil && *in.Created > 0 {
		c.Created = *in.Created
	}
	if c.Name == "" {
		c.Name = anonymousName
	}
	if c.Status == "" {
		c.Status = model.CommentStatusApproved
	}
	if in.SiteID != nil {
		c.SiteID = *in.SiteID
	}
	if c.ParentID != nil && *c.ParentID == 0 {
		c.ParentID = nil
	}
	if c.ContentText == "" && c.ContentHTML != "" {
		if text, err := content.HTMLToMarkdown(c.ContentHTML); err == nil {
			c.ContentText = text
		}
	}
	return c
}

// importComments 按批次写入，每批一个事务；某批失败时之前的批次保留
func (s *BackupService) importComments(ctx context.Context, rows []dto.ImportComment) error {
	now := s.now().UnixMilli()
	for start := 0; start < len(rows); start += ImportBatchSize {
		end := min(start+ImportBatchSize, len(rows))

		var withID, withoutID []model.Comment
		for _, in := range rows[start:end] {
			c := normalizeImportComment(in, now)
			if c.ID != 0 {
				withID = append(withID, c)
			} else {
				withoutID = append(withoutID, c)
			}
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if len(withID) > 0 {
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					UpdateAll: true,
				}).Create(&withID).Error; err != nil {
					return err
				}
			}
			if len(withoutID) > 0 {
				if err := tx.Create(&withoutID).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("导入第%d批评论失败: %w", start/ImportBatchSize+1, err)
		}
	}
	return s.resetSequence(ctx)
}

// resetSequence 显式写入主键后，postgres 的自增序列需要跟上
func (s *BackupService) resetSequence(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return s.db.WithContext(ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('"Comment"', 'id'), COALESCE(MAX(id), 1)) FROM "Comment"`,
	).Error
}

func (s *BackupService) importStats(ctx context.Context, doc *dto.ImportDocument) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(doc.PageStats) > 0 {
			if err := tx.Omit("id").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"post_title", "post_url", "pv", "last_visit_at", "updated_at"}),
			}).CreateInBatches(&doc.PageStats, ImportBatchSize).Error; err != nil {
				return fmt.Errorf("导入页面统计失败: %w", err)
			}
		}
		if len(doc.PageVisitDaily) > 0 {
			if err := tx.Omit("id").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}, {Name: "domain"}},
				DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
			}).CreateInBatches(&doc.PageVisitDaily, ImportBatchSize).Error; err != nil {
				return fmt.Errorf("导入每日访问统计失败: %w", err)
			}
		}
		if len(doc.Likes) > 0 {
			if err := tx.Omit("id").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "page_slug"}, {Name: "user_id"}},
				DoNothing: true,
			}).CreateInBatches(&doc.Likes, ImportBatchSize).Error; err != nil {
				return fmt.Errorf("导入点赞数据失败: %w", err)
			}
		}
		return nil
	})
}

// Import 导入备份，缺失的部分跳过
func (s *BackupService) Import(ctx context.Context, doc *dto.ImportDocument) (*dto.ImportResult, error) {
	result := &dto.ImportResult{}
	parts := []string{}

	if len(doc.Comments) > 0 {
		if err := s.importComments(ctx, doc.Comments); err != nil {
			return nil, err
		}
		result.Comments = len(doc.Comments)
		parts = append(parts, fmt.Sprintf("comments %d", result.Comments))
	}

	if len(doc.Settings) > 0 {
		values := make(map[string]string, len(doc.Settings))
		for _, row := range doc.Settings {
			if row.Key != "" {
				values[row.Key] = row.Value
			}
		}
		if err := s.settings.SetMany(ctx, values); err != nil {
			return nil, err
		}
		result.Settings = len(doc.Settings)
		parts = append(parts, fmt.Sprintf("settings %d", result.Settings))
	}

	if err := s.importStats(ctx, doc); err != nil {
		return nil, err
	}
	result.PageStats = len(doc.PageStats)
	result.PageVisitDaily = len(doc.PageVisitDaily)
	result.Likes = len(doc.Likes)
	if n := result.PageStats + result.PageVisitDaily + result.Likes; n > 0 {
		parts = append(parts, fmt.Sprintf("stats %d", n))
	}

	result.Message = "Import finished"
	if len(parts) > 0 {
		result.Message += ": " + strings.Join(parts, "; ")
	}
	s.logger.Infow("备份导入完成",
		"comments", result.Comments,
		"settings", result.Settings,
		"page_stats", result.PageStats,
		"page_visit_daily", result.PageVisitDaily,
		"likes", result.Likes,
	)
	return result, nil
}

func (s *BackupService) defaultStore(ctx context.Context) (objectstore.Store, error) {
	if s.storage.Type == "cos" {
		store, err := objectstore.NewCOSClient(objectstore.COSConfig{
			BucketURL: s.storage.COS.BucketURL,
			SecretID:  s.storage.COS.SecretID,
			SecretKey: s.storage.COS.SecretKey,
		})
		if errors.Is(err, objectstore.ErrNotConfigured) {
			return nil, ErrS3NotConfigured
		}
		return store, err
	}

	cfg, err := s.settings.S3Settings(ctx, s.storage.S3)
	if err != nil {
		return nil, err
	}
	if !cfg.Complete() {
		return nil, ErrS3NotConfigured
	}
	return objectstore.NewS3Client(cfg, s.client)
}

// Store 当前配置对应的对象存储
func (s *BackupService) Store(ctx context.Context) (objectstore.Store, error) {
	return s.newStore(ctx)
}

// Upload 导出并上传到对象存储，返回文件名
func (s *BackupService) Upload(ctx context.Context) (string, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return "", err
	}

	doc, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	name := s.FileName(s.now())
	err = retry.Do(
		func() error {
			return store.Put(ctx, name, body, "application/json")
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warnf("上传备份失败，第%d次重试: %v", n+1, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("上传备份失败: %w", err)
	}

	s.logger.Infow("备份已上传", "file", name, "bytes", len(body))
	return name, nil
}

// List 列出备份文件，按最后修改时间倒序
func (s *BackupService) List(ctx context.Context) ([]objectstore.Object, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	return store.List(ctx, s.prefix)
}

// checkKey 只允许访问本服务前缀下的备份文件，不允许跨目录
func (s *BackupService) checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return NewValidationError("key is required")
	}
	name, ok := strings.CutPrefix(key, s.prefix)
	if !ok || name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(key, "..") {
		return NewValidationError("invalid backup key")
	}
	return nil
}

// Download 下载备份文件
func (s *BackupService) Download(ctx context.Context, key string) ([]byte, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

// Delete 删除备份文件
func (s *BackupService) Delete(ctx context.Context, key string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	store, err := s.Store(ctx)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Infow("备份已删除", "file", key)
	return nil
}
