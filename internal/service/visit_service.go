package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitService 页面访问计数
type VisitService struct {
	db     *gorm.DB
	cache  cache.Cache
	dedupe time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewVisitService 创建访问计数服务，dedupe 为 0 时不去重
func NewVisitService(db *gorm.DB, c cache.Cache, dedupe time.Duration) *VisitService {
	return &VisitService{
		db:     db,
		cache:  c,
		dedupe: dedupe,
		now:    time.Now,
		logger: logger.GetSugaredLogger(),
	}
}

// firstVisit 同一访客在去重窗口内对同一页面只计一次
func (s *VisitService) firstVisit(ctx context.Context, visitor, slug string) bool {
	if s.cache == nil || s.dedupe <= 0 || visitor == "" {
		return true
	}
	ok, err := s.cache.SetNX(ctx, fmt.Sprintf(cache.VisitDedupeKey, visitor, slug), "1", s.dedupe)
	if err != nil {
		s.logger.Warnf("访问去重缓存失败: %v", err)
		return true
	}
	return ok
}

// Record 记录一次页面访问，返回是否计数
func (s *VisitService) Record(ctx context.Context, req *dto.VisitRequest, visitor string) (bool, error) {
	slug := strings.TrimSpace(req.PostSlug)
	if slug == "" {
		return false, NewValidationError("postSlug is required")
	}
	if !s.firstVisit(ctx, visitor, slug) {
		return false, nil
	}

	now := s.now()
	ms := now.UnixMilli()
	domain, _ := domainOf(req.PostURL, slug)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"pv":            gorm.Expr("page_stats.pv + ?", 1),
			"last_visit_at": ms,
			"updated_at":    ms,
		}
		if req.PostTitle != "" {
			updates["post_title"] = req.PostTitle
		}
		if req.PostURL != "" {
			updates["post_url"] = req.PostURL
		}
		page := model.PageStat{
			PostSlug:    slug,
			PostTitle:   req.PostTitle,
			PostURL:     req.PostURL,
			PV:          1,
			LastVisitAt: &ms,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_slug"}},
			DoUpdates: clause.Assignments(updates),
		}).Create(&page).Error; err != nil {
			return fmt.Errorf("更新页面访问量失败: %w", err)
		}

		daily := model.PageVisitDaily{Date: DateKey(now), Domain: domain, Count: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}, {Name: "domain"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("page_visit_daily.count + ?", 1),
				"updated_at": ms,
			}),
		}).Create(&daily).Error; err != nil {
			return fmt.Errorf("更新每日访问量失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// PageLikes 页面点赞数以及该访客是否已点赞
func (s *VisitService) PageLikes(ctx context.Context, slug, visitor string) (*dto.PageLikeResponse, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, NewValidationError("post_slug is required")
	}

	var total, mine int64
	if err := s.db.WithContext(ctx).Model(&model.Like{}).
		Where("page_slug = ?", slug).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if visitor != "" {
		if err := s.db.WithContext(ctx).Model(&model.Like{}).
			Where("page_slug = ? AND user_id = ?", slug, visitor).
			Count(&mine).Error; err != nil {
			return nil, err
		}
	}
	return &dto.PageLikeResponse{Likes: total, Liked: mine > 0}, nil
}

// LikePage 为页面点赞，同一访客重复点赞不计数
func (s *VisitService) LikePage(ctx context.Context, slug, visitor string) (*dto.PageLikeResponse, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, NewValidationError("post_slug is required")
	}
	if visitor == "" {
		return nil, NewValidationError("visitor id is required")
	}

	like := model.Like{PageSlug: slug, UserID: visitor}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error; err != nil {
		return nil, err
	}
	return s.PageLikes(ctx, slug, visitor)
}
