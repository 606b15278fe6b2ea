package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/realriphub/cmt-rr/pkg/avatar"
	"github.com/realriphub/cmt-rr/pkg/content"
	"github.com/realriphub/cmt-rr/pkg/useragent"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CommentSubmittedMessage 评论提交成功提示
const CommentSubmittedMessage = "Comment submitted. Awaiting moderation."

// CommentService 评论服务
type CommentService struct {
	db            *gorm.DB
	settings      *SettingService
	limiter       *RateLimiter
	sanitizer     *content.Sanitizer
	notifier      Notifier
	defaultStatus string
	now           func() time.Time
	logger        *zap.SugaredLogger
}

// CommentServiceOptions 评论服务依赖
type CommentServiceOptions struct {
	Settings      *SettingService
	Limiter       *RateLimiter
	Sanitizer     *content.Sanitizer
	Notifier      Notifier
	DefaultStatus string
}

// NewCommentService 创建评论服务实例
func NewCommentService(db *gorm.DB, opts CommentServiceOptions) *CommentService {
	status := opts.DefaultStatus
	if !model.IsValidCommentStatus(status) {
		status = model.CommentStatusApproved
	}
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = content.NewSanitizer(nil)
	}
	return &CommentService{
		db:            db,
		settings:      opts.Settings,
		limiter:       opts.Limiter,
		sanitizer:     sanitizer,
		notifier:      opts.Notifier,
		defaultStatus: status,
		now:           time.Now,
		logger:        logger.GetSugaredLogger(),
	}
}

// Create 创建评论：限流、清洗、解析 UA、入库，然后投递通知
func (s *CommentService) Create(ctx context.Context, req *dto.CommentCreateRequest, meta dto.ClientMeta) (*model.Comment, error) {
	ip := NormalizeIP(meta.IP)
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, ip); err != nil {
			return nil, err
		}
	}

	text, html := s.sanitizer.Process(req.Content)
	ua := useragent.Parse(meta.UserAgent)

	parentID := req.ParentID
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}

	comment := &model.Comment{
		Created:     s.now().UnixMilli(),
		PostSlug:    req.PostSlug,
		PostURL:     req.PostURL,
		Name:        s.sanitizer.Clean(req.Name),
		Email:       req.Email,
		URL:         req.URL,
		IPAddress:   ip,
		OS:          ua.OS,
		Browser:     ua.Browser,
		Device:      ua.Device,
		UA:          meta.UserAgent,
		ContentText: text,
		ContentHTML: html,
		ParentID:    parentID,
		Status:      s.defaultStatus,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}

	s.logger.Infow("评论已保存",
		"id", comment.ID,
		"post_slug", comment.PostSlug,
		"has_parent", parentID != nil,
		"ip", ip,
	)

	if s.notifier != nil {
		s.notifier.Enqueue(NotificationJob{
			CommentID:   comment.ID,
			ParentID:    comment.ParentID,
			PostTitle:   req.PostTitle,
			PostURL:     req.PostURL,
			AuthorName:  comment.Name,
			AuthorEmail: comment.Email,
			ContentHTML: comment.ContentHTML,
		})
	}
	return comment, nil
}

// SlugVariants 对绝对 URL 同时匹配带与不带结尾斜杠的形式，其他值原样返回
func SlugVariants(slug string) []string {
	u, err := url.Parse(slug)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []string{slug}
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if port := u.Port(); (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		host = strings.ToLower(u.Hostname())
	}
	origin := scheme + "://" + host

	path := u.EscapedPath()
	if path == "" || path == "/" {
		return []string{origin + "/", origin}
	}

	trimmed := strings.TrimSuffix(path, "/")
	return []string{origin + trimmed + "/", origin + trimmed}
}

func toCommentResponse(c *model.Comment, prefix, adminEmail string) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		URL:         c.URL,
		ContentText: c.ContentText,
		ContentHTML: c.ContentHTML,
		Created:     c.Created,
		ParentID:    c.ParentID,
		PostSlug:    c.PostSlug,
		Priority:    c.Priority,
		Likes:       c.NormalizedLikes(),
		Avatar:      avatar.URL(c.Email, prefix),
		IsAdmin:     adminEmail != "" && c.Email == adminEmail,
		Replies:     []*dto.CommentResponse{},
	}
}

// ListByPost 获取页面下已通过的评论，avatarPrefix 为空时使用 comment_avatar_prefix 配置
func (s *CommentService) ListByPost(ctx context.Context, q dto.CommentListQuery, avatarPrefix string) ([]*dto.CommentResponse, dto.Pagination, error) {
	slug := strings.TrimSpace(q.PostSlug)
	if slug == "" {
		return nil, dto.Pagination{}, NewValidationError("post_slug is required")
	}

	var (
		rows     []model.Comment
		settings map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("post_slug IN ? AND status = ?", SlugVariants(slug), model.CommentStatusApproved).
			Order("priority DESC").
			Order("created DESC").
			Find(&rows).Error
	})
	g.Go(func() error {
		m, err := s.settings.GetMany(gctx, KeyAdminNotifyEmail, KeyCommentAvatarPrefix)
		if err != nil {
			// 配置读取失败不影响评论展示
			s.logger.Warnf("读取评论配置失败: %v", err)
			m = map[string]string{}
		}
		settings = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dto.Pagination{}, err
	}

	if avatarPrefix == "" {
		avatarPrefix = settings[KeyCommentAvatarPrefix]
	}
	adminEmail := settings[KeyAdminNotifyEmail]

	all := make([]*dto.CommentResponse, len(rows))
	for i := range rows {
		all[i] = toCommentResponse(&rows[i], avatarPrefix, adminEmail)
	}

	if q.Nested {
		roots := BuildCommentTree(all)
		pagination := dto.NewPagination(q.Page, q.Limit, len(roots)).WithTotalCount(len(all))
		return Paginate(roots, q.Page, q.Limit), pagination, nil
	}

	pagination := dto.NewPagination(q.Page, q.Limit, len(all)).WithTotalCount(len(all))
	return Paginate(all, q.Page, q.Limit), pagination, nil
}

// DomainPattern 管理端域名过滤使用的 LIKE 模式
func DomainPattern(domain string) string {
	return "%://" + domain + "/%"
}

// AdminList 管理端评论列表，每页 10 条，按创建时间倒序
func (s *CommentService) AdminList(ctx context.Context, page int, domain string) ([]dto.AdminCommentResponse, dto.Pagination, error) {
	if page < 1 {
		page = 1
	}
	limit := dto.AdminCommentLimit

	query := func(ctx context.Context) *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&model.Comment{})
		if d := strings.TrimSpace(domain); d != "" {
			p := DomainPattern(d)
			tx = tx.Where("post_slug LIKE ? OR post_url LIKE ?", p, p)
		}
		return tx
	}

	var (
		total    int64
		rows     []model.Comment
		settings map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return query(gctx).Count(&total).Error
	})
	g.Go(func() error {
		return query(gctx).
			Order("created DESC").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&rows).Error
	})
	g.Go(func() error {
		m, err := s.settings.GetMany(gctx, KeyCommentAvatarPrefix, KeyCommentAdminEmail)
		settings = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dto.Pagination{}, err
	}

	prefix := settings[KeyCommentAvatarPrefix]
	adminEmail := settings[KeyCommentAdminEmail]
	data := make([]dto.AdminCommentResponse, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		data = append(data, dto.AdminCommentResponse{
			ID:          c.ID,
			Created:     c.Created,
			PostSlug:    c.PostSlug,
			PostURL:     c.PostURL,
			Name:        c.Name,
			Email:       c.Email,
			URL:         c.URL,
			IPAddress:   c.IPAddress,
			OS:          c.OS,
			Browser:     c.Browser,
			Device:      c.Device,
			UA:          c.UA,
			ContentText: c.ContentText,
			ContentHTML: c.ContentHTML,
			ParentID:    c.ParentID,
			Status:      c.Status,
			Priority:    c.Priority,
			Likes:       c.NormalizedLikes(),
			Avatar:      avatar.URL(c.Email, prefix),
			IsAdmin:     adminEmail != "" && c.Email == adminEmail,
		})
	}

	return data, dto.NewPagination(page, limit, int(total)), nil
}

func (s *CommentService) updateColumn(ctx context.Context, id uint, column string, value any) error {
	result := s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCommentNotFound
		}
	}
	return nil
}

// UpdateStatus 修改评论审核状态
func (s *CommentService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !model.IsValidCommentStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.updateColumn(ctx, id, "status", status); err != nil {
		return err
	}
	s.logger.Infow("评论状态已修改", "id", id, "status", status)
	return nil
}

// UpdatePriority 修改评论置顶权重
func (s *CommentService) UpdatePriority(ctx context.Context, id uint, priority int) error {
	return s.updateColumn(ctx, id, "priority", priority)
}

// Delete 删除评论，其回复保留但不再展示
func (s *CommentService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	s.logger.Infow("评论已删除", "id", id)
	return nil
}

// Export 导出全部评论，按置顶权重与时间倒序
func (s *CommentService) Export(ctx context.Context) ([]model.Comment, error) {
	rows := make([]model.Comment, 0)
	err := s.db.WithContext(ctx).
		Order("priority DESC").
		Order("created DESC").
		Find(&rows).Error
	return rows, err
}

// Like 为已通过的评论点赞，返回最新点赞数
func (s *CommentService) Like(ctx context.Context, id uint) (int64, error) {
	var comment model.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).
			Where("id = ? AND status = ?", id, model.CommentStatusApproved).
			UpdateColumn("likes", gorm.Expr("CASE WHEN likes < 0 THEN 1 ELSE likes + 1 END"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return tx.Select("id", "likes").Take(&comment, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCommentNotFound
		}
		return 0, err
	}
	return comment.NormalizedLikes(), nil
}
