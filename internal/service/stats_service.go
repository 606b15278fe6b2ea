package service

import (
	"context"
	"strings"
	"time"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/model"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StatsService 评论与访问统计
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService 创建统计服务
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// CommentStats 评论统计
func (s *StatsService) CommentStats(ctx context.Context, domain string) (*dto.CommentStats, error) {
	var rows []CommentStatRow
	if err := s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Select("created", "post_slug", "post_url", "status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return AggregateCommentStats(rows, domain, s.now()), nil
}

func (s *StatsService) pageStats(ctx context.Context) ([]model.PageStat, error) {
	var pages []model.PageStat
	err := s.db.WithContext(ctx).
		Select("post_slug", "post_title", "post_url", "pv", "last_visit_at").
		Find(&pages).Error
	return pages, err
}

// VisitOverview 访问概览
func (s *StatsService) VisitOverview(ctx context.Context, domain string) (*dto.VisitOverview, error) {
	now := s.now()
	filter := strings.ToLower(strings.TrimSpace(domain))

	var (
		pages []model.PageStat
		daily []model.PageVisitDaily
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pages, err = s.pageStats(gctx)
		return err
	})
	g.Go(func() error {
		tx := s.db.WithContext(gctx).
			Select("date", "domain", "count").
			Where("date >= ?", VisitEarliestDate(now))
		if filter != "" {
			tx = tx.Where("domain = ?", filter)
		}
		return tx.Find(&daily).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return AggregateVisitOverview(pages, daily, filter, now), nil
}

// VisitPages 页面访问排行
func (s *StatsService) VisitPages(ctx context.Context, domain, order string) (*dto.VisitPages, error) {
	pages, err := s.pageStats(ctx)
	if err != nil {
		return nil, err
	}
	return RankPages(pages, domain, order), nil
}

type domainSourceRow struct {
	PostSlug string
	PostURL  string
}

func collectDomains(rows []domainSourceRow) []string {
	domains := make([]string, 0, len(rows))
	for _, row := range rows {
		if d, ok := domainOf(row.PostURL, row.PostSlug); ok {
			domains = append(domains, d)
		}
	}
	return domains
}

// Domains 评论与访问统计中出现过的全部域名
func (s *StatsService) Domains(ctx context.Context) ([]string, error) {
	var commentRows, pageRows []domainSourceRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&model.Comment{}).
			Distinct("post_slug", "post_url").
			Scan(&commentRows).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&model.PageStat{}).
			Select("post_slug", "post_url").
			Scan(&pageRows).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return MergeDomains(collectDomains(commentRows), collectDomains(pageRows)), nil
}
