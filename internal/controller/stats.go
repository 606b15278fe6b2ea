package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// StatsApi 统计接口
type StatsApi struct {
	logger       *zap.SugaredLogger
	statsService *service.StatsService
}

// NewStatsApi 创建统计控制器
func NewStatsApi(statsService *service.StatsService) *StatsApi {
	return &StatsApi{
		logger:       logger.GetSugaredLogger(),
		statsService: statsService,
	}
}

// CommentStats 评论统计
func (api *StatsApi) CommentStats(c *gin.Context) {
	stats, err := api.statsService.CommentStats(c.Request.Context(), c.Query("domain"))
	if err != nil {
		handleError(c, api.logger, "获取统计数据", err)
		return
	}
	response.JSON(c, stats)
}

// VisitOverview 访问概览
func (api *StatsApi) VisitOverview(c *gin.Context) {
	overview, err := api.statsService.VisitOverview(c.Request.Context(), c.Query("domain"))
	if err != nil {
		handleError(c, api.logger, "获取访问统计概览", err)
		return
	}
	response.JSON(c, overview)
}

// VisitPages 页面访问排行
func (api *StatsApi) VisitPages(c *gin.Context) {
	pages, err := api.statsService.VisitPages(c.Request.Context(), c.Query("domain"), c.Query("order"))
	if err != nil {
		handleError(c, api.logger, "获取页面访问统计", err)
		return
	}
	response.JSON(c, pages)
}

// Domains 域名列表
func (api *StatsApi) Domains(c *gin.Context) {
	domains, err := api.statsService.Domains(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取域名列表", err)
		return
	}
	response.JSON(c, dto.DomainList{Domains: domains})
}
