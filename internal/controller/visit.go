package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/middleware"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// VisitApi 访问上报与页面点赞
type VisitApi struct {
	logger       *zap.SugaredLogger
	visitService *service.VisitService
}

// NewVisitApi 创建访问控制器
func NewVisitApi(visitService *service.VisitService) *VisitApi {
	return &VisitApi{
		logger:       logger.GetSugaredLogger(),
		visitService: visitService,
	}
}

// Visit 记录页面访问
func (api *VisitApi) Visit(c *gin.Context) {
	var req dto.VisitRequest
	if !bindJSON(c, &req) {
		return
	}

	counted, err := api.visitService.Record(c.Request.Context(), &req, middleware.GetVisitorID(c))
	if err != nil {
		handleError(c, api.logger, "记录访问", err)
		return
	}
	response.JSON(c, dto.VisitResponse{Counted: counted})
}

// PageLikes 页面点赞状态
func (api *VisitApi) PageLikes(c *gin.Context) {
	result, err := api.visitService.PageLikes(c.Request.Context(), c.Query("post_slug"), middleware.GetVisitorID(c))
	if err != nil {
		handleError(c, api.logger, "获取页面点赞", err)
		return
	}
	response.JSON(c, result)
}

// LikePage 页面点赞，post_slug 可以放在查询参数或请求体中
func (api *VisitApi) LikePage(c *gin.Context) {
	slug := c.Query("post_slug")
	if slug == "" {
		var req dto.PageLikeRequest
		if !bindJSON(c, &req) {
			return
		}
		slug = req.PostSlug
	}

	result, err := api.visitService.LikePage(c.Request.Context(), slug, middleware.GetVisitorID(c))
	if err != nil {
		handleError(c, api.logger, "页面点赞", err)
		return
	}
	response.JSON(c, result)
}
