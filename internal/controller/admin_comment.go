package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// AdminCommentApi 评论管理接口
type AdminCommentApi struct {
	logger         *zap.SugaredLogger
	commentService *service.CommentService
}

// NewAdminCommentApi 创建评论管理控制器
func NewAdminCommentApi(commentService *service.CommentService) *AdminCommentApi {
	return &AdminCommentApi{
		logger:         logger.GetSugaredLogger(),
		commentService: commentService,
	}
}

// List 分页获取全部评论
func (api *AdminCommentApi) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	data, pagination, err := api.commentService.AdminList(c.Request.Context(), page, c.Query("domain"))
	if err != nil {
		handleError(c, api.logger, "获取评论列表", err)
		return
	}
	response.Paged(c, data, pagination)
}

// UpdateStatus 修改审核状态
func (api *AdminCommentApi) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.CommentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := api.commentService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		handleError(c, api.logger, "修改评论状态", err)
		return
	}
	response.OK(c, "Status updated")
}

// UpdatePriority 修改置顶权重
func (api *AdminCommentApi) UpdatePriority(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.CommentPriorityRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := api.commentService.UpdatePriority(c.Request.Context(), id, *req.Priority); err != nil {
		handleError(c, api.logger, "修改评论权重", err)
		return
	}
	response.OK(c, "Priority updated")
}

// Delete 删除评论
func (api *AdminCommentApi) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := api.commentService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除评论", err)
		return
	}
	response.OK(c, "Comment deleted")
}

// Export 导出全部评论
func (api *AdminCommentApi) Export(c *gin.Context) {
	rows, err := api.commentService.Export(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "导出评论", err)
		return
	}
	response.JSON(c, rows)
}
