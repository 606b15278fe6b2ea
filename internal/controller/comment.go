package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// CommentApi 公开评论接口
type CommentApi struct {
	logger         *zap.SugaredLogger
	commentService *service.CommentService
}

// NewCommentApi 创建评论API控制器
func NewCommentApi(commentService *service.CommentService) *CommentApi {
	return &CommentApi{
		logger:         logger.GetSugaredLogger(),
		commentService: commentService,
	}
}

// Create 提交评论
func (api *CommentApi) Create(c *gin.Context) {
	var req dto.CommentCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := api.commentService.Create(c.Request.Context(), &req, dto.ClientMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		handleError(c, api.logger, "创建评论", err)
		return
	}

	response.JSON(c, dto.CommentCreateResponse{
		Message: service.CommentSubmittedMessage,
		Status:  comment.Status,
	})
}

// List 获取页面评论
func (api *CommentApi) List(c *gin.Context) {
	q := dto.NewCommentListQuery(
		c.Query("post_slug"),
		c.Query("page"),
		c.Query("limit"),
		c.Query("nested"),
	)

	data, pagination, err := api.commentService.ListByPost(c.Request.Context(), q, c.Query("avatar_prefix"))
	if err != nil {
		handleError(c, api.logger, "获取评论列表", err)
		return
	}
	response.Paged(c, data, pagination)
}

// Like 评论点赞
func (api *CommentApi) Like(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	likes, err := api.commentService.Like(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "评论点赞", err)
		return
	}
	response.JSON(c, dto.CommentLikeResponse{ID: id, Likes: likes})
}
