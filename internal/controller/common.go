package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/service"
	"github.com/realriphub/cmt-rr/pkg/response"
	"go.uber.org/zap"
)

// RateLimitedMessage 评论过于频繁时的提示
const RateLimitedMessage = "Too many comments, please try again later."

// bindJSON 绑定请求体，失败时直接返回 400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, dto.FormatBindError(err), err)
		return false
	}
	return true
}

// parseID 解析路径中的 id 参数
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id", err)
		return 0, false
	}
	return uint(id), true
}

// handleError 将服务层错误映射为 HTTP 状态码
func handleError(c *gin.Context, log *zap.SugaredLogger, action string, err error) {
	var (
		validationErr *service.ValidationError
		rateErr       *service.RateLimitError
	)
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Message, err)
	case errors.As(err, &rateErr):
		response.TooManyRequests(c, RateLimitedMessage, rateErr.RetryAfter)
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, "Comment not found", err)
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, err.Error(), err)
	case errors.Is(err, service.ErrS3NotConfigured):
		response.BadRequest(c, err.Error(), err)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error(), err)
	default:
		log.Errorf("%s失败: %v", action, err)
		response.InternalServerError(c, err)
	}
}
