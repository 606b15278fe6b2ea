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

// AuthApi 管理员登录接口
type AuthApi struct {
	logger      *zap.SugaredLogger
	authService *service.AuthService
}

// NewAuthApi 创建认证控制器
func NewAuthApi(authService *service.AuthService) *AuthApi {
	return &AuthApi{
		logger:      logger.GetSugaredLogger(),
		authService: authService,
	}
}

// Login 管理员登录
func (api *AuthApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := api.authService.Login(&req)
	if err != nil {
		handleError(c, api.logger, "管理员登录", err)
		return
	}
	api.logger.Infow("管理员登录成功", "username", req.Username, "ip", c.ClientIP())
	response.JSON(c, resp)
}

// Logout 注销当前令牌
func (api *AuthApi) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized", nil)
		return
	}
	if err := api.authService.Logout(c.Request.Context(), claims); err != nil {
		handleError(c, api.logger, "退出登录", err)
		return
	}
	response.OK(c, "Logged out")
}
