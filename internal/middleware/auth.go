package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/pkg/auth"
	"github.com/realriphub/cmt-rr/pkg/response"
)

const claimsKey = "adminClaims"

// AdminAuth 管理员认证中间件
func AdminAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Unauthorized", nil)
			return
		}

		// 检查格式
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			response.Unauthorized(c, "Invalid authorization header", nil)
			return
		}

		claims, err := tokens.Parse(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Warnf("无效的令牌: %v", err)
			msg := "Invalid token"
			if errors.Is(err, auth.ErrRevokedToken) {
				msg = "Token revoked"
			}
			response.Unauthorized(c, msg, err)
			return
		}
		if claims.Role != auth.RoleAdmin {
			response.Unauthorized(c, "Unauthorized", nil)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims 从上下文中获取管理员令牌声明
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
