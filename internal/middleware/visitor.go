package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// VisitorCookie 访客标识 cookie
	VisitorCookie = "cmt_vid"
	// VisitorHeader 访客标识请求头，跨域且无法携带 cookie 时使用
	VisitorHeader = "X-Visitor-Id"

	visitorKey       = "visitorID"
	visitorCookieAge = 365 * 24 * 3600
)

var visitorPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// VisitorID 读取或生成访客标识，用于访问去重与页面点赞
func VisitorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(VisitorHeader)
		if !visitorPattern.MatchString(id) {
			id, _ = c.Cookie(VisitorCookie)
		}
		if !visitorPattern.MatchString(id) {
			id = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   visitorCookieAge,
				HttpOnly: true,
				SameSite: http.SameSiteNoneMode,
				Secure:   true,
			})
		}
		c.Set(visitorKey, id)
		c.Next()
	}
}

// GetVisitorID 从上下文中获取访客标识
func GetVisitorID(c *gin.Context) string {
	return c.GetString(visitorKey)
}
