package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Message 仅包含提示信息的响应
type Message struct {
	Message string `json:"message"`
}

// Page 分页列表响应
type Page struct {
	Data       any `json:"data"`
	Pagination any `json:"pagination"`
}

// JSON 原样返回数据
func JSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// OK 返回成功提示
func OK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Message{Message: message})
}

// Paged 返回分页数据
func Paged(c *gin.Context, data any, pagination any) {
	c.JSON(http.StatusOK, Page{Data: data, Pagination: pagination})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, err error) {
	// 记录详细错误信息，交给日志中间件输出
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, Message{Message: message})
}

// BadRequest 400错误响应
func BadRequest(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized 401错误响应
func Unauthorized(c *gin.Context, message string, err error) {
	Error(c, http.StatusUnauthorized, message, err)
}

// NotFound 404错误响应
func NotFound(c *gin.Context, message string, err error) {
	Error(c, http.StatusNotFound, message, err)
}

// TooManyRequests 429错误响应，并设置 Retry-After
func TooManyRequests(c *gin.Context, message string, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	Error(c, http.StatusTooManyRequests, message, nil)
}

// InternalServerError 500错误响应，错误信息直接透传
func InternalServerError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err.Error(), err)
}
