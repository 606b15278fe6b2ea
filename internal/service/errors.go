package service

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrCommentNotFound 评论不存在
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidStatus 非法评论状态
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrS3NotConfigured 对象存储配置不完整
	ErrS3NotConfigured = errors.New("S3 configuration is incomplete")
	// ErrNoMailTransport 没有可用的发信方式
	ErrNoMailTransport = errors.New("no mail transport configured")
)

// ValidationError 请求参数不合法，对应 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建参数错误
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitError 评论过于频繁，对应 429
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many comments, retry after %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds 向上取整的剩余秒数
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}
