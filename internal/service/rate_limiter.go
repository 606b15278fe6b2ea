package service

import (
	"context"
	"errors"
	"time"

	"github.com/realriphub/cmt-rr/internal/model"
	"gorm.io/gorm"
)

// DefaultClientIP 无法获取来源 IP 时使用
const DefaultClientIP = "127.0.0.1"

// NormalizeIP 空 IP 回退为 127.0.0.1
func NormalizeIP(ip string) string {
	if ip == "" {
		return DefaultClientIP
	}
	return ip
}

// CheckRateLimit 判断距上次评论是否已超过窗口期，last 为毫秒时间戳，0 表示没有历史评论
func CheckRateLimit(last int64, now time.Time, window time.Duration) error {
	if last <= 0 || window <= 0 {
		return nil
	}
	elapsed := now.Sub(time.UnixMilli(last))
	if elapsed < window {
		return &RateLimitError{RetryAfter: window - elapsed}
	}
	return nil
}

// RateLimiter 按 IP 限制评论频率。先查后写，并发请求可能同时通过。
type RateLimiter struct {
	db     *gorm.DB
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter 创建评论频率限制器
func NewRateLimiter(db *gorm.DB, window time.Duration) *RateLimiter {
	return &RateLimiter{db: db, window: window, now: time.Now}
}

// Check 检查该 IP 是否可以发表评论
func (r *RateLimiter) Check(ctx context.Context, ip string) error {
	var last model.Comment
	err := r.db.WithContext(ctx).
		Select("created").
		Where("ip_address = ?", NormalizeIP(ip)).
		Order("created DESC").
		Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return CheckRateLimit(last.Created, r.now(), r.window)
}
