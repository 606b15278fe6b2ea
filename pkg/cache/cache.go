package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	// Get 获取缓存，未命中返回 ErrMiss
	Get(ctx context.Context, key string) (string, error)

	// Set 设置缓存
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// SetNX 设置缓存（不存在时才设置）
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error

	// Close 关闭连接
	Close() error
}

// 缓存键
const (
	SettingKey     = "cmt:setting:%s"  // 单个配置项
	VisitDedupeKey = "cmt:visit:%s:%s" // 访客+页面 去重
)
