package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/realriphub/cmt-rr/pkg/cache"
)

// Blacklist 已撤销令牌集合
type Blacklist interface {
	Add(ctx context.Context, tokenID string, expireAt time.Time) error
	Contains(ctx context.Context, tokenID string) bool
}

const blacklistKey = "cmt:token:revoked:%s"

// CacheBlacklist 基于缓存的黑名单，条目随令牌过期自动失效
type CacheBlacklist struct {
	cache cache.Cache
}

// NewCacheBlacklist 创建黑名单
func NewCacheBlacklist(c cache.Cache) *CacheBlacklist {
	return &CacheBlacklist{cache: c}
}

// Add 加入黑名单
func (b *CacheBlacklist) Add(ctx context.Context, tokenID string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, fmt.Sprintf(blacklistKey, tokenID), "1", ttl)
}

// Contains 是否已撤销
func (b *CacheBlacklist) Contains(ctx context.Context, tokenID string) bool {
	_, err := b.cache.Get(ctx, fmt.Sprintf(blacklistKey, tokenID))
	return err == nil
}
