package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultMemorySize 进程内缓存容量
const DefaultMemorySize = 4096

// New 根据是否配置 redis 选择缓存实现
func New(redisClient *redis.Client) (Cache, error) {
	if redisClient != nil {
		return NewRedisCache(redisClient), nil
	}
	mem, err := NewMemoryCache(DefaultMemorySize)
	if err != nil {
		return nil, fmt.Errorf("create memory cache failed: %w", err)
	}
	return mem, nil
}
