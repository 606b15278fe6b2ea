package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis 全局Redis客户端实例，未启用时为 nil
var (
	Redis    *redis.Client
	redisOne sync.Once
)

// InitRedis 初始化Redis连接
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接redis失败: %v", err)
	}

	logger.Info("redis连接成功", zap.String("addr", cfg.Addr()))
	return client, nil
}

// GetRedis 获取Redis客户端实例，redis.enabled=false 时返回 nil
func GetRedis() *redis.Client {
	redisOne.Do(func() {
		cfg := config.GetConfig().Redis
		if !cfg.Enabled {
			logger.Info("redis未启用，使用进程内缓存")
			return
		}
		client, err := InitRedis(&cfg)
		if err != nil {
			panic(fmt.Sprintf("redis初始化失败: %v", err))
		}
		Redis = client
	})
	return Redis
}
