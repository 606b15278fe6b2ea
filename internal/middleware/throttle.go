package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/pkg/response"
	"golang.org/x/time/rate"
)

// 最多跟踪的来源 IP 数量，超出后淘汰最久未访问的
const throttleTrackedIPs = 10000

// IPThrottle 按来源 IP 的令牌桶限流
type IPThrottle struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewIPThrottle 创建限流器，perSecond <= 0 时不限流
func NewIPThrottle(perSecond float64, burst int) *IPThrottle {
	if burst < 1 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](throttleTrackedIPs)
	if err != nil {
		// 仅在 size <= 0 时返回错误
		panic(err)
	}
	return &IPThrottle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache,
	}
}

func (t *IPThrottle) limiter(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.limiters.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(t.limit, t.burst)
	t.limiters.Add(ip, l)
	return l
}

// Allow 是否允许该 IP 的本次请求
func (t *IPThrottle) Allow(ip string) bool {
	if t.limit <= 0 {
		return true
	}
	return t.limiter(ip).Allow()
}

// Handler gin 中间件
func (t *IPThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !t.Allow(ip) {
			logger.Warnf("请求过于频繁: %s %s", ip, c.Request.URL.Path)
			retry := time.Second
			if t.limit > 0 {
				retry = time.Duration(float64(time.Second) / float64(t.limit))
			}
			response.TooManyRequests(c, "Too many requests", retry)
			return
		}
		c.Next()
	}
}
