package security

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const sweepInterval = time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 的令牌桶，Run 负责清理长时间不活跃的条目
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration
	expiry time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter 每个窗口最多 MaxRequests 次，窗口缺省 1 分钟
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	window := time.Duration(cfg.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	burst := cfg.MaxRequests
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Every(window / time.Duration(burst)),
		burst:    burst,
		window:   window,
		expiry:   max(3*window, sweepInterval),
		visitors: make(map[string]*visitor),
	}
}

// Run 定期清理，ctx 结束时返回
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

func (l *RateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiry {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *RateLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *RateLimiter) allowAt(key string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Middleware 超限时返回 429 和统一错误体
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int((l.window / time.Duration(l.burst)).Seconds()) + 1)
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			util.Error(c, http.StatusTooManyRequests, util.KindRateLimited, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
