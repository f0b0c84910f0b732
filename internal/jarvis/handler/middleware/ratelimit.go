package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UserRateLimiter buckets requests per authenticated user (or client IP
// when unauthenticated), enforcing USER_RATE_LIMIT_PER_MINUTE.
type UserRateLimiter struct {
	perMinute int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewUserRateLimiter constructs a limiter allowing perMinute requests per
// bucket, refilled continuously with a burst of perMinute.
func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	return &UserRateLimiter{perMinute: perMinute, limiters: make(map[string]*rate.Limiter)}
}

func (u *UserRateLimiter) limiterFor(key string) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(float64(u.perMinute)/60.0), u.perMinute)
		u.limiters[key] = l
	}
	return l
}

// Middleware returns a gin handler enforcing the per-bucket rate limit,
// keyed by the request's authenticated user ID header (falling back to
// client IP) returning 429 with Retry-After on breach.
func (u *UserRateLimiter) Middleware(userKeyHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u.perMinute <= 0 {
			c.Next()
			return
		}
		key := c.GetHeader(userKeyHeader)
		if key == "" {
			key = c.ClientIP()
		}
		limiter := u.limiterFor(key)
		res := limiter.Reserve()
		if !res.OK() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay/time.Second)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "RateLimit",
				"message":    "rate limit exceeded",
				"statusCode": http.StatusTooManyRequests,
			})
			return
		}
		c.Next()
	}
}
