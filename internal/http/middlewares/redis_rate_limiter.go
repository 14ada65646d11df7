package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window counter shared across processes.
// Redis being down must never take the API with it, so errors fall
// through open.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

func (rl *RedisRateLimiter) allow(c *gin.Context, key string) (bool, int) {
	ctx := c.Request.Context()

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)

	_, err := pipe.Exec(ctx)

	if err != nil {
		return true, 0
	}

	if incr.Val() > int64(rl.limit) {
		ttl, err := rl.rdb.TTL(ctx, key).Result()

		retryAfter := int(rl.window.Seconds())

		if err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		return false, retryAfter
	}

	return true, 0
}

func (rl *RedisRateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		ok, retryAfter := rl.allow(c, "ratelimit:"+key)

		if !ok {
			c.Header("Retry-After", itoa(retryAfter))
			abortRateLimited(c)
			return
		}

		c.Next()
	}
}
