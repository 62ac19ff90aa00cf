package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"order-desk/logger"
	"order-desk/models"
)

// RateLimitConfig limits requests per KeyFunc value. Scope names the counter,
// so the same limit holds for every path the limited route is mounted on.
type RateLimitConfig struct {
	Scope             string
	RequestsPerWindow int
	Window            time.Duration
	KeyFunc           func(c *gin.Context) string
}

func DefaultRateLimitConfig(scope string, perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Scope:             scope,
		RequestsPerWindow: perMinute,
		Window:            time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimit counts requests per scope and key in redis with a fixed window.
// A nil client or a redis error lets the request through.
func RateLimit(rdb *redis.Client, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || config.RequestsPerWindow <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := RateLimitKey(config.Scope, config.KeyFunc(c))

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.WithCtx(ctx).Warn("rate limit increment failed", "error", err)
			c.Next()
			return
		}
		count := incr.Val()

		// a counter without expiry would lock the key out for good
		window := ttl.Val()
		if window < 0 {
			window = config.Window
			if err := rdb.Expire(ctx, key, config.Window).Err(); err != nil {
				logger.WithCtx(ctx).Warn("rate limit expire failed, dropping counter", "key", key, "error", err)
				rdb.Del(ctx, key)
			}
		}

		remaining := int64(config.RequestsPerWindow) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(config.RequestsPerWindow) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			logger.WithCtx(ctx).Warn("rate limit exceeded", "key", key, "count", count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Message: "Too many attempts. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

func RateLimitKey(scope, key string) string {
	return "ratelimit:" + scope + ":" + key
}
