package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "rl:write:"

// RateLimit caps requests per client IP to maxPerMin within a fixed one
// minute window counted in Redis. Without Redis, or with a non-positive
// limit, it is a no-op. Cache errors fail open.
func RateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || maxPerMin <= 0 {
			return c.Next()
		}
		window := time.Now().Unix() / 60
		key := rateLimitPrefix + c.IP() + ":" + strconv.FormatInt(window, 10)

		ctx := c.UserContext()
		pipe := cache.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("rate limit counter unavailable", slog.Any("error", err))
			return c.Next()
		}

		count := incr.Val()
		remaining := int64(maxPerMin) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMin))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
