package mw

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"cardvault-api/internal/redisx"
)

var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then redis.call('PEXPIRE', KEYS[1], ARGV[1]) end
return current`)

func rateLimitKey(c *fiber.Ctx) string {
	dev := c.Get("X-Device-Id")
	sub := ""
	if ac := Auth(c); ac != nil {
		sub = ac.Subject
		dev = lo.Ternary(dev != "", dev, ac.DeviceID)
	}
	return fmt.Sprintf("ip:%s|dev:%s|sub:%s", c.IP(), dev, sub)
}

// RateLimitDefault limits requests per ip+device+subject in a fixed window.
// With Redis the window is shared across instances; without it the limit is per process.
// A Redis error lets the request through.
func RateLimitDefault(rdb *redisx.Client, windowSec int, limit int) fiber.Handler {
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:          limit,
			Expiration:   time.Duration(windowSec) * time.Second,
			KeyGenerator: rateLimitKey,
			LimitReached: func(c *fiber.Ctx) error {
				c.Set("Retry-After", fmt.Sprint(windowSec))
				return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		})
	}
	return func(c *fiber.Ctx) error {
		key := "rl:" + rateLimitKey(c)
		ctx, cancel := context.WithTimeout(c.Context(), 200*time.Millisecond)
		defer cancel()
		n, err := fixedWindow.Run(ctx, rdb, []string{key}, int64(windowSec)*1000).Int64()
		if err != nil {
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", fmt.Sprint(limit))
		c.Set("X-RateLimit-Remaining", fmt.Sprint(lo.Max([]int64{0, int64(limit) - n})))
		if n > int64(limit) {
			c.Set("Retry-After", fmt.Sprint(windowSec))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
