package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kasinoforum/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// DefaultRateLimitTimeout bounds one rate limit check against Redis.
const DefaultRateLimitTimeout = 250 * time.Millisecond

// RateLimitConfig describes one named limit.
type RateLimitConfig struct {
	Resource string
	Limit    int
	Window   time.Duration
	Policy   FailPolicy
	// Timeout bounds the Redis round trip; zero means DefaultRateLimitTimeout.
	Timeout time.Duration
	// Skip disables the limit for a request, e.g. behind a feature flag.
	Skip func(c *fiber.Ctx) bool
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// INCR and set EXPIRE if new
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing cfg.Limit requests per cfg.Window.
// It keys by the resolved caller if present, otherwise by remote IP.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		var id string
		if caller := CallerFrom(c); caller != nil {
			id = fmt.Sprintf("user:%d", caller.UserID)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := cfg.Resource
		if resource == "" {
			resource = c.Path()
		}

		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultRateLimitTimeout
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		allowed, err := CheckRateLimit(ctx, rdb, resource, id, cfg.Limit, cfg.Window)
		cancel()
		if err != nil {
			if cfg.Policy == FailClosed {
				observability.GlobalLogger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
					"code":  "TRANSIENT",
				})
			}
			if !errors.Is(err, errNoRedis) {
				observability.GlobalLogger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
