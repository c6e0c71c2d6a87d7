// Package cache provides Redis caching utilities for the forum.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kasinoforum/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Client timeouts applied when the address leaves them unset.
const (
	DialTimeout    = 500 * time.Millisecond
	CommandTimeout = 300 * time.Millisecond
)

// Connect creates a Redis client for addr, which may be host:port or a redis:// URL.
// It returns nil when Redis is unreachable; the forum then runs without cache and rate limits.
func Connect(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			observability.GlobalLogger.Warn("invalid REDIS_URL, continuing without cache",
				slog.String("error", err.Error()))
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = CommandTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = CommandTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 1
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		observability.GlobalLogger.Warn("Redis unreachable, continuing without cache",
			slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}

	observability.GlobalLogger.Info("Redis connected successfully")
	return client
}
