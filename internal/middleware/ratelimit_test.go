package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kasinoforum/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestCheckRateLimit(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()

	for i := range 3 {
		allowed, err := CheckRateLimit(ctx, rdb, "reports", "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "reports", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// other identities have their own budget
	allowed, err = CheckRateLimit(ctx, rdb, "reports", "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, time.Minute, mr.TTL("rl:reports:user:1"))
	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "reports", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	allowed, err := CheckRateLimit(context.Background(), nil, "reports", "1", 1, time.Minute)
	assert.ErrorIs(t, err, errNoRedis)
	assert.False(t, allowed)
}

func newLimitedApp(rdb *redis.Client, cfg RateLimitConfig, caller *models.Caller) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		WithCaller(c, caller)
		return c.Next()
	})
	app.Post("/reports", RateLimit(rdb, cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func post(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/reports", nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRateLimit(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cfg := RateLimitConfig{Resource: "reports", Limit: 2, Window: time.Minute}
	app := newLimitedApp(rdb, cfg, &models.Caller{UserID: 7, Role: models.RoleUser})

	assert.Equal(t, http.StatusCreated, post(t, app).StatusCode)
	assert.Equal(t, http.StatusCreated, post(t, app).StatusCode)

	resp := post(t, app)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.True(t, mr.Exists("rl:reports:user:7"))
}

func TestRateLimit_Skip(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cfg := RateLimitConfig{
		Resource: "reports",
		Limit:    1,
		Window:   time.Minute,
		Skip:     func(_ *fiber.Ctx) bool { return true },
	}
	app := newLimitedApp(rdb, cfg, nil)

	for range 3 {
		assert.Equal(t, http.StatusCreated, post(t, app).StatusCode)
	}
	assert.Empty(t, mr.Keys())
}

func TestRateLimit_FailPolicy(t *testing.T) {
	rdb, mr := newTestRedis(t)
	mr.Close()

	open := newLimitedApp(rdb, RateLimitConfig{Resource: "reports", Limit: 1, Window: time.Minute, Policy: FailOpen}, nil)
	assert.Equal(t, http.StatusCreated, post(t, open).StatusCode)

	closed := newLimitedApp(rdb, RateLimitConfig{Resource: "reports", Limit: 1, Window: time.Minute, Policy: FailClosed}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, post(t, closed).StatusCode)
}

func TestRateLimit_DeadRedisIsBounded(t *testing.T) {
	mr := miniredis.RunT(t)
	// default retries and backoff; only the check timeout bounds the call
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	app := newLimitedApp(rdb, RateLimitConfig{
		Resource: "reports",
		Limit:    1,
		Window:   time.Minute,
		Policy:   FailOpen,
		Timeout:  50 * time.Millisecond,
	}, nil)

	start := time.Now()
	assert.Equal(t, http.StatusCreated, post(t, app).StatusCode)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
