package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kasinoforum/internal/config"
	"kasinoforum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// identityStub is a stub for IdentityStore.
type identityStub struct {
	ensureFn func(context.Context, string, string) (*models.User, error)
}

func (s *identityStub) EnsureFromIdentity(ctx context.Context, externalID, displayName string) (*models.User, error) {
	return s.ensureFn(ctx, externalID, displayName)
}

func staticIdentities() *identityStub {
	users := map[string]*models.User{
		"auth0|member": {ID: 1, Role: models.RoleUser},
		"auth0|mod":    {ID: 2, Role: models.RoleModerator},
	}
	return &identityStub{ensureFn: func(_ context.Context, sub, _ string) (*models.User, error) {
		if u, ok := users[sub]; ok {
			return u, nil
		}
		return &models.User{ID: 99, Role: models.RoleUser}, nil
	}}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func testClaims(sub string, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{"sub": sub, "name": "Kalle", "exp": time.Now().Add(exp).Unix()}
}

func newAuthApp(users IdentityStore, issuer string) *fiber.App {
	resolver := NewCallerResolver(&config.Config{JWTSecret: testSecret, JWTIssuer: issuer}, users)
	app := fiber.New()
	app.Use(resolver.Handler())
	app.Get("/open", func(c *fiber.Ctx) error {
		caller := CallerFrom(c)
		if caller == nil {
			return c.JSON(fiber.Map{"anonymous": true})
		}
		return c.JSON(fiber.Map{"userID": caller.UserID, "role": caller.Role})
	})
	app.Get("/member", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})
	app.Get("/staff", AuthRequired, StaffRequired, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestCallerResolver(t *testing.T) {
	app := newAuthApp(staticIdentities(), "")

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{"Anonymous Open Route", "/open", "", http.StatusOK},
		{"Anonymous Protected Route", "/member", "", http.StatusUnauthorized},
		{"Member Protected Route", "/member", "Bearer " + signToken(t, testClaims("auth0|member", time.Hour)), http.StatusOK},
		{"Member Staff Route", "/staff", "Bearer " + signToken(t, testClaims("auth0|member", time.Hour)), http.StatusForbidden},
		{"Moderator Staff Route", "/staff", "Bearer " + signToken(t, testClaims("auth0|mod", time.Hour)), http.StatusOK},
		{"Invalid Format", "/open", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "/open", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "/open", "Bearer " + signToken(t, testClaims("auth0|member", -time.Hour)), http.StatusUnauthorized},
		{"Missing Subject", "/open", "Bearer " + signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestCallerResolver_RoleComesFromStore(t *testing.T) {
	app := newAuthApp(staticIdentities(), "")

	claims := testClaims("auth0|mod", time.Hour)
	claims["role"] = "ADMIN"
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(2), body["userID"])
	assert.Equal(t, string(models.RoleModerator), body["role"])
}

func TestCallerResolver_Issuer(t *testing.T) {
	app := newAuthApp(staticIdentities(), "https://login.kasinoforum.se/")

	wrong := testClaims("auth0|member", time.Hour)
	wrong["iss"] = "https://evil.example/"
	right := testClaims("auth0|member", time.Hour)
	right["iss"] = "https://login.kasinoforum.se/"

	for token, status := range map[string]int{
		signToken(t, wrong): http.StatusUnauthorized,
		signToken(t, right): http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/member", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, status, resp.StatusCode)
	}
}

func TestCallerResolver_StoreFailureIsTransient(t *testing.T) {
	users := &identityStub{ensureFn: func(_ context.Context, _, _ string) (*models.User, error) {
		return nil, errors.New("connection refused")
	}}
	app := newAuthApp(users, "")

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testClaims("auth0|member", time.Hour)))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.CodeTransient, body.Code)
	assert.Empty(t, body.Details)
}

func TestCallerResolver_RejectsUnsignedAlgorithms(t *testing.T) {
	app := newAuthApp(staticIdentities(), "")

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims("auth0|mod", time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
