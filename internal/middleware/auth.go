// Package middleware provides authentication, logging, tracing and rate limiting middleware for the forum API.
package middleware

import (
	"context"
	"errors"
	"strings"

	"kasinoforum/internal/config"
	"kasinoforum/internal/models"
	"kasinoforum/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const callerLocal = "caller"

// IdentityStore maps an identity-provider subject to a forum user, creating it on first sight.
type IdentityStore interface {
	EnsureFromIdentity(ctx context.Context, externalID, displayName string) (*models.User, error)
}

// CallerResolver turns a bearer JWT into the canonical caller identity.
type CallerResolver struct {
	secret []byte
	issuer string
	users  IdentityStore
}

// NewCallerResolver creates a resolver validating HMAC tokens signed with cfg.JWTSecret.
func NewCallerResolver(cfg *config.Config, users IdentityStore) *CallerResolver {
	return &CallerResolver{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		users:  users,
	}
}

// ResolveCaller returns the caller behind the request, or nil for an anonymous request.
// A present but invalid token is an Unauthorized error, never silently anonymous.
func (r *CallerResolver) ResolveCaller(c *fiber.Ctx) (*models.Caller, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, models.NewUnauthorizedError("Invalid authorization header format")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	token, err := jwt.Parse(parts[1], func(_ *jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return nil, models.NewUnauthorizedError("Invalid token structure - missing subject")
	}
	name, _ := claims["name"].(string)

	user, err := r.users.EnsureFromIdentity(c.UserContext(), sub, name)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewTransientError(err)
	}

	return &models.Caller{UserID: user.ID, Role: user.Role}, nil
}

// Handler resolves the caller once per request and stores it in locals.
// Anonymous requests pass through; AuthRequired gates protected routes.
func (r *CallerResolver) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := r.ResolveCaller(c)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		if caller != nil {
			c.Locals(callerLocal, caller)
			c.Locals("userID", caller.UserID)
			c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, caller.UserID))
		}
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Handler, or nil.
func CallerFrom(c *fiber.Ctx) *models.Caller {
	caller, _ := c.Locals(callerLocal).(*models.Caller)
	return caller
}

// WithCaller stores caller in locals. Handlers under test use it in place of Handler.
func WithCaller(c *fiber.Ctx, caller *models.Caller) {
	c.Locals(callerLocal, caller)
	if caller != nil {
		c.Locals("userID", caller.UserID)
	}
}

// AuthRequired is a middleware that enforces an authenticated caller for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	if !CallerFrom(c).Authenticated() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	return c.Next()
}

// StaffRequired rejects callers that are neither moderators nor admins.
// Must be placed after AuthRequired.
func StaffRequired(c *fiber.Ctx) error {
	if !CallerFrom(c).IsStaff() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Moderator access required"))
	}
	return c.Next()
}
