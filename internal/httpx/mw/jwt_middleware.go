// Package mw contains HTTP middleware: authentication, rate limiting and request metrics.
package mw

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localsAuth = "auth"
	// KindUser is the token kind of a signed-in collector.
	KindUser = "user"
)

// AuthContext holds authentication details extracted from JWT.
type AuthContext struct {
	Subject  string // user:<uuid>
	Kind     string
	DeviceID string
}

// UserID returns the user id encoded in the subject.
func (a *AuthContext) UserID() (uuid.UUID, bool) {
	if a == nil || a.Kind != KindUser || !strings.HasPrefix(a.Subject, "user:") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(a.Subject, "user:"))
	return id, err == nil
}

// TokenParser turns a bearer token into an auth context.
type TokenParser func(token string) (*AuthContext, error)

// JWTMiddlewareDynamic attaches the auth context parsed by the given token parser.
// Requests without a valid bearer token pass through anonymous.
func JWTMiddlewareDynamic(parse TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return c.Next()
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		if ac, err := parse(token); err == nil && ac != nil && ac.Subject != "" {
			c.Locals(localsAuth, ac)
		}
		return c.Next()
	}
}

// Auth returns the auth context of the request, nil when anonymous.
func Auth(c *fiber.Ctx) *AuthContext {
	ac, _ := c.Locals(localsAuth).(*AuthContext)
	return ac
}

// SetAuth attaches ac to the request.
func SetAuth(c *fiber.Ctx, ac *AuthContext) { c.Locals(localsAuth, ac) }

// CurrentUser returns the id of the signed-in user or fiber.ErrUnauthorized.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := Auth(c).UserID()
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

// RequireUser enforces an authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := CurrentUser(c); err != nil {
			return err
		}
		return c.Next()
	}
}
