// Package auth provides password registration, login and token refresh.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
	"cardvault-api/internal/logx"
	"cardvault-api/internal/store"
)

var authLogger = logx.GetScope("httpx.auth")

func normalizeIdentifier(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func issue(c *fiber.Ctx, tokens *Tokens, u *store.User, deviceID string) error {
	sub := "user:" + u.ID.String()
	access, err := tokens.SignAccess(sub, deviceID)
	if err != nil {
		return kit.InternalError("sign access failed", err.Error())
	}
	refresh, err := tokens.SignRefresh(sub, deviceID)
	if err != nil {
		return kit.InternalError("sign refresh failed", err.Error())
	}
	tokens.SetRefreshCookie(c, refresh)
	return kit.OK(c, TokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresIn: tokens.expiresIn(), DeviceID: deviceID})
}

// RegisterHandler creates a new user, then returns JWTs.
//
//	@Summary      Register (password)
//	@Description  Create a user with a password, then issue tokens
//	@Tags         auth
//	@Accept       json
//	@Produce      json
//	@Param        body  body   auth.RegisterRequest  true  "register"
//	@Success      200   {object}  auth.TokenResponse
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      409   {object}  map[string]interface{}
//	@Failure      429   {object}  map[string]interface{}
//	@Router       /api/v1/auth/register [post]
func RegisterHandler(tokens *Tokens, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		req.Identifier = normalizeIdentifier(req.Identifier)
		if req.Identifier == "" || len(req.Password) < 8 {
			return kit.BadRequest("identifier and a password of at least 8 characters required", nil)
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			return kit.InternalError("hash password failed", err.Error())
		}
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		u := &store.User{Identifier: req.Identifier, DisplayName: strings.TrimSpace(req.DisplayName), PasswordHash: hash}
		if err := users.CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return kit.Conflict("identifier already exists", nil)
			}
			return kit.InternalError("create user failed", err.Error())
		}
		authLogger.Sugar().Infof("user registered: %s", u.ID)
		return issue(c, tokens, u, req.DeviceID)
	}
}

// LoginHandler authenticates a user by identifier and password and returns JWTs.
//
//	@Summary      Login (password)
//	@Description  Authenticate by identifier/password and issue tokens
//	@Tags         auth
//	@Accept       json
//	@Produce      json
//	@Param        body  body   auth.LoginRequest  true  "login"
//	@Success      200   {object}  auth.TokenResponse
//	@Failure      401   {object}  map[string]interface{}
//	@Failure      429   {object}  map[string]interface{}
//	@Header       200   {string}  X-RateLimit-Limit      "Requests per window"
//	@Header       200   {string}  X-RateLimit-Remaining  "Remaining requests"
//	@Header       429   {string}  Retry-After            "Seconds to wait"
//	@Router       /api/v1/auth/login [post]
func LoginHandler(tokens *Tokens, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Identifier == "" || req.Password == "" {
			return kit.BadRequest("identifier and password required", nil)
		}
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		u, err := users.UserByIdentifier(ctx, normalizeIdentifier(req.Identifier))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.ErrUnauthorized
			}
			return kit.InternalError("query user failed", err.Error())
		}
		if !VerifyPassword(req.Password, u.PasswordHash) {
			return fiber.ErrUnauthorized
		}
		return issue(c, tokens, u, req.DeviceID)
	}
}

// RefreshHandler issues a new access token using the refresh cookie.
//
//	@Summary      Refresh Access Token
//	@Description  Mint new access token from refresh cookie
//	@Tags         auth
//	@Accept       json
//	@Produce      json
//	@Success      200   {object}  auth.TokenResponse
//	@Failure      401   {object}  map[string]interface{}
//	@Router       /api/v1/auth/refresh [post]
func RefreshHandler(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt := c.Cookies(refreshCookie)
		if rt == "" {
			return fiber.ErrUnauthorized
		}
		claims, err := tokens.Parse(rt, tokenRefresh)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		access, err := tokens.SignAccess(claims.Subject, claims.DeviceID)
		if err != nil {
			return kit.InternalError("sign access failed", err.Error())
		}
		return kit.OK(c, TokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresIn: tokens.expiresIn(), DeviceID: claims.DeviceID})
	}
}

// LogoutHandler clears the refresh cookie.
//
//	@Summary      Logout (clear refresh)
//	@Description  Clear refresh cookie; access tokens expire naturally
//	@Tags         auth
//	@Success      204   {string}  string  "no content"
//	@Router       /api/v1/auth/logout [post]
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ClearRefreshCookie(c)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeHandler returns the signed-in user.
//
//	@Summary      Who am I
//	@Description  Return the current user
//	@Tags         auth
//	@Produce      json
//	@Security     BearerAuth
//	@Success      200   {object}  auth.MeResponse
//	@Failure      401   {object}  map[string]interface{}
//	@Router       /api/v1/auth/me [get]
func MeHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := mw.CurrentUser(c)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()
		u, err := users.UserByID(ctx, uid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.ErrUnauthorized
			}
			return kit.InternalError("query user failed", err.Error())
		}
		return kit.OK(c, MeResponse{ID: u.ID, Identifier: u.Identifier, DisplayName: u.DisplayName, DeviceID: mw.Auth(c).DeviceID})
	}
}

// Mount registers the auth routes on r.
func Mount(r fiber.Router, tokens *Tokens, users store.UserStore) {
	r.Post("/auth/register", RegisterHandler(tokens, users))
	r.Post("/auth/login", LoginHandler(tokens, users))
	r.Post("/auth/refresh", RefreshHandler(tokens))
	r.Post("/auth/logout", LogoutHandler())
	r.Get("/auth/me", mw.RequireUser(), MeHandler(users))
}
