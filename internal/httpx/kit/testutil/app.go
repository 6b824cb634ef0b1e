// Package testutil builds Fiber apps for handler tests.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
)

// AnonymousHeader makes a request skip the identity installed by AsUser.
const AnonymousHeader = "X-Test-Anonymous"

// NewApp returns an app with the unified error handler, then applies mounts in order.
func NewApp(mounts ...func(*fiber.App)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	for _, m := range mounts {
		if m != nil {
			m(app)
		}
	}
	return app
}

// AsUser authenticates every request as uid, unless AnonymousHeader is set.
func AsUser(uid uuid.UUID) func(*fiber.App) {
	return func(app *fiber.App) {
		app.Use(func(c *fiber.Ctx) error {
			if c.Get(AnonymousHeader) == "" {
				mw.SetAuth(c, &mw.AuthContext{Subject: "user:" + uid.String(), Kind: mw.KindUser})
			}
			return c.Next()
		})
	}
}
