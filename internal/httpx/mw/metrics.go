package mw

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/metrics"
)

// Metrics records method, route pattern, status and latency of every request.
// Errors are counted with the status the error handler will answer with.
func Metrics(m *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		m.ObserveHTTP(c.Method(), c.Route().Path, statusOf(c, err), time.Since(start))
		return err
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	var ae *kit.APIError
	mapped := kit.FromDomain(err)
	switch {
	case errors.As(mapped, &fe):
		return fe.Code
	case errors.As(mapped, &ae):
		return ae.HTTPStatus
	}
	return fiber.StatusInternalServerError
}
