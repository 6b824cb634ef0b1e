package httpx

import (
	"github.com/gofiber/fiber/v2"

	"cardvault-api/internal/httpx/kit"
)

// HealthHandler reports liveness.
//
//	@Summary      Health check
//	@Tags         health
//	@Produce      json
//	@Success      200  {object}  map[string]string
//	@Router       /health [get]
func HealthHandler(c *fiber.Ctx) error {
	return kit.OK(c, fiber.Map{"status": "ok"})
}
