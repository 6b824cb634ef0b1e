package httpx

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
	"cardvault-api/internal/logx"
	"cardvault-api/internal/metrics"
	"cardvault-api/pkg"
)

var httpxLogger = logx.GetScope("httpx")

// RegisterCommonMiddlewares registers recover, request id, CORS, request
// metrics, timing headers and a structured access log.
func RegisterCommonMiddlewares(app *fiber.App, m *metrics.Registry) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	if m != nil {
		app.Use(mw.Metrics(m))
	}
	app.Use(timing)
}

func timing(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	latency := time.Since(start)
	c.Set("X-Response-Time", pkg.SmartDurationFormat(latency))
	c.Set("Server-Timing", fmt.Sprintf("app;dur=%.3f", float64(latency.Microseconds())/1000))
	httpxLogger.Info("access",
		zap.String("method", c.Method()),
		zap.String("path", c.OriginalURL()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Int64("latency_ms", latency.Milliseconds()),
		zap.String("ip", c.IP()),
		zap.String("ua", c.Get("User-Agent")),
		zap.String("request_id", kit.RequestID(c)),
		zap.Error(err),
	)
	return err
}
