package httpserver

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tradewatch/monitor/internal/coordinator"
	"github.com/tradewatch/monitor/internal/observability"
	"github.com/tradewatch/monitor/services/api/internal/monitoringtrigger"
)

// New builds the fiber app. monitor and health may be nil (e.g. Redis or
// DB unavailable at startup), in which case the monitoring trigger route
// is not registered and /health reports "ok" without a dependency check.
func New(monitor *coordinator.Coordinator, health *observability.HealthChecker) *fiber.App {
	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":  "trade monitoring API is running",
			"docs_url": "/docs",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if health == nil {
			return c.JSON(fiber.Map{"status": "ok"})
		}
		report := health.Check(c.Context())
		status := fiber.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(report)
	})

	if monitor != nil {
		monitoringtrigger.Register(app, monitor)
	}

	return app
}
