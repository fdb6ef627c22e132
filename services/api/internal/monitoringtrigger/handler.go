// Package monitoringtrigger adapts the root module's monitoring core
// into an HTTP entry point: POST /v1/monitoring/run invokes
// coordinator.RunMonitoring and marshals its RunSummary, per the core
// spec's external trigger-surface contract. This package is a thin
// wrapper compiled against the core library, not a network hop.
package monitoringtrigger

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tradewatch/monitor/internal/coordinator"
)

// Handler wraps a *coordinator.Coordinator as a fiber route handler.
type Handler struct {
	coordinator *coordinator.Coordinator
}

// New builds a Handler.
func New(c *coordinator.Coordinator) *Handler {
	return &Handler{coordinator: c}
}

// Run handles POST /v1/monitoring/run.
func (h *Handler) Run(c *fiber.Ctx) error {
	summary, err := h.coordinator.RunMonitoring(c.Context())
	if err != nil && summary.Status == coordinator.StatusServiceUnavailable {
		return c.Status(fiber.StatusServiceUnavailable).JSON(summary)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// Register mounts the route on app.
func Register(app *fiber.App, c *coordinator.Coordinator) {
	h := New(c)
	app.Post("/v1/monitoring/run", h.Run)
}
