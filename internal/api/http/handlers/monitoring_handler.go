package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/observability"
)

// MonitoringHandler exposes in-process counters to operators.
type MonitoringHandler struct {
	metrics *observability.Metrics
}

// NewMonitoringHandler returns a new handler instance.
func NewMonitoringHandler(metrics *observability.Metrics) *MonitoringHandler {
	return &MonitoringHandler{metrics: metrics}
}

// Metrics GET /monitoring/metrics. Admin only.
func (h *MonitoringHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Report()})
}
