package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/service"
)

type HealthHandler struct {
	s service.HealthService
}

func NewHealthHandler(service service.HealthService) *HealthHandler {
	return &HealthHandler{s: service}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	report, err := h.s.Report(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
		})
	}

	return c.JSON(report)
}
