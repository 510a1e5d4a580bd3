package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/services"
)

// AppVersion is stamped at build time via -ldflags.
var AppVersion = "dev"

// HealthController reports service and dependency health.
type HealthController struct {
	service *services.HealthService
}

func NewHealthController() *HealthController {
	return &HealthController{
		service: services.NewHealthService("StudioPulse API", AppVersion),
	}
}

// GetHealth returns the full health report. Critical dependencies down yield 503.
func (hc *HealthController) GetHealth(c *fiber.Ctx) error {
	report := hc.service.GetHealthReport()
	return c.Status(hc.service.HTTPStatusForOverall(report.Status)).JSON(report)
}
