package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// ServiceController manages bookable class types.
type ServiceController struct{}

// GetServices lists the organization's services
func (svc *ServiceController) GetServices(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Where("organization_id = ?", claims.OrganizationID)
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var services []models.Service
	if err := query.Order("name").Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch services"})
	}

	return c.JSON(fiber.Map{"services": services})
}

// ServiceRequest represents service create/update body
type ServiceRequest struct {
	Name   string  `json:"name" validate:"required,min=2,max=255"`
	Price  float64 `json:"price" validate:"gte=0"`
	Active *bool   `json:"active"`
}

// CreateService creates a class type
func (svc *ServiceController) CreateService(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	service := models.Service{
		OrganizationID: claims.OrganizationID,
		Name:           utils.SanitizeString(req.Name),
		Price:          req.Price,
		Active:         true,
	}
	if err := database.DB.Create(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}

	middleware.LogActivity(c, "CREATE", "services", service.ID, fiber.Map{"name": service.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Service created successfully",
		"service": service,
	})
}

// UpdateService updates a class type. Price changes do not touch existing
// appointments; those keep their price_at_booking snapshot.
func (svc *ServiceController) UpdateService(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service ID"})
	}

	var service models.Service
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&service).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"name":  utils.SanitizeString(req.Name),
		"price": req.Price,
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := database.DB.Model(&service).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}

	middleware.LogActivity(c, "UPDATE", "services", service.ID, updates)

	return c.JSON(fiber.Map{"message": "Service updated successfully", "service": service})
}

// DeleteService soft-deletes a class type when nothing references it
func (svc *ServiceController) DeleteService(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service ID"})
	}

	var service models.Service
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&service).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	var appointments int64
	database.DB.Model(&models.Appointment{}).Where("service_id = ?", service.ID).Count(&appointments)
	if appointments > 0 {
		// Keep historical references valid; deactivate instead
		database.DB.Model(&service).Update("active", false)
		return c.JSON(fiber.Map{"message": "Service has appointments; deactivated instead of deleted"})
	}

	if err := database.DB.Delete(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete service"})
	}

	middleware.LogActivity(c, "DELETE", "services", service.ID, nil)

	return c.JSON(fiber.Map{"message": "Service deleted successfully"})
}
