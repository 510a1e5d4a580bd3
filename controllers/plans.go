package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// PlanController manages membership products and their service access.
type PlanController struct{}

// GetPlans lists plans with their linked services
func (pc *PlanController) GetPlans(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Preload("Services").Where("organization_id = ?", claims.OrganizationID)
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var plans []models.Plan
	if err := query.Order("name").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plans"})
	}

	return c.JSON(fiber.Map{"plans": plans})
}

// PlanRequest represents plan create/update body. ServiceIDs replaces the
// plan's service access set wholesale.
type PlanRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=255"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	ServiceIDs   []uint  `json:"service_ids" validate:"required,min=1"`
	Active       *bool   `json:"active"`
}

// loadOrgServices fetches the requested services, ensuring they all belong to
// the organization.
func loadOrgServices(organizationID uint, serviceIDs []uint) ([]models.Service, error) {
	var services []models.Service
	err := database.DB.Where("id IN ? AND organization_id = ?", serviceIDs, organizationID).
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	if len(services) != len(serviceIDs) {
		return nil, gorm.ErrRecordNotFound
	}
	return services, nil
}

// CreatePlan creates a plan and links its services
func (pc *PlanController) CreatePlan(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	services, err := loadOrgServices(claims.OrganizationID, req.ServiceIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "One or more services not found"})
	}

	plan := models.Plan{
		OrganizationID: claims.OrganizationID,
		Name:           utils.SanitizeString(req.Name),
		DurationDays:   req.DurationDays,
		Price:          req.Price,
		Active:         true,
		Services:       services,
	}
	if err := database.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create plan"})
	}

	middleware.LogActivity(c, "CREATE", "plans", plan.ID, fiber.Map{
		"name":        plan.Name,
		"service_ids": req.ServiceIDs,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Plan created successfully",
		"plan":    plan,
	})
}

// UpdatePlan updates a plan and replaces its service access set. Duration and
// price changes only affect future memberships; existing ones keep their dates.
func (pc *PlanController) UpdatePlan(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	services, err := loadOrgServices(claims.OrganizationID, req.ServiceIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "One or more services not found"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":          utils.SanitizeString(req.Name),
			"duration_days": req.DurationDays,
			"price":         req.Price,
		}
		if req.Active != nil {
			updates["active"] = *req.Active
		}
		if err := tx.Model(&plan).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&plan).Association("Services").Replace(services)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update plan"})
	}

	middleware.LogActivity(c, "UPDATE", "plans", plan.ID, fiber.Map{"service_ids": req.ServiceIDs})

	database.DB.Preload("Services").First(&plan, plan.ID)
	return c.JSON(fiber.Map{"message": "Plan updated successfully", "plan": plan})
}

// DeletePlan soft-deletes a plan when no membership references it, otherwise
// deactivates it.
func (pc *PlanController) DeletePlan(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	var memberships int64
	database.DB.Model(&models.Membership{}).Where("plan_id = ?", plan.ID).Count(&memberships)
	if memberships > 0 {
		database.DB.Model(&plan).Update("active", false)
		return c.JSON(fiber.Map{"message": "Plan has memberships; deactivated instead of deleted"})
	}

	if err := database.DB.Delete(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete plan"})
	}

	middleware.LogActivity(c, "DELETE", "plans", plan.ID, nil)

	return c.JSON(fiber.Map{"message": "Plan deleted successfully"})
}
