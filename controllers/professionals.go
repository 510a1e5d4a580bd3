package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// ProfessionalController manages external teachers without a login.
type ProfessionalController struct{}

// GetProfessionals lists the organization's professionals
func (pc *ProfessionalController) GetProfessionals(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Where("organization_id = ?", claims.OrganizationID)
	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var professionals []models.Professional
	if err := query.Order("full_name").Find(&professionals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch professionals"})
	}

	return c.JSON(fiber.Map{"professionals": professionals, "total": len(professionals)})
}

// ProfessionalRequest represents professional create/update body
type ProfessionalRequest struct {
	FullName             string  `json:"full_name" validate:"required,min=2,max=200"`
	Phone                string  `json:"phone"`
	BranchID             uint    `json:"branch_id"`
	BaseSalary           float64 `json:"base_salary" validate:"gte=0"`
	CommissionPercentage float64 `json:"commission_percentage" validate:"gte=0,lte=100"`
	Active               *bool   `json:"active"`
}

// CreateProfessional creates an external teacher
func (pc *ProfessionalController) CreateProfessional(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req ProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = claims.BranchID
	}

	professional := models.Professional{
		OrganizationID:       claims.OrganizationID,
		BranchID:             branchID,
		FullName:             utils.SanitizeString(req.FullName),
		Phone:                req.Phone,
		BaseSalary:           req.BaseSalary,
		CommissionPercentage: req.CommissionPercentage,
		Active:               true,
	}
	if err := database.DB.Create(&professional).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create professional"})
	}

	middleware.LogActivity(c, "CREATE", "professionals", professional.ID, fiber.Map{
		"name": professional.FullName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Professional created successfully",
		"professional": professional,
	})
}

// UpdateProfessional updates an external teacher
func (pc *ProfessionalController) UpdateProfessional(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional ID"})
	}

	var professional models.Professional
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&professional).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Professional not found"})
	}

	var req ProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"full_name":             utils.SanitizeString(req.FullName),
		"phone":                 req.Phone,
		"base_salary":           req.BaseSalary,
		"commission_percentage": req.CommissionPercentage,
	}
	if req.BranchID != 0 {
		updates["branch_id"] = req.BranchID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := database.DB.Model(&professional).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update professional"})
	}

	middleware.LogActivity(c, "UPDATE", "professionals", professional.ID, updates)

	return c.JSON(fiber.Map{"message": "Professional updated successfully", "professional": professional})
}

// DeleteProfessional soft-deletes an external teacher
func (pc *ProfessionalController) DeleteProfessional(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional ID"})
	}

	var professional models.Professional
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&professional).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Professional not found"})
	}

	if err := database.DB.Delete(&professional).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete professional"})
	}

	middleware.LogActivity(c, "DELETE", "professionals", professional.ID, nil)

	return c.JSON(fiber.Map{"message": "Professional deleted successfully"})
}
