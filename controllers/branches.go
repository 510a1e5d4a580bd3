package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

type BranchController struct{}

// GetBranches returns all branches of the current organization
func (bc *BranchController) GetBranches(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var branches []models.Branch
	if err := database.DB.Where("organization_id = ?", claims.OrganizationID).
		Order("name").Find(&branches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch branches"})
	}

	return c.JSON(fiber.Map{"branches": branches})
}

// GetBranch returns a specific branch
func (bc *BranchController) GetBranch(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branch ID"})
	}

	var branch models.Branch
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&branch).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	return c.JSON(fiber.Map{"branch": branch})
}

// BranchRequest represents branch create/update body
type BranchRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
	Active   *bool  `json:"active"`
}

// CreateBranch creates a new branch (owner only)
func (bc *BranchController) CreateBranch(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branch := models.Branch{
		OrganizationID: claims.OrganizationID,
		Name:           utils.SanitizeString(req.Name),
		Address:        req.Address,
		Active:         true,
	}
	if req.Timezone != "" {
		branch.Timezone = req.Timezone
	}
	if err := database.DB.Create(&branch).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create branch"})
	}

	middleware.LogActivity(c, "CREATE", "branches", branch.ID, fiber.Map{"name": branch.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Branch created successfully",
		"branch":  branch,
	})
}

// UpdateBranch updates an existing branch (owner only)
func (bc *BranchController) UpdateBranch(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branch ID"})
	}

	var branch models.Branch
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&branch).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	var req BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"name":    utils.SanitizeString(req.Name),
		"address": req.Address,
	}
	if req.Timezone != "" {
		updates["timezone"] = req.Timezone
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := database.DB.Model(&branch).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update branch"})
	}

	middleware.LogActivity(c, "UPDATE", "branches", branch.ID, updates)

	return c.JSON(fiber.Map{"message": "Branch updated successfully", "branch": branch})
}

// DeleteBranch soft-deletes a branch (owner only)
func (bc *BranchController) DeleteBranch(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branch ID"})
	}

	var branch models.Branch
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&branch).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	var appointments int64
	database.DB.Model(&models.Appointment{}).Where("branch_id = ?", branch.ID).Count(&appointments)
	if appointments > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Branch has appointments and cannot be deleted",
		})
	}

	if err := database.DB.Delete(&branch).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete branch"})
	}

	middleware.LogActivity(c, "DELETE", "branches", branch.ID, nil)

	return c.JSON(fiber.Map{"message": "Branch deleted successfully"})
}
