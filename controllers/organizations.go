package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

type OrganizationController struct{}

// GetOrganization returns the current tenant
func (oc *OrganizationController) GetOrganization(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var org models.Organization
	if err := database.DB.Preload("Branches").First(&org, claims.OrganizationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Organization not found"})
	}

	return c.JSON(fiber.Map{
		"organization": org,
		"has_pin":      org.SecurityPin != "",
	})
}

// UpdateOrganizationRequest represents editable organization fields
type UpdateOrganizationRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=255"`
	Industry string `json:"industry"`
}

// UpdateOrganization updates tenant settings (owner only)
func (oc *OrganizationController) UpdateOrganization(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req UpdateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var org models.Organization
	if err := database.DB.First(&org, claims.OrganizationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Organization not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Industry != "" {
		updates["industry"] = req.Industry
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&org).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update organization"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "organizations", org.ID, updates)

	return c.JSON(fiber.Map{"message": "Organization updated successfully", "organization": org})
}

// SetPinRequest represents the security PIN update body
type SetPinRequest struct {
	Pin        string `json:"pin" validate:"required,len=4,numeric"`
	CurrentPin string `json:"current_pin"`
}

// SetSecurityPin sets or rotates the organization's security PIN. Rotating
// requires the current PIN.
func (oc *OrganizationController) SetSecurityPin(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req SetPinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var org models.Organization
	if err := database.DB.First(&org, claims.OrganizationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Organization not found"})
	}

	if org.SecurityPin != "" {
		if err := utils.CheckPin(req.CurrentPin, org.SecurityPin); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current PIN is incorrect"})
		}
	}

	hash, err := utils.HashPin(req.Pin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash PIN"})
	}
	if err := database.DB.Model(&org).Update("security_pin", hash).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update PIN"})
	}

	middleware.LogActivity(c, "UPDATE", "security_pin", org.ID, nil)

	return c.JSON(fiber.Map{"message": "Security PIN updated successfully"})
}

// VerifyPinRequest represents the PIN verification body
type VerifyPinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

// VerifySecurityPin checks the organization PIN before a destructive action.
// The PIN is verified server-side; the hash never leaves the database.
func (oc *OrganizationController) VerifySecurityPin(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req VerifyPinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var org models.Organization
	if err := database.DB.First(&org, claims.OrganizationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Organization not found"})
	}

	if org.SecurityPin == "" {
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{"error": "No security PIN configured"})
	}
	if err := utils.CheckPin(req.Pin, org.SecurityPin); err != nil {
		middleware.LogActivity(c, "PIN_FAILED", "security_pin", org.ID, nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect PIN", "verified": false})
	}

	return c.JSON(fiber.Map{"verified": true})
}
