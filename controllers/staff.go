package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// StaffController manages internal users (staff, owners) of the organization.
type StaffController struct{}

// GetStaff lists the organization's users
func (sc *StaffController) GetStaff(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Preload("Branch").Where("organization_id = ?", claims.OrganizationID)
	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("full_name").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch staff"})
	}

	return c.JSON(fiber.Map{"staff": users, "total": len(users)})
}

// GetStaffMember returns one user
func (sc *StaffController) GetStaffMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.Preload("Branch").
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// StaffRequest represents the staff create body (direct create, no invitation)
type StaffRequest struct {
	Username             string  `json:"username" validate:"required,min=3,max=50"`
	Password             string  `json:"password" validate:"required,min=6"`
	Email                string  `json:"email" validate:"required,email"`
	FullName             string  `json:"full_name" validate:"required"`
	Phone                string  `json:"phone"`
	Role                 string  `json:"role" validate:"required"`
	BranchID             uint    `json:"branch_id" validate:"required"`
	BaseSalary           float64 `json:"base_salary" validate:"gte=0"`
	CommissionPercentage float64 `json:"commission_percentage" validate:"gte=0,lte=100"`
}

// CreateStaffMember creates a user directly (owner only). The invitation flow
// in InviteController is the usual path; this one is for back-office setup.
func (sc *StaffController) CreateStaffMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !utils.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
	}
	if req.Role == "super_admin" && claims.Role != "super_admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot grant super_admin"})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := models.User{
		Username:             req.Username,
		Password:             hashedPassword,
		Email:                req.Email,
		Phone:                req.Phone,
		FullName:             utils.SanitizeString(req.FullName),
		Role:                 req.Role,
		OrganizationID:       claims.OrganizationID,
		BranchID:             req.BranchID,
		Status:               "active",
		BaseSalary:           req.BaseSalary,
		CommissionPercentage: req.CommissionPercentage,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already in use"})
	}

	middleware.LogActivity(c, "CREATE", "staff", user.ID, fiber.Map{
		"username": user.Username,
		"role":     user.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Staff member created successfully",
		"user":    user,
	})
}

// UpdateStaffRequest represents the staff update body
type UpdateStaffRequest struct {
	Email                string   `json:"email" validate:"omitempty,email"`
	FullName             string   `json:"full_name"`
	Phone                string   `json:"phone"`
	Role                 string   `json:"role"`
	BranchID             uint     `json:"branch_id"`
	Status               string   `json:"status"`
	BaseSalary           *float64 `json:"base_salary" validate:"omitempty,gte=0"`
	CommissionPercentage *float64 `json:"commission_percentage" validate:"omitempty,gte=0,lte=100"`
}

// UpdateStaffMember updates a user, including the payroll fields (owner only)
func (sc *StaffController) UpdateStaffMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.FullName != "" {
		updates["full_name"] = utils.SanitizeString(req.FullName)
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Role != "" {
		if !utils.IsValidRole(req.Role) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		if req.Role == "super_admin" && claims.Role != "super_admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot grant super_admin"})
		}
		updates["role"] = req.Role
	}
	if req.BranchID != 0 {
		updates["branch_id"] = req.BranchID
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.BaseSalary != nil {
		updates["base_salary"] = *req.BaseSalary
	}
	if req.CommissionPercentage != nil {
		updates["commission_percentage"] = *req.CommissionPercentage
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "staff", user.ID, updates)

	return c.JSON(fiber.Map{"message": "Staff member updated successfully", "user": user})
}

// DeactivateStaffMember sets a user inactive instead of deleting. History rows
// keep referencing the user.
func (sc *StaffController) DeactivateStaffMember(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if uint(id) == claims.UserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot deactivate yourself"})
	}

	var user models.User
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := database.DB.Model(&user).Update("status", "inactive").Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate user"})
	}

	middleware.LogActivity(c, "DEACTIVATE", "staff", user.ID, nil)

	return c.JSON(fiber.Map{"message": "Staff member deactivated successfully"})
}
