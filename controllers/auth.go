package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// validate is shared by all controllers for request body validation
var validate = validator.New()

type AuthController struct{}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest creates a new tenant: organization, first branch and owner user
type SignupRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,min=2,max=255"`
	Industry         string `json:"industry"`
	BranchName       string `json:"branch_name" validate:"required,min=2,max=255"`
	Timezone         string `json:"timezone"`
	Username         string `json:"username" validate:"required,min=3,max=50"`
	Password         string `json:"password" validate:"required,min=6"`
	Email            string `json:"email" validate:"required,email"`
	FullName         string `json:"full_name" validate:"required"`
	Phone            string `json:"phone"`
}

// Login authenticates a user and returns a JWT token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := database.DB.Where("username = ? AND status = ?", req.Username, "active").First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	database.DB.Preload("Branch").Preload("Organization").First(&user, user.ID)

	middleware.LogActivity(c, "LOGIN", "auth", user.ID, fiber.Map{
		"username": user.Username,
		"role":     user.Role,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"email":           user.Email,
			"full_name":       user.FullName,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
			"branch_id":       user.BranchID,
		},
	})
}

// Signup creates a new organization with its first branch and owner account.
// This is the self-service onboarding entry point; it is not authenticated.
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already in use"})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "America/Caracas"
	}

	var user models.User
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		org := models.Organization{
			Name:     utils.SanitizeString(req.OrganizationName),
			Industry: req.Industry,
			Active:   true,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		branch := models.Branch{
			OrganizationID: org.ID,
			Name:           utils.SanitizeString(req.BranchName),
			Timezone:       timezone,
			Active:         true,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}

		user = models.User{
			Username:       req.Username,
			Password:       hashedPassword,
			Email:          req.Email,
			Phone:          req.Phone,
			FullName:       req.FullName,
			Role:           "owner",
			OrganizationID: org.ID,
			BranchID:       branch.ID,
			Status:         "active",
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create organization"})
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Organization created successfully",
		"token":   token,
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
			"branch_id":       user.BranchID,
		},
	})
}

// Logout invalidates the current JWT by storing it in the Redis blacklist for 24 hours
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization header"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid authorization header format"})
	}

	rc := database.GetRedisClient()
	if rc != nil {
		ctx := context.Background()
		key := "blacklist:jwt:" + tokenString
		if err := rc.Set(ctx, key, "1", 24*time.Hour).Err(); err != nil {
			// Redis failure must not block logout
			middleware.LogActivity(c, "LOGOUT", "auth", 0, fiber.Map{"error": err.Error()})
		}
	}

	if user, err := middleware.GetCurrentUser(c); err == nil {
		middleware.LogActivity(c, "LOGOUT", "auth", user.ID, fiber.Map{"username": user.Username})
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetProfile returns the current user's profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	database.DB.Preload("Branch").Preload("Organization").First(user, user.ID)

	return c.JSON(fiber.Map{"user": user})
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword updates the current user's password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := utils.CheckPassword(req.CurrentPassword, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	if err := database.DB.Model(user).Update("password", hashedPassword).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	middleware.LogActivity(c, "UPDATE", "password", user.ID, nil)

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
