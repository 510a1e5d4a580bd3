package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/services"
	"studiopulse_go/utils"
)

// InviteController handles staff invitations: an owner creates a pending user
// with a one-shot token, the invitee accepts with their own credentials.
type InviteController struct{}

const inviteTTL = 7 * 24 * time.Hour

// InviteRequest represents invite creation body (owner only)
type InviteRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=200"`
	Role     string `json:"role" validate:"required"`
	BranchID uint   `json:"branch_id"`
}

// CreateInvite creates a pending staff user and emails the invitation link
func (ic *InviteController) CreateInvite(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !utils.IsValidRole(req.Role) || req.Role == "super_admin" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
	}

	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = user.BranchID
	}

	token := uuid.NewString()
	expires := time.Now().Add(inviteTTL)
	invited := models.User{
		Email:             req.Email,
		FullName:          utils.SanitizeString(req.FullName),
		Role:              req.Role,
		OrganizationID:    user.OrganizationID,
		BranchID:          branchID,
		Status:            "pending",
		InvitationToken:   token,
		InvitationExpires: &expires,
	}
	if err := database.DB.Create(&invited).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create invitation"})
	}

	var org models.Organization
	database.DB.First(&org, user.OrganizationID)
	if err := services.NewMailer().SendInvitation(req.Email, invited.FullName, org.Name, token); err != nil {
		logrus.WithError(err).Warn("Invitation created but email delivery failed")
	}

	middleware.LogActivity(c, "CREATE", "invites", invited.ID, fiber.Map{
		"email": req.Email,
		"role":  req.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invitation sent successfully",
		"user": fiber.Map{
			"id":        invited.ID,
			"email":     invited.Email,
			"full_name": invited.FullName,
			"role":      invited.Role,
			"status":    invited.Status,
			"expires":   expires,
		},
	})
}

// AcceptInviteRequest represents the public acceptance body
type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

// AcceptInvite is public: the invitee picks credentials and activates the
// pending account. The token is single-use.
func (ic *InviteController) AcceptInvite(c *fiber.Ctx) error {
	var req AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := database.DB.Where("invitation_token = ? AND status = ?", req.Token, "pending").
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invitation not found"})
	}
	if user.InvitationExpires == nil || user.InvitationExpires.Before(time.Now()) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Invitation has expired"})
	}

	var taken int64
	database.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&taken)
	if taken > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already taken"})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process password"})
	}

	updates := map[string]interface{}{
		"username":           req.Username,
		"password":           hashed,
		"status":             "active",
		"invitation_token":   "",
		"invitation_expires": nil,
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to activate account"})
	}

	user.Username = req.Username
	user.Status = "active"
	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Account activated but token generation failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Invitation accepted successfully",
		"token":   token,
		"user": fiber.Map{
			"id":        user.ID,
			"username":  req.Username,
			"full_name": user.FullName,
			"role":      user.Role,
		},
	})
}
