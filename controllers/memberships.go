package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/services"
	"studiopulse_go/utils"
)

// MembershipController exposes the enrollment wizard and membership management.
type MembershipController struct{}

// EnrollRequest represents the enrollment wizard body. Either student_id or
// new_student must be present. An empty payment_method enrolls without charging.
type EnrollRequest struct {
	StudentID     uint                        `json:"student_id"`
	NewStudent    *services.NewStudentInput   `json:"new_student"`
	PlanID        uint                        `json:"plan_id" validate:"required"`
	StartDate     string                      `json:"start_date"` // YYYY-MM-DD, empty = today
	PaymentMethod string                      `json:"payment_method"`
	BranchID      uint                        `json:"branch_id"`
}

// Enroll runs the shared enrollment path: optional quick student creation,
// membership with computed end date, optional payment. The finance "sell plan"
// flow posts to the same endpoint.
func (mc *MembershipController) Enroll(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.NewStudent != nil {
		if err := validate.Struct(req.NewStudent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	if req.PaymentMethod != "" && !utils.IsValidPaymentMethod(req.PaymentMethod) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment method"})
	}

	var startDate time.Time
	if req.StartDate != "" {
		startDate, err = time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date, expected YYYY-MM-DD"})
		}
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = claims.BranchID
	}

	result, err := services.NewMembershipService().Enroll(services.EnrollmentRequest{
		OrganizationID: claims.OrganizationID,
		BranchID:       branchID,
		StudentID:      req.StudentID,
		NewStudent:     req.NewStudent,
		PlanID:         req.PlanID,
		StartDate:      startDate,
		PaymentMethod:  req.PaymentMethod,
	}, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
		case errors.Is(err, services.ErrStudentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		case errors.Is(err, services.ErrStudentRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to enroll student"})
		}
	}

	middleware.LogActivity(c, "CREATE", "memberships", result.Membership.ID, fiber.Map{
		"student_id": result.Student.ID,
		"plan_id":    req.PlanID,
		"charged":    result.Transaction != nil,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Enrollment completed successfully",
		"membership":  result.Membership,
		"student":     result.Student,
		"transaction": result.Transaction,
	})
}

// GetStudentMemberships lists a student's membership history
func (mc *MembershipController) GetStudentMemberships(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	studentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND organization_id = ?", studentID, claims.OrganizationID).
		First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var memberships []models.Membership
	if err := database.DB.Preload("Plan").Preload("Plan.Services").
		Where("student_id = ?", student.ID).
		Order("start_date DESC").Find(&memberships).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch memberships"})
	}

	return c.JSON(fiber.Map{"memberships": memberships})
}

// CancelMembership marks a membership cancelled (owner only)
func (mc *MembershipController) CancelMembership(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid membership ID"})
	}

	if err := services.NewMembershipService().Cancel(uint(id), claims.OrganizationID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Membership not found"})
	}

	middleware.LogActivity(c, "CANCEL", "memberships", uint(id), nil)

	return c.JSON(fiber.Map{"message": "Membership cancelled successfully"})
}

// ExpireOverdueMemberships triggers the nightly expiry sweep on demand (owner only)
func (mc *MembershipController) ExpireOverdueMemberships(c *fiber.Ctx) error {
	expired, err := services.NewMembershipService().ExpireOverdue()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to expire memberships"})
	}

	middleware.LogActivity(c, "EXPIRE", "memberships", 0, fiber.Map{"expired": expired})

	return c.JSON(fiber.Map{"message": "Expiry sweep completed", "expired": expired})
}
