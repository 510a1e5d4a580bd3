package controllers

import (
	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
)

// StaffScheduleController manages weekly availability rows. These windows drive
// the private-class detection at booking time.
type StaffScheduleController struct{}

// GetSchedules lists availability rows, filterable by teacher and branch
func (ssc *StaffScheduleController) GetSchedules(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.
		Joins("JOIN branches ON branches.id = staff_schedules.branch_id").
		Where("branches.organization_id = ?", claims.OrganizationID)

	if profileID := c.QueryInt("profile_id"); profileID > 0 {
		query = query.Where("staff_schedules.profile_id = ?", profileID)
	}
	if professionalID := c.QueryInt("professional_id"); professionalID > 0 {
		query = query.Where("staff_schedules.professional_id = ?", professionalID)
	}
	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("staff_schedules.branch_id = ?", branchID)
	}

	var schedules []models.StaffSchedule
	if err := query.Order("staff_schedules.weekday, staff_schedules.start_time").
		Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch schedules"})
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

// ScheduleRequest represents availability create/update body
type ScheduleRequest struct {
	ProfileID      *uint  `json:"profile_id"`
	ProfessionalID *uint  `json:"professional_id"`
	BranchID       uint   `json:"branch_id" validate:"required"`
	Weekday        int    `json:"weekday" validate:"gte=0,lte=6"`
	StartTime      string `json:"start_time" validate:"required,len=5"`
	EndTime        string `json:"end_time" validate:"required,len=5"`
}

// CreateSchedule adds one weekly availability window
func (ssc *StaffScheduleController) CreateSchedule(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if (req.ProfileID == nil) == (req.ProfessionalID == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Exactly one of profile_id or professional_id must be set",
		})
	}
	if req.StartTime >= req.EndTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
	}

	var branch models.Branch
	if err := database.DB.Where("id = ? AND organization_id = ?", req.BranchID, claims.OrganizationID).
		First(&branch).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	schedule := models.StaffSchedule{
		ProfileID:      req.ProfileID,
		ProfessionalID: req.ProfessionalID,
		BranchID:       req.BranchID,
		Weekday:        req.Weekday,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	}
	if err := database.DB.Create(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create schedule"})
	}

	middleware.LogActivity(c, "CREATE", "staff_schedules", schedule.ID, fiber.Map{
		"weekday": schedule.Weekday,
		"window":  schedule.StartTime + "-" + schedule.EndTime,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Schedule created successfully",
		"schedule": schedule,
	})
}

// UpdateSchedule updates one availability window
func (ssc *StaffScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule models.StaffSchedule
	if err := database.DB.
		Joins("JOIN branches ON branches.id = staff_schedules.branch_id").
		Where("staff_schedules.id = ? AND branches.organization_id = ?", id, claims.OrganizationID).
		First(&schedule).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.StartTime >= req.EndTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
	}

	updates := map[string]interface{}{
		"weekday":    req.Weekday,
		"start_time": req.StartTime,
		"end_time":   req.EndTime,
	}
	if req.BranchID != 0 {
		updates["branch_id"] = req.BranchID
	}
	if err := database.DB.Model(&schedule).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update schedule"})
	}

	middleware.LogActivity(c, "UPDATE", "staff_schedules", schedule.ID, updates)

	return c.JSON(fiber.Map{"message": "Schedule updated successfully", "schedule": schedule})
}

// DeleteSchedule removes one availability window
func (ssc *StaffScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule models.StaffSchedule
	if err := database.DB.
		Joins("JOIN branches ON branches.id = staff_schedules.branch_id").
		Where("staff_schedules.id = ? AND branches.organization_id = ?", id, claims.OrganizationID).
		First(&schedule).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	if err := database.DB.Delete(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete schedule"})
	}

	middleware.LogActivity(c, "DELETE", "staff_schedules", schedule.ID, nil)

	return c.JSON(fiber.Map{"message": "Schedule deleted successfully"})
}
