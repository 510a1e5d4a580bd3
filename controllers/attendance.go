package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"studiopulse_go/database"
	"studiopulse_go/middleware"
	"studiopulse_go/models"
	"studiopulse_go/services"
	"studiopulse_go/utils"
)

// AttendanceController exposes the attendance drawer: day groups, per-class
// roster, save and walk-in search.
type AttendanceController struct{}

// GetDayGroups returns a date's classes grouped by (time, service).
// Query params: date (YYYY-MM-DD, default today), branch_id.
func (ac *AttendanceController) GetDayGroups(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	date := time.Now()
	if d := c.Query("date"); d != "" {
		date, err = time.ParseInLocation("2006-01-02", d, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
	}
	branchID := uint(0)
	if b := c.QueryInt("branch_id"); b > 0 {
		branchID = uint(b)
	}

	groups, err := services.NewAttendanceService().DayGroups(claims.OrganizationID, branchID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch day groups"})
	}

	return c.JSON(fiber.Map{
		"date":   date.Format("2006-01-02"),
		"groups": groups,
	})
}

// RosterRequest identifies one class group by its appointment ids
type RosterRequest struct {
	ServiceID      uint   `json:"service_id" validate:"required"`
	AppointmentIDs []uint `json:"appointment_ids" validate:"required,min=1"`
}

// GetRoster builds the editable roster for a class group
func (ac *AttendanceController) GetRoster(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req RosterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Appointments must belong to the tenant
	var count int64
	database.DB.Model(&models.Appointment{}).
		Where("id IN ? AND organization_id = ?", req.AppointmentIDs, claims.OrganizationID).
		Count(&count)
	if count != int64(len(req.AppointmentIDs)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}

	roster, err := services.NewAttendanceService().BuildRoster(claims.OrganizationID, req.ServiceID, req.AppointmentIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build roster"})
	}

	return c.JSON(roster)
}

// SaveAttendanceRequest carries the drawer's final statuses
type SaveAttendanceRequest struct {
	AppointmentID uint                    `json:"appointment_id" validate:"required"`
	Entries       []services.RosterEntry  `json:"entries" validate:"required,min=1"`
}

// SaveAttendance upserts the roster's statuses for the class's canonical
// appointment. Saving twice with the same content is idempotent.
func (ac *AttendanceController) SaveAttendance(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req SaveAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var appointment models.Appointment
	if err := database.DB.Where("id = ? AND organization_id = ?", req.AppointmentID, claims.OrganizationID).
		First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}

	for _, e := range req.Entries {
		if !utils.IsValidAttendanceStatus(e.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attendance status: " + e.Status})
		}
	}

	if err := services.NewAttendanceService().SaveAttendance(req.AppointmentID, req.Entries, claims.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save attendance"})
	}

	middleware.LogActivity(c, "SAVE", "attendance", req.AppointmentID, fiber.Map{
		"entries": len(req.Entries),
	})

	return c.JSON(fiber.Map{"message": "Attendance saved successfully", "saved": len(req.Entries)})
}

// SearchWalkIns live-searches students to add to a roster.
// Query params: q (min 2 chars), exclude (comma-separated student ids).
func (ac *AttendanceController) SearchWalkIns(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var excludeIDs []uint
	for _, part := range strings.Split(c.Query("exclude"), ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
			excludeIDs = append(excludeIDs, uint(id))
		}
	}

	students, err := services.NewAttendanceService().SearchWalkIns(claims.OrganizationID, c.Query("q"), excludeIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search students"})
	}

	results := make([]utils.StudentShort, 0, len(students))
	for _, s := range students {
		results = append(results, utils.StudentShort{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName})
	}

	return c.JSON(fiber.Map{"students": results})
}

// GetAttendanceHistory lists saved records for an appointment
func (ac *AttendanceController) GetAttendanceHistory(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	var appointment models.Appointment
	if err := database.DB.Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}

	var records []models.AttendanceRecord
	if err := database.DB.Preload("Student").
		Where("appointment_id = ?", appointment.ID).
		Order("updated_at DESC").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	return c.JSON(fiber.Map{"records": records})
}
