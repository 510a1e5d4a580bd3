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

// AppointmentController exposes the booking flow built on BookingService.
type AppointmentController struct{}

// GetAppointments lists appointments in a date range.
// Query params: from, to (YYYY-MM-DD), branch_id, profile_id, professional_id.
func (ac *AppointmentController) GetAppointments(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := database.DB.Preload("Service").Preload("Profile").Preload("Professional").
		Preload("Attendees").Preload("Attendees.Student").
		Where("organization_id = ? AND start_time >= ? AND start_time < ?", claims.OrganizationID, from, to)

	if branchID := c.QueryInt("branch_id"); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if profileID := c.QueryInt("profile_id"); profileID > 0 {
		query = query.Where("profile_id = ?", profileID)
	}
	if professionalID := c.QueryInt("professional_id"); professionalID > 0 {
		query = query.Where("professional_id = ?", professionalID)
	}

	var appointments []models.Appointment
	if err := query.Order("start_time").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch appointments"})
	}

	type appointmentDTO struct {
		models.Appointment
		Teacher utils.TeacherRef `json:"teacher"`
	}
	dtos := make([]appointmentDTO, 0, len(appointments))
	for _, a := range appointments {
		dtos = append(dtos, appointmentDTO{Appointment: a, Teacher: utils.AppointmentTeacher(a)})
	}

	return c.JSON(fiber.Map{"appointments": dtos, "total": len(dtos)})
}

// parseDateRange resolves the [from, to) window, defaulting to today.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 1)
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1) // inclusive end date
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// AppointmentRequest represents booking create/update body
type AppointmentRequest struct {
	ServiceID       uint   `json:"service_id" validate:"required"`
	BranchID        uint   `json:"branch_id"`
	StartTime       string `json:"start_time" validate:"required"` // RFC 3339
	DurationMinutes int    `json:"duration_minutes"`
	ProfileID       *uint  `json:"profile_id"`
	ProfessionalID  *uint  `json:"professional_id"`
	StudentIDs      []uint `json:"student_ids" validate:"required,min=1"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

func (r *AppointmentRequest) toBookingRequest(id, organizationID, defaultBranchID uint) (services.BookingRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return services.BookingRequest{}, errors.New("invalid start_time, expected RFC 3339")
	}
	branchID := r.BranchID
	if branchID == 0 {
		branchID = defaultBranchID
	}
	duration := r.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	return services.BookingRequest{
		ID:              id,
		OrganizationID:  organizationID,
		BranchID:        branchID,
		ServiceID:       r.ServiceID,
		StartTime:       start,
		DurationMinutes: duration,
		ProfileID:       r.ProfileID,
		ProfessionalID:  r.ProfessionalID,
		StudentIDs:      r.StudentIDs,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
	}, nil
}

// CreateAppointment books a class: detects private classes, applies membership
// coverage and charges uncovered attendees, all in one transaction.
func (ac *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	return ac.saveAppointment(c, 0)
}

// UpdateAppointment edits a booking. Edits never create charges and keep the
// original price snapshot.
func (ac *AppointmentController) UpdateAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}
	return ac.saveAppointment(c, uint(id))
}

func (ac *AppointmentController) saveAppointment(c *fiber.Ctx, id uint) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.PaymentMethod != "" && !utils.IsValidPaymentMethod(req.PaymentMethod) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment method"})
	}

	bookingReq, err := req.toBookingRequest(id, claims.OrganizationID, claims.BranchID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := services.NewBookingService().SaveAppointment(bookingReq, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTeacherRequired),
			errors.Is(err, services.ErrNoStudents):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrServiceNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		case errors.Is(err, services.ErrAppointmentScope):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save appointment"})
		}
	}

	action := "UPDATE"
	status := fiber.StatusOK
	if id == 0 {
		action = "CREATE"
		status = fiber.StatusCreated
	}
	middleware.LogActivity(c, action, "appointments", result.Appointment.ID, fiber.Map{
		"covered": result.Covered,
		"charged": result.Charged,
		"private": result.Appointment.IsPrivateClass,
	})

	return c.Status(status).JSON(result)
}

// PreviewCoverage reports, before saving, which of the selected students are
// covered by a membership for the chosen service and who would be charged.
func (ac *AppointmentController) PreviewCoverage(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		ServiceID  uint   `json:"service_id" validate:"required"`
		StudentIDs []uint `json:"student_ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var service models.Service
	if err := database.DB.Where("id = ? AND organization_id = ?", req.ServiceID, claims.OrganizationID).
		First(&service).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	coverage, err := services.NewBookingService().CoverageForStudents(req.ServiceID, req.StudentIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check coverage"})
	}

	type entry struct {
		StudentID    uint    `json:"student_id"`
		Covered      bool    `json:"covered"`
		MembershipID *uint   `json:"membership_id,omitempty"`
		PlanName     string  `json:"plan_name,omitempty"`
		Price        float64 `json:"price,omitempty"`
	}
	entries := make([]entry, 0, len(req.StudentIDs))
	var toCharge int
	for _, sid := range req.StudentIDs {
		e := entry{StudentID: sid}
		if m := coverage[sid]; m != nil {
			e.Covered = true
			id := m.ID
			e.MembershipID = &id
			e.PlanName = m.Plan.Name
		} else {
			e.Price = service.Price
			toCharge++
		}
		entries = append(entries, e)
	}

	return c.JSON(fiber.Map{
		"entries":      entries,
		"to_charge":    toCharge,
		"charge_total": float64(toCharge) * service.Price,
	})
}

// DeleteAppointment removes a booking and its attendee rows. Attendance history
// is preserved.
func (ac *AppointmentController) DeleteAppointment(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	if err := services.NewBookingService().DeleteAppointment(uint(id), claims.OrganizationID); err != nil {
		if errors.Is(err, services.ErrAppointmentScope) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}

	middleware.LogActivity(c, "DELETE", "appointments", uint(id), nil)

	return c.JSON(fiber.Map{"message": "Appointment deleted successfully"})
}
