package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/models"
)

// BookingService owns the appointment save flow: teacher assignment, private
// class detection, membership coverage and billing of uncovered attendees.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService() *BookingService {
	return &BookingService{db: database.DB}
}

// BookingRequest is the validated input for creating or updating one appointment.
type BookingRequest struct {
	ID              uint // 0 = create
	OrganizationID  uint
	BranchID        uint
	ServiceID       uint
	StartTime       time.Time
	DurationMinutes int
	ProfileID       *uint
	ProfessionalID  *uint
	StudentIDs      []uint
	PaymentMethod   string
	Notes           string
}

// BookingResult summarizes what the save did, for the confirmation toast.
type BookingResult struct {
	Appointment  *models.Appointment `json:"appointment"`
	Covered      int                 `json:"covered"`
	Charged      int                 `json:"charged"`
	ChargedTotal float64             `json:"charged_total"`
	Message      string              `json:"message"`
}

var (
	ErrTeacherRequired  = errors.New("exactly one of profile_id or professional_id must be set")
	ErrNoStudents       = errors.New("at least one student must be selected")
	ErrServiceNotFound  = errors.New("service not found")
	ErrAppointmentScope = errors.New("appointment does not belong to this organization")
)

// parseHourMinute extracts hour and minute from a "HH:MM" string.
func parseHourMinute(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// minutesOfDay returns minutes elapsed since midnight for t.
func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsOutsideSchedule reports whether a class at `minutes` past midnight falls
// outside the half-open window [start, end) of a schedule row.
func IsOutsideSchedule(startHHMM, endHHMM string, minutes int) (bool, error) {
	sh, sm, err := parseHourMinute(startHHMM)
	if err != nil {
		return false, err
	}
	eh, em, err := parseHourMinute(endHHMM)
	if err != nil {
		return false, err
	}
	start := sh*60 + sm
	end := eh*60 + em
	return minutes < start || minutes >= end, nil
}

// PlanCoversService reports whether a plan grants access to a service, either
// through the plan_services_access junction or the legacy single-service column.
func PlanCoversService(plan models.Plan, serviceID uint) bool {
	for _, svc := range plan.Services {
		if svc.ID == serviceID {
			return true
		}
	}
	return plan.ServiceID != nil && *plan.ServiceID == serviceID
}

// CoveringMembership returns the first membership in the slice whose plan covers
// the service. Memberships are expected to be active and unexpired already
// (the query filters); the function re-checks status defensively for callers
// passing unfiltered rows.
func CoveringMembership(memberships []models.Membership, serviceID uint, today time.Time) *models.Membership {
	day := today.Truncate(24 * time.Hour)
	for i := range memberships {
		m := &memberships[i]
		if m.Status != "active" || m.EndDate.Before(day) {
			continue
		}
		if PlanCoversService(m.Plan, serviceID) {
			return m
		}
	}
	return nil
}

// CoverageForStudents batch-loads active unexpired memberships for the candidate
// students and maps each student id to the membership covering the service, if any.
func (s *BookingService) CoverageForStudents(serviceID uint, studentIDs []uint) (map[uint]*models.Membership, error) {
	coverage := make(map[uint]*models.Membership, len(studentIDs))
	if len(studentIDs) == 0 {
		return coverage, nil
	}

	var memberships []models.Membership
	today := time.Now().Format("2006-01-02")
	if err := s.db.Preload("Plan").Preload("Plan.Services").
		Where("student_id IN ? AND status = ? AND end_date >= ?", studentIDs, "active", today).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	byStudent := make(map[uint][]models.Membership)
	for _, m := range memberships {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}
	now := time.Now()
	for _, id := range studentIDs {
		coverage[id] = CoveringMembership(byStudent[id], serviceID, now)
	}
	return coverage, nil
}

// DetectPrivateClass applies the availability heuristic: a class with an
// internal teacher is private when the teacher has no schedule row for that
// weekday and branch, or the start time falls outside the row's window.
// External professionals are treated as always available.
func (s *BookingService) DetectPrivateClass(profileID, professionalID *uint, branchID uint, start time.Time) (bool, error) {
	if professionalID != nil {
		return false, nil
	}
	if profileID == nil {
		return false, ErrTeacherRequired
	}

	var sched models.StaffSchedule
	err := s.db.Where("profile_id = ? AND branch_id = ? AND weekday = ?",
		*profileID, branchID, int(start.Weekday())).
		First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return IsOutsideSchedule(sched.StartTime, sched.EndTime, minutesOfDay(start))
}

// SaveAppointment creates or updates one appointment with its attendee set.
// The whole write runs in one transaction so a failure cannot leave an
// appointment with partial attendees or charges. Transactions for uncovered
// attendees are inserted on CREATE only; edits never bill.
func (s *BookingService) SaveAppointment(req BookingRequest, actorID uint) (*BookingResult, error) {
	if (req.ProfileID == nil) == (req.ProfessionalID == nil) {
		return nil, ErrTeacherRequired
	}
	if len(req.StudentIDs) == 0 {
		return nil, ErrNoStudents
	}

	var service models.Service
	if err := s.db.Where("id = ? AND organization_id = ?", req.ServiceID, req.OrganizationID).
		First(&service).Error; err != nil {
		return nil, ErrServiceNotFound
	}

	isPrivate, err := s.DetectPrivateClass(req.ProfileID, req.ProfessionalID, req.BranchID, req.StartTime)
	if err != nil {
		return nil, err
	}

	coverage, err := s.CoverageForStudents(req.ServiceID, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	isCreate := req.ID == 0
	var appointment models.Appointment
	result := &BookingResult{}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if isCreate {
			appointment = models.Appointment{
				OrganizationID:  req.OrganizationID,
				BranchID:        req.BranchID,
				ServiceID:       req.ServiceID,
				StartTime:       req.StartTime,
				DurationMinutes: req.DurationMinutes,
				ProfileID:       req.ProfileID,
				ProfessionalID:  req.ProfessionalID,
				IsPrivateClass:  isPrivate,
				PriceAtBooking:  service.Price,
				Status:          "scheduled",
				Notes:           req.Notes,
			}
			if err := tx.Create(&appointment).Error; err != nil {
				return err
			}
		} else {
			if err := tx.First(&appointment, req.ID).Error; err != nil {
				return err
			}
			if appointment.OrganizationID != req.OrganizationID {
				return ErrAppointmentScope
			}
			// PriceAtBooking stays as snapshotted at creation
			updates := map[string]interface{}{
				"branch_id":        req.BranchID,
				"service_id":       req.ServiceID,
				"start_time":       req.StartTime,
				"duration_minutes": req.DurationMinutes,
				"profile_id":       req.ProfileID,
				"professional_id":  req.ProfessionalID,
				"is_private_class": isPrivate,
				"notes":            req.Notes,
			}
			if err := tx.Model(&appointment).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Replace the attendee set wholesale
		if err := tx.Unscoped().Where("appointment_id = ?", appointment.ID).
			Delete(&models.AppointmentAttendee{}).Error; err != nil {
			return err
		}
		attendees := make([]models.AppointmentAttendee, 0, len(req.StudentIDs))
		for _, studentID := range req.StudentIDs {
			att := models.AppointmentAttendee{
				AppointmentID: appointment.ID,
				StudentID:     studentID,
			}
			if m := coverage[studentID]; m != nil {
				id := m.ID
				att.CoveredByMembershipID = &id
			}
			attendees = append(attendees, att)
		}
		if err := tx.Create(&attendees).Error; err != nil {
			return err
		}

		for _, studentID := range req.StudentIDs {
			if coverage[studentID] != nil {
				result.Covered++
				continue
			}
			if !isCreate {
				continue
			}
			sid := studentID
			aid := appointment.ID
			txn := models.Transaction{
				OrganizationID:  req.OrganizationID,
				BranchID:        req.BranchID,
				StudentID:       &sid,
				Amount:          appointment.PriceAtBooking,
				PaymentMethod:   req.PaymentMethod,
				Concept:         "Clase: " + service.Name,
				AppointmentID:   &aid,
				ReceiptNo:       uuid.NewString(),
				CreatedByUserID: actorID,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			result.Charged++
			result.ChargedTotal += txn.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Service").Preload("Profile").Preload("Professional").
		Preload("Attendees").Preload("Attendees.Student").
		First(&appointment, appointment.ID)
	result.Appointment = &appointment
	result.Message = bookingMessage(isCreate, result.Covered, result.Charged)
	return result, nil
}

// DeleteAppointment removes an appointment and its attendee rows atomically.
// Attendance records are kept for history.
func (s *BookingService) DeleteAppointment(id, organizationID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var appointment models.Appointment
		if err := tx.First(&appointment, id).Error; err != nil {
			return err
		}
		if appointment.OrganizationID != organizationID {
			return ErrAppointmentScope
		}
		if err := tx.Unscoped().Where("appointment_id = ?", id).
			Delete(&models.AppointmentAttendee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&appointment).Error
	})
}

func bookingMessage(isCreate bool, covered, charged int) string {
	if !isCreate {
		return "Cita actualizada"
	}
	switch {
	case covered > 0 && charged > 0:
		return fmt.Sprintf("Cita creada: %d cubierto por membresía, %d cobrado", covered, charged)
	case covered > 0:
		return fmt.Sprintf("Cita creada: %d cubierto por membresía", covered)
	default:
		return fmt.Sprintf("Cita creada: %d cobrado", charged)
	}
}
