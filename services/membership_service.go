package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studiopulse_go/database"
	"studiopulse_go/models"
)

// MembershipService is the single enrollment path. Both the enrollment wizard
// and the finance "sell plan" endpoint go through Enroll, so membership
// creation and the optional payment cannot drift apart.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService() *MembershipService {
	return &MembershipService{db: database.DB}
}

// NewStudentInput quick-creates the student in the same enrollment call
// (step 1 of the wizard when the student doesn't exist yet).
type NewStudentInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
}

// EnrollmentRequest is the validated input for enrolling a student in a plan.
type EnrollmentRequest struct {
	OrganizationID uint
	BranchID       uint
	StudentID      uint             // 0 when NewStudent is set
	NewStudent     *NewStudentInput // quick-create path
	PlanID         uint
	StartDate      time.Time
	PaymentMethod  string // empty = enroll without charging
}

// EnrollmentResult reports what was created.
type EnrollmentResult struct {
	Membership  *models.Membership  `json:"membership"`
	Student     *models.Student     `json:"student"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentRequired = errors.New("student_id or new_student is required")
)

// MembershipEndDate computes the expiry date from a start date and plan duration.
func MembershipEndDate(start time.Time, durationDays int) time.Time {
	return start.AddDate(0, 0, durationDays)
}

// Enroll creates a membership (and optionally the student and the payment) in
// one transaction. end_date = start_date + plan.duration_days.
func (s *MembershipService) Enroll(req EnrollmentRequest, actorID uint) (*EnrollmentResult, error) {
	if req.StudentID == 0 && req.NewStudent == nil {
		return nil, ErrStudentRequired
	}

	var plan models.Plan
	if err := s.db.Where("id = ? AND organization_id = ?", req.PlanID, req.OrganizationID).
		First(&plan).Error; err != nil {
		return nil, ErrPlanNotFound
	}

	if req.StartDate.IsZero() {
		req.StartDate = time.Now().Truncate(24 * time.Hour)
	}

	result := &EnrollmentResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if req.NewStudent != nil {
			student = models.Student{
				OrganizationID: req.OrganizationID,
				BranchID:       req.BranchID,
				FirstName:      req.NewStudent.FirstName,
				LastName:       req.NewStudent.LastName,
				Email:          req.NewStudent.Email,
				Phone:          req.NewStudent.Phone,
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("id = ? AND organization_id = ?", req.StudentID, req.OrganizationID).
				First(&student).Error; err != nil {
				return ErrStudentNotFound
			}
		}

		membership := models.Membership{
			StudentID: student.ID,
			PlanID:    plan.ID,
			StartDate: req.StartDate,
			EndDate:   MembershipEndDate(req.StartDate, plan.DurationDays),
			Status:    "active",
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		if req.PaymentMethod != "" {
			sid := student.ID
			mid := membership.ID
			txn := models.Transaction{
				OrganizationID:  req.OrganizationID,
				BranchID:        req.BranchID,
				StudentID:       &sid,
				Amount:          plan.Price,
				PaymentMethod:   req.PaymentMethod,
				Concept:         "Plan: " + plan.Name,
				MembershipID:    &mid,
				ReceiptNo:       uuid.NewString(),
				CreatedByUserID: actorID,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			result.Transaction = &txn
		}

		result.Student = &student
		result.Membership = &membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Plan").First(result.Membership, result.Membership.ID)
	return result, nil
}

// ExpireOverdue marks active memberships past their end date as expired and
// returns how many rows changed. Run nightly by the cron scheduler.
func (s *MembershipService) ExpireOverdue() (int64, error) {
	today := time.Now().Format("2006-01-02")
	res := s.db.Model(&models.Membership{}).
		Where("status = ? AND end_date < ?", "active", today).
		Update("status", "expired")
	return res.RowsAffected, res.Error
}

// Cancel marks a membership cancelled. Rows are never deleted so payment
// history keeps its reference.
func (s *MembershipService) Cancel(membershipID, organizationID uint) error {
	var membership models.Membership
	err := s.db.Joins("JOIN students ON students.id = memberships.student_id").
		Where("memberships.id = ? AND students.organization_id = ?", membershipID, organizationID).
		First(&membership).Error
	if err != nil {
		return err
	}
	return s.db.Model(&membership).Update("status", "cancelled").Error
}
