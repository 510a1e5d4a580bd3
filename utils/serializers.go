package utils

import (
	"time"

	"studiopulse_go/models"
)

// Compact representations used across APIs
type StudentShort struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

type BranchShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
}

type TeacherRef struct {
	Type string `json:"type"` // "profile" or "professional"
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
}

// StudentDTO adds the derived payment status label the list views show.
type StudentDTO struct {
	models.Student
	StatusLabel string `json:"status_label"` // solvente, moroso, sin_pagos
}

// StudentStatusLabel derives the payment standing shown next to a student.
// solvente: at least one active membership that has not expired yet.
// moroso: had memberships or payments before, but nothing currently active.
// sin_pagos: no membership or payment history at all.
func StudentStatusLabel(memberships []models.Membership, hasPayments bool, today time.Time) string {
	day := today.Truncate(24 * time.Hour)
	for _, m := range memberships {
		if m.Status == "active" && !m.EndDate.Before(day) {
			return "solvente"
		}
	}
	if len(memberships) > 0 || hasPayments {
		return "moroso"
	}
	return "sin_pagos"
}

// ToStudentDTO maps a student plus preloaded memberships to the list DTO.
func ToStudentDTO(s models.Student, hasPayments bool) StudentDTO {
	return StudentDTO{
		Student:     s,
		StatusLabel: StudentStatusLabel(s.Memberships, hasPayments, time.Now()),
	}
}

// AppointmentTeacher resolves the assigned teacher reference for an appointment.
// Assumes Profile/Professional preloaded where set.
func AppointmentTeacher(a models.Appointment) TeacherRef {
	if a.ProfessionalID != nil {
		ref := TeacherRef{Type: "professional", ID: *a.ProfessionalID}
		if a.Professional != nil {
			ref.Name = a.Professional.FullName
		}
		return ref
	}
	ref := TeacherRef{Type: "profile"}
	if a.ProfileID != nil {
		ref.ID = *a.ProfileID
	}
	if a.Profile != nil {
		ref.Name = a.Profile.FullName
	}
	return ref
}

type NotificationDTO struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	UserID    uint        `json:"user_id"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Type      string      `json:"type"`
	Data      models.JSON `json:"data,omitempty"`
	Read      bool        `json:"read"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	Branch    BranchShort `json:"branch"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// Assumptions: caller has preloaded User and User.Branch when possible.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	var bs BranchShort
	if n.User.Branch.ID != 0 {
		bs = BranchShort{ID: n.User.Branch.ID, Name: n.User.Branch.Name}
	}

	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		Branch:    bs,
	}
}
