package utils

import (
	"testing"
	"time"

	"studiopulse_go/models"
)

func TestStudentStatusLabel(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	activeMembership := models.Membership{Status: "active", EndDate: today.AddDate(0, 0, 10)}
	expiredMembership := models.Membership{Status: "expired", EndDate: today.AddDate(0, 0, -10)}
	endsToday := models.Membership{Status: "active", EndDate: today.Truncate(24 * time.Hour)}

	tests := []struct {
		name        string
		memberships []models.Membership
		hasPayments bool
		expected    string
	}{
		{name: "active membership", memberships: []models.Membership{activeMembership}, expected: "solvente"},
		{name: "ends today still solvente", memberships: []models.Membership{endsToday}, expected: "solvente"},
		{name: "only expired membership", memberships: []models.Membership{expiredMembership}, expected: "moroso"},
		{name: "payments but no membership", memberships: nil, hasPayments: true, expected: "moroso"},
		{name: "no history at all", memberships: nil, expected: "sin_pagos"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := StudentStatusLabel(tc.memberships, tc.hasPayments, today)
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestAppointmentTeacher(t *testing.T) {
	profileID := uint(3)
	professionalID := uint(8)

	withProfile := models.Appointment{
		ProfileID: &profileID,
		Profile:   &models.User{BaseModel: models.BaseModel{ID: profileID}, FullName: "Carla"},
	}
	ref := AppointmentTeacher(withProfile)
	if ref.Type != "profile" || ref.ID != profileID || ref.Name != "Carla" {
		t.Fatalf("unexpected profile ref: %+v", ref)
	}

	withProfessional := models.Appointment{
		ProfessionalID: &professionalID,
		Professional:   &models.Professional{BaseModel: models.BaseModel{ID: professionalID}, FullName: "José"},
	}
	ref = AppointmentTeacher(withProfessional)
	if ref.Type != "professional" || ref.ID != professionalID || ref.Name != "José" {
		t.Fatalf("unexpected professional ref: %+v", ref)
	}

	// professional wins when both are somehow set
	both := withProfessional
	both.ProfileID = &profileID
	if ref = AppointmentTeacher(both); ref.Type != "professional" {
		t.Fatalf("expected professional to take precedence, got %q", ref.Type)
	}
}

func TestToNotificationDTO(t *testing.T) {
	readAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	n := models.Notification{
		BaseModel: models.BaseModel{ID: 5},
		UserID:    2,
		Title:     "Clase próxima",
		Message:   "Tu Yoga empieza en 30 minutos",
		Type:      "class_reminder",
		Read:      true,
		ReadAt:    &readAt,
		User: models.User{
			Branch: models.Branch{BaseModel: models.BaseModel{ID: 4}, Name: "Sede Centro"},
		},
	}

	dto := ToNotificationDTO(n)
	if dto.ID != 5 || dto.UserID != 2 || dto.Type != "class_reminder" || !dto.Read {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.Branch.ID != 4 || dto.Branch.Name != "Sede Centro" {
		t.Fatalf("expected branch from preloaded user, got %+v", dto.Branch)
	}

	// without preloaded branch the field stays empty
	dto = ToNotificationDTO(models.Notification{BaseModel: models.BaseModel{ID: 6}})
	if dto.Branch.ID != 0 {
		t.Fatalf("expected empty branch, got %+v", dto.Branch)
	}
}
