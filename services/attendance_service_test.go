package services

import (
	"testing"
	"time"

	"studiopulse_go/models"
)

func appointmentAt(id uint, hour, minute int, serviceID uint, serviceName string, attendees int) models.Appointment {
	a := models.Appointment{
		BaseModel: models.BaseModel{ID: id},
		ServiceID: serviceID,
		StartTime: time.Date(2026, 3, 9, hour, minute, 0, 0, time.Local),
		Service:   models.Service{BaseModel: models.BaseModel{ID: serviceID}, Name: serviceName},
	}
	for i := 0; i < attendees; i++ {
		a.Attendees = append(a.Attendees, models.AppointmentAttendee{})
	}
	return a
}

func TestGroupKey(t *testing.T) {
	start := time.Date(2026, 3, 9, 8, 5, 0, 0, time.Local)
	if key := GroupKey(start, 7); key != "08:05|7" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestGroupAppointments(t *testing.T) {
	appointments := []models.Appointment{
		appointmentAt(1, 10, 0, 1, "Yoga", 2),
		appointmentAt(2, 10, 0, 1, "Yoga", 1),
		appointmentAt(3, 10, 0, 2, "Pilates", 3),
		appointmentAt(4, 8, 0, 1, "Yoga", 1),
	}

	groups := GroupAppointments(appointments)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	// ordered by start time, then service name
	if groups[0].Time != "08:00" {
		t.Fatalf("expected first group at 08:00, got %s", groups[0].Time)
	}
	if groups[1].ServiceName != "Pilates" || groups[2].ServiceName != "Yoga" {
		t.Fatalf("expected 10:00 groups ordered Pilates, Yoga; got %s, %s",
			groups[1].ServiceName, groups[2].ServiceName)
	}

	yoga10 := groups[2]
	if len(yoga10.AppointmentIDs) != 2 {
		t.Fatalf("expected 2 appointments in 10:00 Yoga, got %d", len(yoga10.AppointmentIDs))
	}
	if yoga10.StudentCount != 3 {
		t.Fatalf("expected student count 3, got %d", yoga10.StudentCount)
	}
}

func TestGroupAppointmentsEmpty(t *testing.T) {
	if groups := GroupAppointments(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestSortRoster(t *testing.T) {
	entries := []RosterEntry{
		{StudentID: 1, FirstName: "zoe", Status: "absent", AttendeeType: "suggested"},
		{StudentID: 2, FirstName: "Ana", Status: "present", AttendeeType: "manual"},
		{StudentID: 3, FirstName: "Bruno", Status: "present", AttendeeType: "enrolled"},
		{StudentID: 4, FirstName: "ana", Status: "absent", AttendeeType: "enrolled"},
		{StudentID: 5, FirstName: "Alba", Status: "present", AttendeeType: "enrolled"},
	}

	SortRoster(entries)

	expected := []uint{5, 3, 2, 4, 1}
	for i, id := range expected {
		if entries[i].StudentID != id {
			t.Fatalf("position %d: expected student %d, got %d", i, id, entries[i].StudentID)
		}
	}
}

func TestMergeSavedRecords(t *testing.T) {
	entries := []RosterEntry{
		{StudentID: 1, FirstName: "Ana", Status: "present", AttendeeType: "enrolled"},
		{StudentID: 2, FirstName: "Bruno", Status: "present", AttendeeType: "enrolled"},
	}
	records := []models.AttendanceRecord{
		{
			StudentID: 2,
			Status:    "absent",
		},
		{
			StudentID: 9,
			Status:    "late",
			Student:   models.Student{BaseModel: models.BaseModel{ID: 9}, FirstName: "Carla", LastName: "M"},
		},
	}

	merged := MergeSavedRecords(entries, records)
	if len(merged) != 3 {
		t.Fatalf("expected 3 entries after merge, got %d", len(merged))
	}

	if merged[1].Status != "absent" || !merged[1].Saved {
		t.Fatalf("saved record should override status: %+v", merged[1])
	}
	if merged[0].Saved {
		t.Fatalf("unsaved entry should not be marked saved")
	}

	walkIn := merged[2]
	if walkIn.StudentID != 9 || walkIn.AttendeeType != "manual" || walkIn.Status != "late" || walkIn.FirstName != "Carla" {
		t.Fatalf("walk-in record not merged as manual row: %+v", walkIn)
	}
}

func TestMergeSavedRecordsIdempotent(t *testing.T) {
	entries := []RosterEntry{{StudentID: 1, Status: "present", AttendeeType: "enrolled"}}
	records := []models.AttendanceRecord{{StudentID: 1, Status: "absent"}}

	merged := MergeSavedRecords(entries, records)
	merged = MergeSavedRecords(merged, records)
	if len(merged) != 1 {
		t.Fatalf("repeated merge should not duplicate rows, got %d", len(merged))
	}
	if merged[0].Status != "absent" {
		t.Fatalf("expected saved status to win, got %q", merged[0].Status)
	}
}
