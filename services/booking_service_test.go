package services

import (
	"testing"
	"time"

	"studiopulse_go/models"
)

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "08:30",
			expHour:    8,
			expMinutes: 30,
		},
		{
			name:       "with seconds",
			input:      "13:45:00",
			expHour:    13,
			expMinutes: 45,
		},
		{
			name:       "padded",
			input:      " 09:15 ",
			expHour:    9,
			expMinutes: 15,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	for _, input := range []string{"invalid", "25:00", "10:75", ""} {
		if _, _, err := parseHourMinute(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestIsOutsideSchedule(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		minutes int
		outside bool
	}{
		{name: "inside window", start: "08:00", end: "17:00", minutes: 10 * 60, outside: false},
		{name: "exactly at start", start: "08:00", end: "17:00", minutes: 8 * 60, outside: false},
		{name: "exactly at end is outside", start: "08:00", end: "17:00", minutes: 17 * 60, outside: true},
		{name: "before window", start: "08:00", end: "17:00", minutes: 7*60 + 59, outside: true},
		{name: "after window", start: "08:00", end: "17:00", minutes: 20 * 60, outside: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			outside, err := IsOutsideSchedule(tc.start, tc.end, tc.minutes)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outside != tc.outside {
				t.Fatalf("expected outside=%v, got %v", tc.outside, outside)
			}
		})
	}
}

func uintPtr(v uint) *uint { return &v }

func TestPlanCoversService(t *testing.T) {
	yoga := models.Service{BaseModel: models.BaseModel{ID: 1}}
	pilates := models.Service{BaseModel: models.BaseModel{ID: 2}}

	tests := []struct {
		name      string
		plan      models.Plan
		serviceID uint
		covered   bool
	}{
		{
			name:      "junction match",
			plan:      models.Plan{Services: []models.Service{yoga, pilates}},
			serviceID: 2,
			covered:   true,
		},
		{
			name:      "junction miss",
			plan:      models.Plan{Services: []models.Service{yoga}},
			serviceID: 2,
			covered:   false,
		},
		{
			name:      "legacy single-service column",
			plan:      models.Plan{ServiceID: uintPtr(3)},
			serviceID: 3,
			covered:   true,
		},
		{
			name:      "no access at all",
			plan:      models.Plan{},
			serviceID: 1,
			covered:   false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := PlanCoversService(tc.plan, tc.serviceID); got != tc.covered {
				t.Fatalf("expected %v, got %v", tc.covered, got)
			}
		})
	}
}

func TestCoveringMembership(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yoga := models.Service{BaseModel: models.BaseModel{ID: 1}}

	active := models.Membership{
		BaseModel: models.BaseModel{ID: 10},
		Status:    "active",
		EndDate:   today.AddDate(0, 0, 5),
		Plan:      models.Plan{Services: []models.Service{yoga}},
	}
	expired := models.Membership{
		BaseModel: models.BaseModel{ID: 11},
		Status:    "active",
		EndDate:   today.AddDate(0, 0, -1),
		Plan:      models.Plan{Services: []models.Service{yoga}},
	}
	cancelled := models.Membership{
		BaseModel: models.BaseModel{ID: 12},
		Status:    "cancelled",
		EndDate:   today.AddDate(0, 0, 5),
		Plan:      models.Plan{Services: []models.Service{yoga}},
	}
	wrongService := models.Membership{
		BaseModel: models.BaseModel{ID: 13},
		Status:    "active",
		EndDate:   today.AddDate(0, 0, 5),
		Plan:      models.Plan{Services: []models.Service{{BaseModel: models.BaseModel{ID: 99}}}},
	}

	if m := CoveringMembership([]models.Membership{expired, cancelled, active}, 1, today); m == nil || m.ID != 10 {
		t.Fatalf("expected active membership 10, got %+v", m)
	}
	if m := CoveringMembership([]models.Membership{expired, cancelled, wrongService}, 1, today); m != nil {
		t.Fatalf("expected no coverage, got membership %d", m.ID)
	}
	// membership ending today still covers today
	endsToday := active
	endsToday.EndDate = today.Truncate(24 * time.Hour)
	if m := CoveringMembership([]models.Membership{endsToday}, 1, today); m == nil {
		t.Fatalf("membership ending today should still cover")
	}
}

func TestBookingMessage(t *testing.T) {
	tests := []struct {
		name     string
		isCreate bool
		covered  int
		charged  int
		expected string
	}{
		{name: "update", isCreate: false, covered: 3, charged: 2, expected: "Cita actualizada"},
		{name: "mixed", isCreate: true, covered: 2, charged: 1, expected: "Cita creada: 2 cubierto por membresía, 1 cobrado"},
		{name: "all covered", isCreate: true, covered: 4, charged: 0, expected: "Cita creada: 4 cubierto por membresía"},
		{name: "all charged", isCreate: true, covered: 0, charged: 3, expected: "Cita creada: 3 cobrado"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := bookingMessage(tc.isCreate, tc.covered, tc.charged); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
