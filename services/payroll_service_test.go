package services

import (
	"testing"

	"studiopulse_go/models"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		name       string
		sales      float64
		percentage float64
		expected   float64
	}{
		{name: "twenty percent", sales: 500, percentage: 20, expected: 100},
		{name: "zero sales", sales: 0, percentage: 40, expected: 0},
		{name: "zero percentage", sales: 300, percentage: 0, expected: 0},
		{name: "fractional", sales: 150, percentage: 33, expected: 49.5},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Commission(tc.sales, tc.percentage); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func privateClass(profileID, professionalID *uint, price float64) models.Appointment {
	return models.Appointment{
		IsPrivateClass: true,
		ProfileID:      profileID,
		ProfessionalID: professionalID,
		PriceAtBooking: price,
	}
}

func TestBuildPayrollLines(t *testing.T) {
	staff := []models.User{
		{BaseModel: models.BaseModel{ID: 1}, FullName: "Carla", BaseSalary: 300, CommissionPercentage: 20},
		{BaseModel: models.BaseModel{ID: 2}, FullName: "Diego", BaseSalary: 250, CommissionPercentage: 10},
	}
	professionals := []models.Professional{
		{BaseModel: models.BaseModel{ID: 7}, FullName: "José", CommissionPercentage: 40},
	}
	appointments := []models.Appointment{
		privateClass(uintPtr(1), nil, 25),
		privateClass(uintPtr(1), nil, 25),
		privateClass(nil, uintPtr(7), 50),
		// group class must not count toward sales
		{IsPrivateClass: false, ProfileID: uintPtr(1), PriceAtBooking: 100},
	}

	lines := BuildPayrollLines(staff, professionals, appointments)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	carla := lines[0]
	if carla.Sales != 50 || carla.PrivateClassCount != 2 {
		t.Fatalf("unexpected sales for staff: %+v", carla)
	}
	if carla.Commission != 10 || carla.TotalPayable != 310 {
		t.Fatalf("unexpected pay for staff: %+v", carla)
	}

	diego := lines[1]
	if diego.Sales != 0 || diego.TotalPayable != 250 {
		t.Fatalf("staff with no sales should still receive base salary: %+v", diego)
	}

	jose := lines[2]
	if jose.PersonType != "professional" || jose.Sales != 50 || jose.Commission != 20 || jose.TotalPayable != 20 {
		t.Fatalf("unexpected professional line: %+v", jose)
	}
}

func TestSummarize(t *testing.T) {
	lines := []PayrollLine{
		{BaseSalary: 300, Commission: 10, TotalPayable: 310},
		{BaseSalary: 0, Commission: 20, TotalPayable: 20},
	}

	summary := Summarize("2026-03", lines)
	if summary.Period != "2026-03" {
		t.Fatalf("unexpected period %q", summary.Period)
	}
	if summary.TotalBase != 300 || summary.TotalCommission != 30 || summary.TotalPayable != 330 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
}
