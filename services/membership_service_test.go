package services

import (
	"testing"
	"time"
)

func TestMembershipEndDate(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		days     int
		expected string
	}{
		{name: "thirty days", start: "2026-03-01", days: 30, expected: "2026-03-31"},
		{name: "month boundary", start: "2026-01-15", days: 30, expected: "2026-02-14"},
		{name: "leap february", start: "2028-02-01", days: 30, expected: "2028-03-02"},
		{name: "one week", start: "2026-03-09", days: 7, expected: "2026-03-16"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start, err := time.Parse("2006-01-02", tc.start)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			got := MembershipEndDate(start, tc.days).Format("2006-01-02")
			if got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}
