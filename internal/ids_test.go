package internal

import (
	"sort"
	"testing"
	"time"
)

func TestNewReportID_Monotonic(t *testing.T) {
	ts := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewReportID(ts)
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("ids generated in the same millisecond are not increasing")
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if !ValidReportID(id) {
			t.Errorf("ValidReportID(%s) = false", id)
		}
	}
}

func TestNewReportID_SortsByTime(t *testing.T) {
	earlier := NewReportID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NewReportID(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if earlier >= later {
		t.Errorf("expected %s < %s", earlier, later)
	}
}

func TestValidReportID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"01JB6X8Y2K9FQR4T3VWHGP5M2C", true},
		{"", false},
		{"not-an-id", false},
		{"01JB6X8Y2K9FQR4T3VWHGP5M2", false},
	}
	for _, tt := range tests {
		if got := ValidReportID(tt.id); got != tt.want {
			t.Errorf("ValidReportID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
