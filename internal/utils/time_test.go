package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		day  string
		n    int
		want string
	}{
		{"2026-01-01", -1, "2025-12-31"},
		{"2026-02-28", 1, "2026-03-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2026-03-08", 1, "2026-03-09"}, // US DST change
		{"2026-10-25", 0, "2026-10-25"},
	}

	for _, tt := range tests {
		got, err := AddDays(tt.day, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%q, %d) unexpected error: %v", tt.day, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%q, %d) = %q, want %q", tt.day, tt.n, got, tt.want)
		}
	}

	if _, err := AddDays("2026-13-01", 1); err == nil {
		t.Error("AddDays() expected error for invalid date")
	}
}

func TestLastNDays(t *testing.T) {
	days, err := LastNDays("2026-03-02", 3)
	if err != nil {
		t.Fatalf("LastNDays() error: %v", err)
	}
	want := []string{"2026-03-02", "2026-03-01", "2026-02-28"}
	if len(days) != len(want) {
		t.Fatalf("LastNDays() returned %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("LastNDays()[%d] = %q, want %q", i, days[i], want[i])
		}
	}

	empty, err := LastNDays("2026-03-02", 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("LastNDays(0) = %v, %v; want empty, nil", empty, err)
	}
}

func TestMonthDates(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.February, 28},
		{2024, time.February, 29},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, tt := range tests {
		days := MonthDates(tt.year, tt.month)
		if len(days) != tt.want {
			t.Errorf("MonthDates(%d, %s) returned %d days, want %d", tt.year, tt.month, len(days), tt.want)
		}
		if days[0][8:] != "01" {
			t.Errorf("MonthDates(%d, %s) first day = %q", tt.year, tt.month, days[0])
		}
	}
}

func TestWeekDates(t *testing.T) {
	days, err := WeekDates("2026-02-02")
	if err != nil {
		t.Fatalf("WeekDates() error: %v", err)
	}
	if len(days) != 7 || days[0] != "2026-02-02" || days[6] != "2026-02-08" {
		t.Errorf("WeekDates() = %v", days)
	}
}

func TestDaysBetween(t *testing.T) {
	n, err := DaysBetween("2026-01-30", "2026-02-02")
	if err != nil {
		t.Fatalf("DaysBetween() error: %v", err)
	}
	if n != 3 {
		t.Errorf("DaysBetween() = %d, want 3", n)
	}
}

func TestISOWeekAndMonday(t *testing.T) {
	year, week, err := ISOWeek("2026-01-01")
	if err != nil {
		t.Fatalf("ISOWeek() error: %v", err)
	}
	if year != 2026 || week != 1 {
		t.Errorf("ISOWeek(2026-01-01) = %d-W%d, want 2026-W1", year, week)
	}

	if got := MondayOfISOWeek(2026, 1); got != "2025-12-29" {
		t.Errorf("MondayOfISOWeek(2026, 1) = %q, want 2025-12-29", got)
	}

	monday, err := MondayOf("2026-02-08")
	if err != nil {
		t.Fatalf("MondayOf() error: %v", err)
	}
	if monday != "2026-02-02" {
		t.Errorf("MondayOf(2026-02-08) = %q, want 2026-02-02", monday)
	}
}

func TestWeeksOfYear(t *testing.T) {
	weeks := WeeksOfYear(2026, "2026-02-10")
	if len(weeks) != 7 {
		t.Fatalf("WeeksOfYear() returned %d weeks, want 7", len(weeks))
	}
	if weeks[0].Label != "29 Dec - 4 Jan" {
		t.Errorf("weeks[0].Label = %q", weeks[0].Label)
	}
	last := weeks[len(weeks)-1]
	if last.Monday != "2026-02-09" || last.Sunday != "2026-02-15" || last.Label != "9-15 Feb" {
		t.Errorf("last week = %+v", last)
	}

	full := WeeksOfYear(2026, "2027-06-01")
	if len(full) != 53 {
		t.Errorf("WeeksOfYear(2026) full year = %d weeks, want 53", len(full))
	}
}
