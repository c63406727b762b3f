package progress

import (
	"testing"
	"time"

	"github.com/julianstephens/weighbit/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func habit(id string, weight, target int, created string) models.Habit {
	typ := models.HabitTypeCount
	if target == 1 {
		typ = models.HabitTypeBoolean
	}
	return models.Habit{ID: id, Name: id, Type: typ, Weight: weight, Target: target, CreatedAt: day(created)}
}

func checkIn(habitID, date string, value float64) models.CheckIn {
	return models.CheckIn{ID: habitID + "-" + date, HabitID: habitID, Date: date, Value: value}
}

func snapshot(habits []models.Habit, checkIns ...models.CheckIn) models.Snapshot {
	return models.Snapshot{Version: 1, Habits: habits, CheckIns: checkIns, Categories: models.DefaultCategories()}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{83.33333, 83.3},
		{0.05, 0.1},
		{-0.05, -0.1},
		{66.66666, 66.7},
		{100, 100},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompletionRatio(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("pages", 3, 20, "2026-01-01")},
		checkIn("pages", "2026-02-01", 10),
		checkIn("pages", "2026-02-02", 45),
	)

	tests := []struct {
		name    string
		habitID string
		date    string
		want    float64
	}{
		{"partial", "pages", "2026-02-01", 0.5},
		{"capped at one", "pages", "2026-02-02", 1},
		{"no check-in", "pages", "2026-02-03", 0},
		{"unknown habit", "ghost", "2026-02-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionRatio(s, tt.habitID, tt.date); got != tt.want {
				t.Errorf("CompletionRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightedExample(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("heavy", 5, 1, "2026-01-01"), habit("light", 1, 1, "2026-01-01")},
		checkIn("heavy", "2026-02-10", 1),
		checkIn("light", "2026-02-10", 0),
	)

	got := Weighted(s, "2026-02-10")
	if got.Percent != 83.3 {
		t.Errorf("percent = %v, want 83.3", got.Percent)
	}
	if got.Completed != 1 || got.Total != 2 || !got.HasData {
		t.Errorf("unexpected day: %+v", got)
	}
}

func TestWeightedExplicitZeroCountsAsData(t *testing.T) {
	s := snapshot([]models.Habit{habit("a", 3, 1, "2026-01-01")}, checkIn("a", "2026-02-10", 0))
	got := Weighted(s, "2026-02-10")
	if !got.HasData || got.Percent != 0 {
		t.Errorf("explicit zero should set hasData with 0%%, got %+v", got)
	}
}

func TestWeightedExcludesHabitsNotYetCreated(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("old", 3, 1, "2026-01-01"), habit("new", 5, 1, "2026-02-01")},
		checkIn("old", "2026-01-15", 1),
	)
	got := Weighted(s, "2026-01-15")
	if got.Total != 1 || got.Percent != 100 {
		t.Errorf("habit created later must be excluded, got %+v", got)
	}
}

func TestWeightedSoftDeletedHabit(t *testing.T) {
	h := habit("gone", 3, 1, "2026-01-01")
	deletedAt := day("2026-02-05")
	h.DeletedAt = &deletedAt
	s := snapshot([]models.Habit{h}, checkIn("gone", "2026-02-04", 1))

	if got := Weighted(s, "2026-02-04"); got.Total != 1 || got.Percent != 100 {
		t.Errorf("before deletion the habit counts, got %+v", got)
	}
	if got := Weighted(s, "2026-02-05"); got.Total != 0 {
		t.Errorf("on the deletion day the habit is excluded, got %+v", got)
	}
}

func TestWeightedEmpty(t *testing.T) {
	got := Weighted(snapshot(nil), "2026-02-10")
	if got.Percent != 0 || got.Completed != 0 || got.Total != 0 || got.HasData {
		t.Errorf("empty snapshot should be all zero, got %+v", got)
	}
}

func TestWeightedAllMetIsHundred(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 1, 1, "2026-01-01"), habit("b", 4, 30, "2026-01-01"), habit("c", 2, 8, "2026-01-01")},
		checkIn("a", "2026-02-10", 1),
		checkIn("b", "2026-02-10", 45),
		checkIn("c", "2026-02-10", 8),
	)
	if got := Weighted(s, "2026-02-10"); got.Percent != 100 || got.Completed != 3 {
		t.Errorf("all targets met should be 100%%, got %+v", got)
	}
}

func TestWeightedPercentBounds(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 5, 3, "2026-01-01"), habit("b", 2, 10, "2026-01-01")},
		checkIn("a", "2026-02-10", 300),
		checkIn("b", "2026-02-10", 0.5),
		checkIn("a", "2026-02-11", 1),
	)
	for _, date := range []string{"2025-12-31", "2026-02-10", "2026-02-11", "2026-02-12"} {
		got := Weighted(s, date)
		if got.Percent < 0 || got.Percent > 100 {
			t.Errorf("%s: percent %v out of range", date, got.Percent)
		}
	}
}

func TestWindowProgress(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 3, 1, "2026-02-08")},
		checkIn("a", "2026-02-08", 1),
		checkIn("a", "2026-02-10", 1),
	)

	w, err := WindowProgress(s, "2026-02-10", 4)
	if err != nil {
		t.Fatalf("WindowProgress failed: %v", err)
	}
	if w.TotalDays != 4 {
		t.Errorf("TotalDays = %d, want 4", w.TotalDays)
	}
	// 02-07 has no habits; 02-08..02-10 are trackable even without a check-in on 02-09
	if w.DaysWithData != 3 {
		t.Errorf("DaysWithData = %d, want 3", w.DaysWithData)
	}
	if w.Percent != 66.7 {
		t.Errorf("Percent = %v, want 66.7", w.Percent)
	}
	wantDates := []string{"2026-02-07", "2026-02-08", "2026-02-09", "2026-02-10"}
	for i, e := range w.Daily {
		if e.Date != wantDates[i] {
			t.Errorf("Daily[%d].Date = %s, want %s", i, e.Date, wantDates[i])
		}
		if e.Percent == nil {
			t.Errorf("Daily[%d].Percent should be set", i)
		}
	}
	if w.Daily[2].HasData || !w.Daily[3].HasData {
		t.Error("hasData flags wrong in breakdown")
	}

	if _, err := WindowProgress(s, "2026-02-10", 0); err == nil {
		t.Error("zero-day window should fail")
	}
	if _, err := WindowProgress(s, "garbage", 3); err == nil {
		t.Error("invalid end date should fail")
	}
}

func TestWindowFractionalDays(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 1, 1, "2026-01-01"), habit("b", 2, 1, "2026-01-01")},
		checkIn("a", "2026-02-09", 1),
		checkIn("a", "2026-02-10", 1),
	)
	w, err := WindowProgress(s, "2026-02-10", 2)
	if err != nil {
		t.Fatalf("WindowProgress failed: %v", err)
	}
	if w.Percent != 33.3 {
		t.Errorf("Percent = %v, want 33.3", w.Percent)
	}
}

func TestWindowPercentMatchesBreakdown(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("steps", 1, 10000, "2026-01-01")},
		checkIn("steps", "2026-01-01", 4),
		checkIn("steps", "2026-01-02", 4),
		checkIn("steps", "2026-01-03", 4),
		checkIn("steps", "2026-01-04", 14),
	)
	w, err := WindowProgress(s, "2026-01-04", 4)
	if err != nil {
		t.Fatalf("WindowProgress failed: %v", err)
	}

	var sum float64
	for _, e := range w.Daily {
		sum += *e.Percent
	}
	want := Round1(sum / float64(len(w.Daily)))
	if w.Percent != want {
		t.Errorf("Percent = %v, want %v (mean of breakdown)", w.Percent, want)
	}
	if w.Percent != 0 {
		t.Errorf("Percent = %v, want 0", w.Percent)
	}
}

func TestWeeklyAndMonthly(t *testing.T) {
	s := snapshot([]models.Habit{habit("a", 3, 1, "2025-01-01")}, checkIn("a", "2026-02-10", 1))

	w, err := Weekly(s, "2026-02-10")
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if w.TotalDays != 7 || len(w.Daily) != 7 || w.DaysWithData != 7 {
		t.Errorf("weekly window shape wrong: %+v", w)
	}
	if w.Percent != 14.3 {
		t.Errorf("weekly percent = %v, want 14.3", w.Percent)
	}

	m, err := Monthly(s, "2026-02-10")
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if m.TotalDays != 30 || m.Daily[0].Date != "2026-01-12" {
		t.Errorf("monthly window shape wrong: total=%d first=%s", m.TotalDays, m.Daily[0].Date)
	}
}

func TestEmptyWindows(t *testing.T) {
	s := snapshot(nil)
	w, _ := Weekly(s, "2026-02-10")
	if w.Percent != 0 || w.DaysWithData != 0 {
		t.Errorf("empty weekly should be zero, got %+v", w)
	}
	m, _ := CalendarMonth(s, 2026, time.February, "2026-02-10")
	if m.Percent != 0 || m.DaysWithData != 0 {
		t.Errorf("empty month should be zero, got %+v", m)
	}
}

func TestCalendarMonthSkipsFuture(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 3, 1, "2026-01-01")},
		checkIn("a", "2026-02-01", 1),
		checkIn("a", "2026-02-20", 1),
	)

	w, err := CalendarMonth(s, 2026, time.February, "2026-02-04")
	if err != nil {
		t.Fatalf("CalendarMonth failed: %v", err)
	}
	if len(w.Daily) != 28 {
		t.Fatalf("expected 28 days in Feb 2026, got %d", len(w.Daily))
	}
	if w.TotalDays != 4 || w.DaysWithData != 4 {
		t.Errorf("TotalDays = %d DaysWithData = %d, want 4/4", w.TotalDays, w.DaysWithData)
	}
	if w.Percent != 25 {
		t.Errorf("Percent = %v, want 25 (future check-in ignored)", w.Percent)
	}
	for _, e := range w.Daily[4:] {
		if !e.IsFuture || e.Percent != nil {
			t.Errorf("%s should be future with nil percent", e.Date)
		}
	}

	past, _ := CalendarMonth(s, 2026, time.January, "2026-02-04")
	if past.TotalDays != 31 {
		t.Errorf("a past month should count every day, got %d", past.TotalDays)
	}

	if _, err := CalendarMonth(s, 2026, 13, "2026-02-04"); err == nil {
		t.Error("month 13 should fail")
	}
}

func TestCalendarWeek(t *testing.T) {
	s := snapshot(
		[]models.Habit{habit("a", 3, 1, "2026-01-01")},
		checkIn("a", "2026-02-09", 1),
		checkIn("a", "2026-02-10", 1),
	)

	w, err := CalendarWeek(s, "2026-02-09", "2026-02-10")
	if err != nil {
		t.Fatalf("CalendarWeek failed: %v", err)
	}
	if len(w.Daily) != 7 || w.Daily[6].Date != "2026-02-15" {
		t.Fatalf("week should run Monday..Sunday, got %+v", w.Daily)
	}
	if w.TotalDays != 2 || w.Percent != 100 {
		t.Errorf("TotalDays=%d Percent=%v, want 2/100", w.TotalDays, w.Percent)
	}
}
