package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/weighbit/internal/eventstore"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/progress"
)

func newSnapshot(target int, created string, checkIns map[string]float64) models.Snapshot {
	createdAt, _ := time.Parse("2006-01-02", created)
	typ := models.HabitTypeCount
	if target == 1 {
		typ = models.HabitTypeBoolean
	}
	s := models.Snapshot{
		Version:  1,
		Habits:   []models.Habit{{ID: "h1", Name: "Run", Type: typ, Target: target, Weight: 3, CreatedAt: createdAt}},
		CheckIns: []models.CheckIn{},
	}
	for date, v := range checkIns {
		s.CheckIns = append(s.CheckIns, models.CheckIn{ID: "c-" + date, HabitID: "h1", Date: date, Value: v})
	}
	return s
}

func TestHabitHistory(t *testing.T) {
	s := newSnapshot(1, "2026-01-01", map[string]float64{"2026-02-01": 1, "2026-02-03": 0})
	s.CheckIns = append(s.CheckIns, models.CheckIn{ID: "other", HabitID: "h2", Date: "2026-02-01", Value: 1})

	h := HabitHistory(s, "h1")
	if len(h) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(h))
	}
	if c, ok := h["2026-02-03"]; !ok || c.Value != 0 {
		t.Error("explicit zero check-in missing from history")
	}
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name     string
		target   int
		checkIns map[string]float64
		today    string
		want     int
	}{
		{
			name:     "today open does not break streak",
			target:   1,
			checkIns: map[string]float64{"2026-02-09": 1, "2026-02-08": 1, "2026-02-07": 1},
			today:    "2026-02-10",
			want:     3,
		},
		{
			name:     "today counts when met",
			target:   1,
			checkIns: map[string]float64{"2026-02-10": 1, "2026-02-09": 1},
			today:    "2026-02-10",
			want:     2,
		},
		{
			name:     "today recorded below target breaks",
			target:   5,
			checkIns: map[string]float64{"2026-02-10": 2, "2026-02-09": 5},
			today:    "2026-02-10",
			want:     0,
		},
		{
			name:     "gap stops the walk",
			target:   1,
			checkIns: map[string]float64{"2026-02-09": 1, "2026-02-07": 1},
			today:    "2026-02-10",
			want:     1,
		},
		{
			name:     "below target yesterday",
			target:   10,
			checkIns: map[string]float64{"2026-02-09": 9},
			today:    "2026-02-10",
			want:     0,
		},
		{
			name:     "crosses month boundary",
			target:   1,
			checkIns: map[string]float64{"2026-03-01": 1, "2026-02-28": 1, "2026-02-27": 1},
			today:    "2026-03-01",
			want:     3,
		},
		{
			name:     "no check-ins",
			target:   1,
			checkIns: nil,
			today:    "2026-02-10",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshot(tt.target, "2025-01-01", tt.checkIns)
			if got := CurrentStreak(s, "h1", tt.today); got != tt.want {
				t.Errorf("CurrentStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreakCappedAtLookback(t *testing.T) {
	checkIns := map[string]float64{}
	start, _ := time.Parse("2006-01-02", "2026-02-10")
	for i := 0; i < 400; i++ {
		checkIns[start.AddDate(0, 0, -i).Format("2006-01-02")] = 1
	}
	s := newSnapshot(1, "2024-01-01", checkIns)
	if got := CurrentStreak(s, "h1", "2026-02-10"); got != 365 {
		t.Errorf("CurrentStreak = %d, want 365", got)
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name     string
		checkIns map[string]float64
		want     int
	}{
		{
			name: "gap at day four",
			checkIns: map[string]float64{
				"2026-01-01": 1, "2026-01-02": 1, "2026-01-03": 1, "2026-01-05": 1, "2026-01-06": 1,
			},
			want: 3,
		},
		{"none", nil, 0},
		{"single", map[string]float64{"2026-01-01": 1}, 1},
		{"misses ignored", map[string]float64{"2026-01-01": 1, "2026-01-02": 0, "2026-01-03": 1}, 1},
		{
			name:     "across year end",
			checkIns: map[string]float64{"2025-12-30": 1, "2025-12-31": 1, "2026-01-01": 1, "2026-01-02": 1},
			want:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshot(1, "2025-01-01", tt.checkIns)
			if got := LongestStreak(s, "h1"); got != tt.want {
				t.Errorf("LongestStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name     string
		created  string
		checkIns map[string]float64
		window   int
		want     int
	}{
		{"only days since creation count", "2026-02-08", map[string]float64{"2026-02-08": 1, "2026-02-10": 1}, 30, 67},
		{"full window", "2025-01-01", map[string]float64{"2026-02-10": 1}, 4, 25},
		{"created in the future", "2026-03-01", map[string]float64{"2026-02-10": 1}, 7, 0},
		{"zero window", "2025-01-01", map[string]float64{"2026-02-10": 1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshot(1, tt.created, tt.checkIns)
			if got := CompletionRate(s, "h1", tt.window, "2026-02-10"); got != tt.want {
				t.Errorf("CompletionRate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUnknownHabit(t *testing.T) {
	s := newSnapshot(1, "2025-01-01", map[string]float64{"2026-02-10": 1})
	if CurrentStreak(s, "ghost", "2026-02-10") != 0 || LongestStreak(s, "ghost") != 0 || CompletionRate(s, "ghost", 30, "2026-02-10") != 0 {
		t.Error("unknown habit should yield zero stats")
	}
}

func TestSummarize(t *testing.T) {
	s := newSnapshot(1, "2026-02-01", map[string]float64{
		"2026-02-01": 1, "2026-02-02": 1, "2026-02-03": 1, "2026-02-04": 1,
		"2026-02-08": 1, "2026-02-09": 1,
	})

	got := Summarize(s, "h1", "2026-02-10")
	if got.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got.CurrentStreak)
	}
	if got.LongestStreak != 4 {
		t.Errorf("LongestStreak = %d, want 4", got.LongestStreak)
	}
	// 6 of 10 days since creation
	if got.CompletionRate != 60 {
		t.Errorf("CompletionRate = %d, want 60", got.CompletionRate)
	}
	if len(got.History) != 6 {
		t.Errorf("History has %d entries, want 6", len(got.History))
	}
	if got.CompletionRate != CompletionRate(s, "h1", 30, "2026-02-10") {
		t.Error("Summarize and CompletionRate disagree")
	}
}

func TestCompletionFollowsCurrentTarget(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	const today = "2026-02-10"

	s, h, err := eventstore.AddHabit(models.NewSnapshot(now), eventstore.HabitInput{Name: "Pushups", Type: models.HabitTypeCount, Target: 5}, now)
	if err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	s, c, err := eventstore.RecordCheckIn(s, h.ID, 3, today, now)
	if err != nil {
		t.Fatalf("RecordCheckIn failed: %v", err)
	}
	if c.Completed {
		t.Fatal("3 of 5 should be stored as not completed")
	}

	target := 2
	s, _, err = eventstore.UpdateHabit(s, h.ID, eventstore.HabitPatch{Target: &target}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if stored := s.CheckIns[0]; stored.Completed {
		t.Fatal("lowering the target should not rewrite stored check-ins")
	}

	d := progress.Weighted(s, today)
	if d.Completed != 1 || d.Percent != 100 {
		t.Errorf("Weighted = %d complete at %v%%, want 1 at 100%%", d.Completed, d.Percent)
	}
	if got := CurrentStreak(s, h.ID, today); got != 1 {
		t.Errorf("CurrentStreak = %d, want 1", got)
	}
	if got := LongestStreak(s, h.ID); got != 1 {
		t.Errorf("LongestStreak = %d, want 1", got)
	}

	// a stale flag claiming completion is ignored when the value falls short
	stale := newSnapshot(5, "2026-02-01", nil)
	stale.CheckIns = []models.CheckIn{{ID: "c1", HabitID: "h1", Date: today, Value: 3, Completed: true}}

	d = progress.Weighted(stale, today)
	if d.Completed != 0 || d.Percent != 60 {
		t.Errorf("stale Weighted = %d complete at %v%%, want 0 at 60%%", d.Completed, d.Percent)
	}
	if got := CurrentStreak(stale, "h1", today); got != 0 {
		t.Errorf("stale CurrentStreak = %d, want 0", got)
	}
	if got := LongestStreak(stale, "h1"); got != 0 {
		t.Errorf("stale LongestStreak = %d, want 0", got)
	}
}
