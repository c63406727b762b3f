package cloudsync

import (
	"testing"
	"time"

	"github.com/julianstephens/weighbit/internal/models"
)

var mergeNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestMergeRemoteWinsOnCheckInKey(t *testing.T) {
	local := models.Snapshot{
		Version: 1,
		Habits:  []models.Habit{{ID: "h1", Name: "local name"}},
		CheckIns: []models.CheckIn{
			{ID: "local-c", HabitID: "h1", Date: "2026-01-01", Value: 2, Timestamp: mergeNow},
		},
	}
	remote := RemoteData{
		Habits: []models.Habit{{ID: "h1", Name: "remote name"}},
		CheckIns: []models.CheckIn{
			{ID: "remote-c", HabitID: "h1", Date: "2026-01-01", Value: 5, Timestamp: mergeNow.Add(-48 * time.Hour)},
		},
	}

	merged, stats := Merge(local, remote, mergeNow)
	if len(merged.CheckIns) != 1 {
		t.Fatalf("expected 1 check-in, got %d", len(merged.CheckIns))
	}
	if merged.CheckIns[0].Value != 5 || merged.CheckIns[0].ID != "remote-c" {
		t.Errorf("remote should win regardless of timestamp, got %+v", merged.CheckIns[0])
	}
	if merged.Habits[0].Name != "remote name" {
		t.Errorf("remote habit should win, got %q", merged.Habits[0].Name)
	}
	if stats.LocalOnlyCheckIns != 0 || stats.LocalOnlyHabits != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMergeKeepsLocalOnlyEntities(t *testing.T) {
	local := models.Snapshot{
		Version:    1,
		Habits:     []models.Habit{{ID: "shared"}, {ID: "local-only"}},
		Categories: models.DefaultCategories(),
		CheckIns: []models.CheckIn{
			{ID: "c1", HabitID: "local-only", Date: "2026-02-01", Value: 1},
		},
	}
	remote := RemoteData{
		Habits:     []models.Habit{{ID: "remote-only"}, {ID: "shared"}},
		Categories: []models.Category{{ID: userCategoryID, Name: "Garden"}},
		CheckIns: []models.CheckIn{
			{ID: "c2", HabitID: "remote-only", Date: "2026-02-01", Value: 1},
		},
	}

	merged, stats := Merge(local, remote, mergeNow)

	wantHabits := []string{"remote-only", "shared", "local-only"}
	if len(merged.Habits) != len(wantHabits) {
		t.Fatalf("habits = %+v", merged.Habits)
	}
	for i, id := range wantHabits {
		if merged.Habits[i].ID != id {
			t.Errorf("Habits[%d] = %s, want %s", i, merged.Habits[i].ID, id)
		}
	}
	if len(merged.Categories) != 9 || merged.Categories[0].ID != userCategoryID {
		t.Errorf("remote category first then 8 local presets, got %d", len(merged.Categories))
	}
	if len(merged.CheckIns) != 2 {
		t.Errorf("check-ins from both sides should survive, got %d", len(merged.CheckIns))
	}
	if stats.LocalOnlyHabits != 1 || stats.LocalOnlyCategories != 8 || stats.LocalOnlyCheckIns != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !merged.LastUpdated.Equal(mergeNow) || merged.Version != 1 {
		t.Error("merge should stamp LastUpdated and keep version")
	}
}

func TestMergeDoesNotAlias(t *testing.T) {
	cat := "x"
	local := models.Snapshot{Habits: []models.Habit{{ID: "h", CategoryID: &cat}}}
	merged, _ := Merge(local, RemoteData{}, mergeNow)
	*merged.Habits[0].CategoryID = "changed"
	if cat != "x" {
		t.Error("merged snapshot shares memory with local")
	}
}
