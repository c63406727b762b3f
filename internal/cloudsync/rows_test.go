package cloudsync

import (
	"testing"
	"time"

	"github.com/julianstephens/weighbit/internal/models"
)

const userCategoryID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func strPtr(s string) *string { return &s }

func TestHabitRowCategoryMapping(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		categoryID *string
		want       *string
	}{
		{"preset id becomes null", strPtr("cat-health"), nil},
		{"uuid passes through", strPtr(userCategoryID), strPtr(userCategoryID)},
		{"nil stays nil", nil, nil},
		{"garbage becomes null", strPtr("not-a-uuid"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := models.Habit{ID: "h1", Name: "Run", Type: models.HabitTypeBoolean, Target: 1, Weight: 3, CategoryID: tt.categoryID, CreatedAt: created}
			row := HabitToRow(h, "user-1")
			if row.UserID != "user-1" || row.ID != "h1" || !row.CreatedAt.Equal(created) {
				t.Errorf("unexpected row: %+v", row)
			}
			switch {
			case tt.want == nil && row.CategoryID != nil:
				t.Errorf("category_id = %q, want null", *row.CategoryID)
			case tt.want != nil && (row.CategoryID == nil || *row.CategoryID != *tt.want):
				t.Errorf("category_id = %v, want %q", row.CategoryID, *tt.want)
			}
		})
	}
}

func TestHabitFromRowNormalizes(t *testing.T) {
	h := HabitFromRow(HabitRow{ID: "h1", Name: "x", Type: "boolean", Target: 7, Weight: 0, CategoryID: strPtr("")})
	if h.Target != 1 || h.Weight != 3 || h.CategoryID != nil || h.Timeframe != "daily" {
		t.Errorf("row not normalized: %+v", h)
	}
}

func TestCheckInTimestampFallback(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	ts := created.Add(time.Hour)

	withTS := CheckInFromRow(CheckInRow{ID: "c1", HabitID: "h1", Date: "2026-01-05", Value: 2, Timestamp: &ts, CreatedAt: created})
	if !withTS.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", withTS.Timestamp, ts)
	}
	withoutTS := CheckInFromRow(CheckInRow{ID: "c1", HabitID: "h1", Date: "2026-01-05", Value: 2, CreatedAt: created})
	if !withoutTS.Timestamp.Equal(created) {
		t.Errorf("missing timestamp should fall back to created_at, got %v", withoutTS.Timestamp)
	}
}

func TestCategoryFromRowDefaultsColor(t *testing.T) {
	c := CategoryFromRow(CategoryRow{ID: userCategoryID, Name: "Garden"})
	if c.Color != "#6b7280" {
		t.Errorf("color = %q, want default", c.Color)
	}
}
