package eventstore

import (
	"sort"
	"strings"

	"github.com/julianstephens/weighbit/internal/models"
)

// ActiveHabits returns habits that are not soft-deleted, in insertion order
func ActiveHabits(s models.Snapshot) []models.Habit {
	out := make([]models.Habit, 0, len(s.Habits))
	for _, h := range s.Habits {
		if !h.IsDeleted() {
			out = append(out, h)
		}
	}
	return out
}

// DeletedHabits returns soft-deleted habits
func DeletedHabits(s models.Snapshot) []models.Habit {
	var out []models.Habit
	for _, h := range s.Habits {
		if h.IsDeleted() {
			out = append(out, h)
		}
	}
	return out
}

// HabitsByWeight returns active habits heaviest first, ties broken by name
func HabitsByWeight(s models.Snapshot) []models.Habit {
	out := ActiveHabits(s)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := models.ClampWeight(out[i].Weight), models.ClampWeight(out[j].Weight)
		if wi != wj {
			return wi > wj
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// HabitsInCategory returns active habits referencing the category
func HabitsInCategory(s models.Snapshot, categoryID string) []models.Habit {
	var out []models.Habit
	for _, h := range ActiveHabits(s) {
		if h.CategoryID != nil && *h.CategoryID == categoryID {
			out = append(out, h)
		}
	}
	return out
}

// GetCheckIn returns the check-in for (habitID, date)
func GetCheckIn(s models.Snapshot, habitID, date string) (models.CheckIn, bool) {
	if idx := checkInIndex(s, habitID, date); idx >= 0 {
		return s.CheckIns[idx], true
	}
	return models.CheckIn{}, false
}

// CheckInsForDate returns every check-in recorded on date
func CheckInsForDate(s models.Snapshot, date string) []models.CheckIn {
	var out []models.CheckIn
	for _, c := range s.CheckIns {
		if c.Date == date {
			out = append(out, c)
		}
	}
	return out
}

// GetCategory returns the category with the given id
func GetCategory(s models.Snapshot, id string) (models.Category, bool) {
	return s.FindCategory(id)
}

// ResolveHabit finds a habit by exact id, then by case-insensitive name among active habits
func ResolveHabit(s models.Snapshot, ref string) (models.Habit, bool) {
	if h, ok := s.FindHabit(ref); ok {
		return h, true
	}
	ref = strings.TrimSpace(ref)
	for _, h := range ActiveHabits(s) {
		if strings.EqualFold(h.Name, ref) {
			return h, true
		}
	}
	return models.Habit{}, false
}

// ResolveCategory finds a category by exact id, then by case-insensitive name
func ResolveCategory(s models.Snapshot, ref string) (models.Category, bool) {
	if c, ok := s.FindCategory(ref); ok {
		return c, true
	}
	ref = strings.TrimSpace(ref)
	for _, c := range s.Categories {
		if strings.EqualFold(c.Name, ref) {
			return c, true
		}
	}
	return models.Category{}, false
}
