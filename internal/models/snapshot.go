package models

import (
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
)

// Snapshot is the complete local dataset. Every mutation produces a new
// snapshot; it is the unit persisted and the unit restored on undo.
type Snapshot struct {
	Version     int        `json:"version"`
	Habits      []Habit    `json:"habits"`
	CheckIns    []CheckIn  `json:"checkIns"`
	Categories  []Category `json:"categories"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// NewSnapshot returns an empty snapshot seeded with the default categories
func NewSnapshot(now time.Time) Snapshot {
	return Snapshot{
		Version:     constants.SchemaVersion,
		Habits:      []Habit{},
		CheckIns:    []CheckIn{},
		Categories:  DefaultCategories(),
		LastUpdated: now.UTC(),
	}
}

// Clone returns a deep copy that shares no memory with s
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Version:     s.Version,
		LastUpdated: s.LastUpdated,
	}
	if s.Habits != nil {
		out.Habits = make([]Habit, len(s.Habits))
		for i, h := range s.Habits {
			out.Habits[i] = h.clone()
		}
	}
	if s.CheckIns != nil {
		out.CheckIns = make([]CheckIn, len(s.CheckIns))
		copy(out.CheckIns, s.CheckIns)
	}
	if s.Categories != nil {
		out.Categories = make([]Category, len(s.Categories))
		copy(out.Categories, s.Categories)
	}
	return out
}

// FindHabit returns the habit with the given id
func (s Snapshot) FindHabit(id string) (Habit, bool) {
	for _, h := range s.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

// FindCategory returns the category with the given id
func (s Snapshot) FindCategory(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// IsEmpty reports whether the snapshot holds no user-created data.
// Preset categories do not count.
func (s Snapshot) IsEmpty() bool {
	if len(s.Habits) > 0 || len(s.CheckIns) > 0 {
		return false
	}
	for _, c := range s.Categories {
		if !c.IsPreset() {
			return false
		}
	}
	return true
}

func (h Habit) clone() Habit {
	out := h
	if h.CategoryID != nil {
		v := *h.CategoryID
		out.CategoryID = &v
	}
	if h.Color != nil {
		v := *h.Color
		out.Color = &v
	}
	if h.DeletedAt != nil {
		v := *h.DeletedAt
		out.DeletedAt = &v
	}
	return out
}
