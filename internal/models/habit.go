package models

import (
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
)

// HabitType is the kind of metric a habit tracks
type HabitType string

const (
	HabitTypeBoolean  HabitType = "boolean"
	HabitTypeCount    HabitType = "count"
	HabitTypeDuration HabitType = "duration"
)

// Valid reports whether t is one of the known habit types
func (t HabitType) Valid() bool {
	switch t {
	case HabitTypeBoolean, HabitTypeCount, HabitTypeDuration:
		return true
	}
	return false
}

// Habit represents a weighted daily behavior to track
type Habit struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       HabitType  `json:"type"`
	Target     int        `json:"target"`
	Weight     int        `json:"weight"`
	Timeframe  string     `json:"timeframe,omitempty"`
	Unit       string     `json:"unit"`
	CategoryID *string    `json:"categoryId"`
	Color      *string    `json:"color"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// CreatedDay returns the calendar day (YYYY-MM-DD) the habit was created on
func (h Habit) CreatedDay() string {
	return h.CreatedAt.Format(constants.DateFormat)
}

// ValidOn reports whether the habit existed on the given day. Soft-deleted habits
// remain visible for days strictly before their deletion day.
func (h Habit) ValidOn(day string) bool {
	if h.CreatedDay() > day {
		return false
	}
	if h.DeletedAt != nil && h.DeletedAt.Format(constants.DateFormat) <= day {
		return false
	}
	return true
}

// IsDeleted reports whether the habit has been soft-deleted
func (h Habit) IsDeleted() bool {
	return h.DeletedAt != nil
}

// EffectiveTarget never returns less than 1 so ratios stay bounded
func (h Habit) EffectiveTarget() float64 {
	if h.Target < 1 {
		return 1
	}
	return float64(h.Target)
}

// EffectiveWeight clamps the weight into the supported range
func (h Habit) EffectiveWeight() float64 {
	return float64(ClampWeight(h.Weight))
}

// Meets reports whether value satisfies the habit's current target
func (h Habit) Meets(value float64) bool {
	return value >= h.EffectiveTarget()
}

// ClampWeight maps any weight into [MinHabitWeight, MaxHabitWeight]; zero means default
func ClampWeight(w int) int {
	switch {
	case w == 0:
		return constants.DefaultHabitWeight
	case w < constants.MinHabitWeight:
		return constants.MinHabitWeight
	case w > constants.MaxHabitWeight:
		return constants.MaxHabitWeight
	}
	return w
}
