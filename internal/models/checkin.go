package models

import "time"

// CheckIn represents the recorded value for one habit on one calendar day.
// Completed is an audit flag captured at write time; completion is always
// recomputed from Value against the habit's current target.
type CheckIn struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	Date      string    `json:"date"` // YYYY-MM-DD format
	Value     float64   `json:"value"`
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

// Key identifies the (habit, day) pair a check-in occupies
func (c CheckIn) Key() CheckInKey {
	return CheckInKey{HabitID: c.HabitID, Date: c.Date}
}

// CheckInKey is the natural key of a check-in
type CheckInKey struct {
	HabitID string
	Date    string
}
