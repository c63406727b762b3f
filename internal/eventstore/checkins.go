package eventstore

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/utils"
)

// RecordCheckIn upserts the check-in for (habitID, date). An existing entry keeps its id
// and has its value, completed flag, and timestamp overwritten. An empty date means the
// calendar day of now.
func RecordCheckIn(s models.Snapshot, habitID string, value float64, date string, now time.Time) (models.Snapshot, models.CheckIn, error) {
	h, ok := s.FindHabit(habitID)
	if !ok {
		return s, models.CheckIn{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, habitID)
	}
	if date == "" {
		date = utils.FormatDay(now)
	}
	if !utils.ValidateDay(date) {
		return s, models.CheckIn{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrInvalidInput, date)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return s, models.CheckIn{}, fmt.Errorf("%w: value must be a non-negative number, got %v", apperrors.ErrInvalidInput, value)
	}
	if h.Type == models.HabitTypeBoolean && value > 0 {
		value = 1
	}

	out := s.Clone()
	c := models.CheckIn{
		HabitID:   habitID,
		Date:      date,
		Value:     value,
		Completed: h.Meets(value),
		Timestamp: now,
	}
	if idx := checkInIndex(out, habitID, date); idx >= 0 {
		c.ID = out.CheckIns[idx].ID
		out.CheckIns[idx] = c
	} else {
		c.ID = newID()
		out.CheckIns = append(out.CheckIns, c)
	}
	out.LastUpdated = now.UTC()
	return out, c, nil
}

// DeleteCheckIn removes the check-in for (habitID, date)
func DeleteCheckIn(s models.Snapshot, habitID, date string, now time.Time) (models.Snapshot, models.CheckIn, error) {
	if _, ok := s.FindHabit(habitID); !ok {
		return s, models.CheckIn{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, habitID)
	}
	idx := checkInIndex(s, habitID, date)
	if idx < 0 {
		return s, models.CheckIn{}, fmt.Errorf("%w: no check-in for %s on %s", apperrors.ErrInvalidInput, habitID, date)
	}

	out := s.Clone()
	removed := out.CheckIns[idx]
	out.CheckIns = append(out.CheckIns[:idx], out.CheckIns[idx+1:]...)
	out.LastUpdated = now.UTC()
	return out, removed, nil
}

func checkInIndex(s models.Snapshot, habitID, date string) int {
	for i, c := range s.CheckIns {
		if c.HabitID == habitID && c.Date == date {
			return i
		}
	}
	return -1
}
