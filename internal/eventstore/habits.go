package eventstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/models"
)

// newID generates entity ids; replaced in tests
var newID = uuid.NewString

// HabitInput holds the fields for a new habit. Zero values take the defaults.
type HabitInput struct {
	Name       string
	Type       models.HabitType
	Target     int
	Weight     int
	Timeframe  string
	Unit       string
	CategoryID *string
	Color      *string
}

// HabitPatch holds the fields to change on an existing habit. Nil fields are left alone;
// an empty CategoryID or Color clears the reference.
type HabitPatch struct {
	Name       *string
	Type       *models.HabitType
	Target     *int
	Weight     *int
	Timeframe  *string
	Unit       *string
	CategoryID *string
	Color      *string
}

// NewHabit validates input and builds a habit with defaults applied
func NewHabit(s models.Snapshot, in HabitInput, now time.Time) (models.Habit, error) {
	h := models.Habit{
		ID:        newID(),
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Target:    in.Target,
		Weight:    in.Weight,
		Timeframe: in.Timeframe,
		Unit:      strings.TrimSpace(in.Unit),
		CreatedAt: now,
	}
	if h.Type == "" {
		h.Type = models.HabitTypeBoolean
	}
	if h.Target == 0 {
		h.Target = constants.DefaultHabitTarget
	}
	if h.Weight == 0 {
		h.Weight = constants.DefaultHabitWeight
	}
	if h.Timeframe == "" {
		h.Timeframe = constants.DefaultTimeframe
	}
	if in.CategoryID != nil && *in.CategoryID != "" {
		v := *in.CategoryID
		h.CategoryID = &v
	}
	if in.Color != nil && *in.Color != "" {
		v := *in.Color
		h.Color = &v
	}
	if err := validateHabit(s, &h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func validateHabit(s models.Snapshot, h *models.Habit) error {
	if h.Name == "" {
		return fmt.Errorf("%w: habit name is required", apperrors.ErrInvalidInput)
	}
	if !h.Type.Valid() {
		return fmt.Errorf("%w: unknown habit type %q", apperrors.ErrInvalidInput, h.Type)
	}
	if h.Target < 1 {
		return fmt.Errorf("%w: target must be at least 1, got %d", apperrors.ErrInvalidInput, h.Target)
	}
	if h.Weight < constants.MinHabitWeight || h.Weight > constants.MaxHabitWeight {
		return fmt.Errorf("%w: weight must be between %d and %d, got %d",
			apperrors.ErrInvalidInput, constants.MinHabitWeight, constants.MaxHabitWeight, h.Weight)
	}
	if h.Type == models.HabitTypeBoolean {
		h.Target = 1
		h.Unit = ""
	}
	if h.CategoryID != nil {
		if _, ok := s.FindCategory(*h.CategoryID); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, *h.CategoryID)
		}
	}
	return nil
}

// AddHabit appends a new habit
func AddHabit(s models.Snapshot, in HabitInput, now time.Time) (models.Snapshot, models.Habit, error) {
	h, err := NewHabit(s, in, now)
	if err != nil {
		return s, models.Habit{}, err
	}
	out := s.Clone()
	out.Habits = append(out.Habits, h)
	out.LastUpdated = now.UTC()
	return out, h, nil
}

// UpdateHabit shallow-merges patch into the habit with the given id
func UpdateHabit(s models.Snapshot, id string, patch HabitPatch, now time.Time) (models.Snapshot, models.Habit, error) {
	idx := habitIndex(s, id)
	if idx < 0 {
		return s, models.Habit{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, id)
	}

	out := s.Clone()
	h := out.Habits[idx]
	if patch.Name != nil {
		h.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		h.Type = *patch.Type
	}
	if patch.Target != nil {
		h.Target = *patch.Target
	}
	if patch.Weight != nil {
		h.Weight = *patch.Weight
	}
	if patch.Timeframe != nil {
		h.Timeframe = *patch.Timeframe
	}
	if patch.Unit != nil {
		h.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.CategoryID != nil {
		h.CategoryID = optional(*patch.CategoryID)
	}
	if patch.Color != nil {
		h.Color = optional(*patch.Color)
	}
	if err := validateHabit(out, &h); err != nil {
		return s, models.Habit{}, err
	}

	out.Habits[idx] = h
	out.LastUpdated = now.UTC()
	return out, h, nil
}

// DeleteHabit removes the habit and every check-in recorded against it
func DeleteHabit(s models.Snapshot, id string, now time.Time) (models.Snapshot, models.Habit, error) {
	idx := habitIndex(s, id)
	if idx < 0 {
		return s, models.Habit{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, id)
	}

	out := s.Clone()
	removed := out.Habits[idx]
	out.Habits = append(out.Habits[:idx], out.Habits[idx+1:]...)

	kept := out.CheckIns[:0]
	for _, c := range out.CheckIns {
		if c.HabitID != id {
			kept = append(kept, c)
		}
	}
	out.CheckIns = kept
	out.LastUpdated = now.UTC()
	return out, removed, nil
}

// SoftDeleteHabit hides the habit from current views while keeping its history
func SoftDeleteHabit(s models.Snapshot, id string, now time.Time) (models.Snapshot, models.Habit, error) {
	idx := habitIndex(s, id)
	if idx < 0 {
		return s, models.Habit{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, id)
	}
	if s.Habits[idx].IsDeleted() {
		return s, s.Habits[idx], nil
	}

	out := s.Clone()
	deletedAt := now
	out.Habits[idx].DeletedAt = &deletedAt
	out.LastUpdated = now.UTC()
	return out, out.Habits[idx], nil
}

// RestoreHabit clears a soft delete
func RestoreHabit(s models.Snapshot, id string, now time.Time) (models.Snapshot, models.Habit, error) {
	idx := habitIndex(s, id)
	if idx < 0 {
		return s, models.Habit{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, id)
	}
	if !s.Habits[idx].IsDeleted() {
		return s, s.Habits[idx], nil
	}

	out := s.Clone()
	out.Habits[idx].DeletedAt = nil
	out.LastUpdated = now.UTC()
	return out, out.Habits[idx], nil
}

func habitIndex(s models.Snapshot, id string) int {
	for i, h := range s.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
