package cloudsync

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/models"
)

// HabitRow is a habit as stored remotely
type HabitRow struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Target     int        `json:"target"`
	Weight     int        `json:"weight"`
	Timeframe  string     `json:"timeframe"`
	Unit       string     `json:"unit"`
	CategoryID *string    `json:"category_id"`
	Color      *string    `json:"color"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
}

// CategoryRow is a category as stored remotely
type CategoryRow struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
}

// CheckInRow is a check-in as stored remotely. Rows written by older clients may lack
// a timestamp, in which case CreatedAt stands in.
type CheckInRow struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	HabitID   string     `json:"habit_id"`
	Date      string     `json:"date"`
	Value     float64    `json:"value"`
	Completed bool       `json:"completed"`
	Timestamp *time.Time `json:"timestamp"`
	CreatedAt time.Time  `json:"created_at"`
}

// deleteRef is the payload of a queued delete. Check-ins are addressed by
// (habit_id, date) since another device may own the remote row's id.
type deleteRef struct {
	ID      string `json:"id,omitempty"`
	UserID  string `json:"user_id"`
	HabitID string `json:"habit_id,omitempty"`
	Date    string `json:"date,omitempty"`
}

// validCategoryRef reports whether id can be sent as a foreign key. Preset
// category ids are not UUIDs and never exist remotely.
func validCategoryRef(id *string) bool {
	if id == nil || *id == "" {
		return false
	}
	_, err := uuid.Parse(*id)
	return err == nil
}

func HabitToRow(h models.Habit, userID string) HabitRow {
	r := HabitRow{
		ID:        h.ID,
		UserID:    userID,
		Name:      h.Name,
		Type:      string(h.Type),
		Target:    h.Target,
		Weight:    h.Weight,
		Timeframe: h.Timeframe,
		Unit:      h.Unit,
		CreatedAt: h.CreatedAt,
	}
	if validCategoryRef(h.CategoryID) {
		v := *h.CategoryID
		r.CategoryID = &v
	}
	if h.Color != nil {
		v := *h.Color
		r.Color = &v
	}
	if h.DeletedAt != nil {
		v := *h.DeletedAt
		r.DeletedAt = &v
	}
	return r
}

func HabitFromRow(r HabitRow) models.Habit {
	h := models.Habit{
		ID:        r.ID,
		Name:      r.Name,
		Type:      models.HabitType(r.Type),
		Target:    r.Target,
		Weight:    models.ClampWeight(r.Weight),
		Timeframe: r.Timeframe,
		Unit:      r.Unit,
		CreatedAt: r.CreatedAt,
	}
	if !h.Type.Valid() {
		h.Type = models.HabitTypeBoolean
	}
	if h.Target < 1 || h.Type == models.HabitTypeBoolean {
		h.Target = constants.DefaultHabitTarget
	}
	if h.Timeframe == "" {
		h.Timeframe = constants.DefaultTimeframe
	}
	if r.CategoryID != nil && *r.CategoryID != "" {
		v := *r.CategoryID
		h.CategoryID = &v
	}
	if r.Color != nil {
		v := *r.Color
		h.Color = &v
	}
	if r.DeletedAt != nil {
		v := *r.DeletedAt
		h.DeletedAt = &v
	}
	return h
}

func CategoryToRow(c models.Category, userID string) CategoryRow {
	return CategoryRow{ID: c.ID, UserID: userID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

func CategoryFromRow(r CategoryRow) models.Category {
	c := models.Category{ID: r.ID, Name: r.Name, Icon: r.Icon, Color: r.Color}
	if c.Color == "" {
		c.Color = constants.DefaultCategoryColor
	}
	return c
}

func CheckInToRow(c models.CheckIn, userID string) CheckInRow {
	ts := c.Timestamp
	return CheckInRow{
		ID:        c.ID,
		UserID:    userID,
		HabitID:   c.HabitID,
		Date:      c.Date,
		Value:     c.Value,
		Completed: c.Completed,
		Timestamp: &ts,
		CreatedAt: c.Timestamp,
	}
}

func CheckInFromRow(r CheckInRow) models.CheckIn {
	c := models.CheckIn{
		ID:        r.ID,
		HabitID:   r.HabitID,
		Date:      r.Date,
		Value:     r.Value,
		Completed: r.Completed,
		Timestamp: r.CreatedAt,
	}
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		c.Timestamp = *r.Timestamp
	}
	return c
}
