package eventstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/models"
)

// CategoryInput holds the fields for a new category
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
}

// CategoryPatch holds the fields to change on an existing category
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// AddCategory appends a new user category
func AddCategory(s models.Snapshot, in CategoryInput, now time.Time) (models.Snapshot, models.Category, error) {
	c := models.Category{
		ID:    newID(),
		Name:  strings.TrimSpace(in.Name),
		Icon:  in.Icon,
		Color: in.Color,
	}
	if c.Color == "" {
		c.Color = constants.DefaultCategoryColor
	}
	if c.Name == "" {
		return s, models.Category{}, fmt.Errorf("%w: category name is required", apperrors.ErrInvalidInput)
	}

	out := s.Clone()
	out.Categories = append(out.Categories, c)
	out.LastUpdated = now.UTC()
	return out, c, nil
}

// UpdateCategory shallow-merges patch into the category with the given id
func UpdateCategory(s models.Snapshot, id string, patch CategoryPatch, now time.Time) (models.Snapshot, models.Category, error) {
	idx := categoryIndex(s, id)
	if idx < 0 {
		return s, models.Category{}, fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, id)
	}

	out := s.Clone()
	c := out.Categories[idx]
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if c.Name == "" {
		return s, models.Category{}, fmt.Errorf("%w: category name is required", apperrors.ErrInvalidInput)
	}
	if c.Color == "" {
		c.Color = constants.DefaultCategoryColor
	}

	out.Categories[idx] = c
	out.LastUpdated = now.UTC()
	return out, c, nil
}

// DeleteCategory removes the category and clears it from every habit that referenced it.
// Habits are never deleted. The second return value lists the habits that were changed.
func DeleteCategory(s models.Snapshot, id string, now time.Time) (models.Snapshot, []models.Habit, error) {
	idx := categoryIndex(s, id)
	if idx < 0 {
		return s, nil, fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, id)
	}

	out := s.Clone()
	out.Categories = append(out.Categories[:idx], out.Categories[idx+1:]...)

	var orphaned []models.Habit
	for i := range out.Habits {
		if out.Habits[i].CategoryID != nil && *out.Habits[i].CategoryID == id {
			out.Habits[i].CategoryID = nil
			orphaned = append(orphaned, out.Habits[i])
		}
	}
	out.LastUpdated = now.UTC()
	return out, orphaned, nil
}

func categoryIndex(s models.Snapshot, id string) int {
	for i, c := range s.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
