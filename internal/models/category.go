package models

import (
	"strings"

	"github.com/julianstephens/weighbit/internal/constants"
)

// Category groups habits for display; habits reference it by id
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// IsPreset reports whether the category is one of the seeded defaults
func (c Category) IsPreset() bool {
	return strings.HasPrefix(c.ID, constants.DefaultCategoryPrefix)
}

// DefaultCategories returns a fresh copy of the preset categories
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-health", Name: "Health & Fitness", Icon: "🏃", Color: "#22c55e"},
		{ID: "cat-productivity", Name: "Productivity & Work", Icon: "🧠", Color: "#3b82f6"},
		{ID: "cat-finance", Name: "Finance", Icon: "💰", Color: "#eab308"},
		{ID: "cat-social", Name: "Relationships & Social", Icon: "👥", Color: "#ec4899"},
		{ID: "cat-learning", Name: "Learning", Icon: "📚", Color: "#8b5cf6"},
		{ID: "cat-wellness", Name: "Mental Wellness", Icon: "🧘", Color: "#14b8a6"},
		{ID: "cat-home", Name: "Home & Organization", Icon: "🏠", Color: "#f97316"},
		{ID: "cat-hobby", Name: "Hobbies & Creativity", Icon: "🎨", Color: "#ef4444"},
	}
}
