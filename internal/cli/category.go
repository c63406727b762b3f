package cli

import (
	"context"
	"fmt"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/eventstore"
)

type CategoryCmd struct {
	Add    CategoryAddCmd    `cmd:"" help:"Add a category."`
	List   CategoryListCmd   `cmd:"" help:"List categories." default:"1"`
	Edit   CategoryEditCmd   `cmd:"" help:"Edit a category."`
	Delete CategoryDeleteCmd `cmd:"" help:"Delete a category. Its habits are kept."`
}

type CategoryAddCmd struct {
	Name  string `arg:"" help:"Category name."`
	Icon  string `help:"Icon, usually an emoji."`
	Color string `help:"Display color."`
}

func (c *CategoryAddCmd) Run(ctx *Context) error {
	if _, exists := eventstore.ResolveCategory(ctx.Tracker.Snapshot(), c.Name); exists {
		return fmt.Errorf("category with name %q already exists", c.Name)
	}
	cat, err := ctx.Tracker.AddCategory(context.Background(), eventstore.CategoryInput{Name: c.Name, Icon: c.Icon, Color: c.Color})
	if err != nil {
		return err
	}
	ctx.printf("%s Added category: %s %s\n", okStyle.Render("✓"), cat.Icon, cat.Name)
	return nil
}

type CategoryListCmd struct{}

func (c *CategoryListCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	if len(snap.Categories) == 0 {
		ctx.println("No categories found.")
		return nil
	}
	for _, cat := range snap.Categories {
		n := len(eventstore.HabitsInCategory(snap, cat.ID))
		preset := ""
		if cat.IsPreset() {
			preset = mutedStyle.Render(" (preset)")
		}
		ctx.printf("%s %-26s %d habit(s)%s\n", cat.Icon, cat.Name, n, preset)
	}
	return nil
}

type CategoryEditCmd struct {
	Category string `arg:"" help:"Category name or id."`
	Name     string `help:"New name."`
	Icon     string `help:"New icon."`
	Color    string `help:"New color."`
}

func (c *CategoryEditCmd) Run(ctx *Context) error {
	cat, ok := eventstore.ResolveCategory(ctx.Tracker.Snapshot(), c.Category)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, c.Category)
	}
	var patch eventstore.CategoryPatch
	if c.Name != "" {
		patch.Name = &c.Name
	}
	if c.Icon != "" {
		patch.Icon = &c.Icon
	}
	if c.Color != "" {
		patch.Color = &c.Color
	}
	if patch == (eventstore.CategoryPatch{}) {
		ctx.println("Nothing to change.")
		return nil
	}
	updated, err := ctx.Tracker.UpdateCategory(context.Background(), cat.ID, patch)
	if err != nil {
		return err
	}
	ctx.printf("%s Updated category: %s %s\n", okStyle.Render("✓"), updated.Icon, updated.Name)
	return nil
}

type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category name or id."`
}

func (c *CategoryDeleteCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	cat, ok := eventstore.ResolveCategory(snap, c.Category)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, c.Category)
	}
	n := len(eventstore.HabitsInCategory(snap, cat.ID))
	ok, err := ctx.confirmed(fmt.Sprintf("Delete category %q?", cat.Name), fmt.Sprintf("%d habit(s) will be left without a category.", n))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	orphaned, err := ctx.Tracker.DeleteCategory(context.Background(), cat.ID)
	if err != nil {
		return err
	}
	ctx.printf("%s Deleted category: %s (%d habit(s) uncategorized)\n", okStyle.Render("✓"), cat.Name, len(orphaned))
	return nil
}
