package cli

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/eventstore"
	"github.com/julianstephens/weighbit/internal/models"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits." default:"1"`
	Edit    HabitEditCmd    `cmd:"" help:"Edit a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and all of its check-ins."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit, keeping its history."`
	Restore HabitRestoreCmd `cmd:"" help:"Restore an archived habit."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Type     string `help:"Habit type." enum:"boolean,count,duration" default:"boolean"`
	Target   int    `help:"Daily target (ignored for boolean habits)." default:"1"`
	Weight   int    `help:"Importance from 1 to 5." default:"3"`
	Unit     string `help:"Unit label, e.g. min or pages."`
	Category string `help:"Category name or id."`
	Color    string `help:"Display color."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	if _, exists := eventstore.ResolveHabit(snap, c.Name); exists {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	in := eventstore.HabitInput{
		Name:   c.Name,
		Type:   models.HabitType(c.Type),
		Target: c.Target,
		Weight: c.Weight,
		Unit:   c.Unit,
	}
	if c.Category != "" {
		cat, ok := eventstore.ResolveCategory(snap, c.Category)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, c.Category)
		}
		in.CategoryID = &cat.ID
	}
	if c.Color != "" {
		in.Color = &c.Color
	}

	h, err := ctx.Tracker.AddHabit(context.Background(), in)
	if err != nil {
		return err
	}
	ctx.printf("%s Added habit: %s (weight %d, target %s)\n", okStyle.Render("✓"), h.Name, h.Weight, describeTarget(h))
	return nil
}

type HabitListCmd struct {
	All bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	habits := eventstore.HabitsByWeight(snap)
	if c.All {
		habits = append(habits, eventstore.DeletedHabits(snap)...)
	}

	if len(habits) == 0 {
		ctx.println("No habits found.")
		return nil
	}

	for _, h := range habits {
		status := ""
		if h.IsDeleted() {
			status = mutedStyle.Render(" [ARCHIVED]")
		}
		category := ""
		if h.CategoryID != nil {
			if cat, ok := eventstore.GetCategory(snap, *h.CategoryID); ok {
				category = mutedStyle.Render(" " + cat.Icon + " " + cat.Name)
			}
		}
		ctx.printf("%-24s %s  target %-10s%s%s\n", h.Name, strings.Repeat("★", h.Weight), describeTarget(h), category, status)
	}
	return nil
}

type HabitEditCmd struct {
	Habit         string `arg:"" help:"Habit name or id."`
	Name          string `help:"New name."`
	Type          string `help:"New type." enum:",boolean,count,duration" default:""`
	Target        int    `help:"New target."`
	Weight        int    `help:"New weight (1-5)."`
	Unit          string `help:"New unit."`
	Category      string `help:"New category name or id."`
	ClearCategory bool   `help:"Remove the habit from its category."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	h, ok := eventstore.ResolveHabit(snap, c.Habit)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, c.Habit)
	}

	var patch eventstore.HabitPatch
	changed := false
	if c.Name != "" {
		patch.Name = &c.Name
		changed = true
	}
	if c.Type != "" {
		t := models.HabitType(c.Type)
		patch.Type = &t
		changed = true
	}
	if c.Target != 0 {
		patch.Target = &c.Target
		changed = true
	}
	if c.Weight != 0 {
		patch.Weight = &c.Weight
		changed = true
	}
	if c.Unit != "" {
		patch.Unit = &c.Unit
		changed = true
	}
	if c.ClearCategory {
		empty := ""
		patch.CategoryID = &empty
		changed = true
	} else if c.Category != "" {
		cat, ok := eventstore.ResolveCategory(snap, c.Category)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, c.Category)
		}
		patch.CategoryID = &cat.ID
		changed = true
	}
	if !changed {
		ctx.println("Nothing to change.")
		return nil
	}

	updated, err := ctx.Tracker.UpdateHabit(context.Background(), h.ID, patch)
	if err != nil {
		return err
	}
	ctx.printf("%s Updated habit: %s\n", okStyle.Render("✓"), updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, ok := eventstore.ResolveHabit(ctx.Tracker.Snapshot(), c.Habit)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, c.Habit)
	}
	ok, err := ctx.confirmed(fmt.Sprintf("Delete %q?", h.Name), "All of its check-ins are removed too. Use 'habit archive' to keep the history.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	if _, err := ctx.Tracker.DeleteHabit(context.Background(), h.ID); err != nil {
		return err
	}
	ctx.printf("%s Deleted habit: %s %s\n", okStyle.Render("✓"), h.Name, mutedStyle.Render("(weighbit undo to revert)"))
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitArchiveCmd) Run(ctx *Context) error {
	h, ok := eventstore.ResolveHabit(ctx.Tracker.Snapshot(), c.Habit)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, c.Habit)
	}
	if _, err := ctx.Tracker.ArchiveHabit(context.Background(), h.ID); err != nil {
		return err
	}
	ctx.printf("%s Archived habit: %s\n", okStyle.Render("✓"), h.Name)
	return nil
}

type HabitRestoreCmd struct {
	Habit string `arg:"" help:"Archived habit name or id."`
}

func (c *HabitRestoreCmd) Run(ctx *Context) error {
	h, ok := findArchived(ctx.Tracker.Snapshot(), c.Habit)
	if !ok {
		return fmt.Errorf("%w: no archived habit %s", apperrors.ErrHabitNotFound, c.Habit)
	}
	if _, err := ctx.Tracker.RestoreHabit(context.Background(), h.ID); err != nil {
		return err
	}
	ctx.printf("%s Restored habit: %s\n", okStyle.Render("✓"), h.Name)
	return nil
}

func findArchived(s models.Snapshot, ref string) (models.Habit, bool) {
	for _, h := range eventstore.DeletedHabits(s) {
		if h.ID == ref || strings.EqualFold(h.Name, ref) {
			return h, true
		}
	}
	return models.Habit{}, false
}

func describeTarget(h models.Habit) string {
	if h.Type == models.HabitTypeBoolean {
		return "done"
	}
	if h.Unit != "" {
		return fmt.Sprintf("%d %s", h.Target, h.Unit)
	}
	return fmt.Sprintf("%d", h.Target)
}
