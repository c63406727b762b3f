package cli

import (
	"context"
	"fmt"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/eventstore"
	"github.com/julianstephens/weighbit/internal/progress"
	"github.com/julianstephens/weighbit/internal/utils"
)

type CheckinCmd struct {
	Habit  string  `arg:"" help:"Habit name or id."`
	Value  float64 `arg:"" optional:"" help:"Amount done; 1 marks a boolean habit done, 0 undone." default:"1"`
	Date   string  `help:"Date in YYYY-MM-DD format (default: today)."`
	Remove bool    `help:"Remove the check-in instead of recording one."`
}

func (c *CheckinCmd) Run(ctx *Context) error {
	h, ok := eventstore.ResolveHabit(ctx.Tracker.Snapshot(), c.Habit)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, c.Habit)
	}
	day := c.Date
	if day == "" {
		day = ctx.today()
	} else if !utils.ValidateDay(day) {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}

	if c.Remove {
		if _, err := ctx.Tracker.DeleteCheckIn(context.Background(), h.ID, day); err != nil {
			return err
		}
		ctx.printf("%s Removed check-in for %s on %s\n", okStyle.Render("✓"), h.Name, day)
		return nil
	}

	ci, err := ctx.Tracker.RecordCheckIn(context.Background(), h.ID, c.Value, day)
	if err != nil {
		return err
	}
	ratio := progress.CompletionRatio(ctx.Tracker.Snapshot(), h.ID, day)
	mark := mutedStyle.Render("…")
	if ratio >= 1 {
		mark = okStyle.Render("✓")
	}
	ctx.printf("%s %s on %s: %s / %s (%.0f%%)\n", mark, h.Name, ci.Date, formatValue(ci.Value), describeTarget(h), ratio*100)
	return nil
}

type TodayCmd struct {
	Date string `help:"Show another day instead of today (YYYY-MM-DD)."`
}

func (c *TodayCmd) Run(ctx *Context) error {
	day := c.Date
	if day == "" {
		day = ctx.today()
	} else if !utils.ValidateDay(day) {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}

	snap := ctx.Tracker.Snapshot()
	d := progress.Weighted(snap, day)
	ctx.println(titleStyle.Render("Habits for " + day))
	if d.Total == 0 {
		ctx.println("No habits tracked on this day.")
		return nil
	}

	for _, h := range eventstore.HabitsByWeight(snap) {
		if !h.ValidOn(day) {
			continue
		}
		ratio := progress.CompletionRatio(snap, h.ID, day)
		value := "-"
		if ci, ok := eventstore.GetCheckIn(snap, h.ID, day); ok {
			value = formatValue(ci.Value)
		}
		mark := "[ ]"
		if ratio >= 1 {
			mark = okStyle.Render("[✓]")
		}
		ctx.printf("%s %-24s %6s / %-10s w%d\n", mark, h.Name, value, describeTarget(h), h.Weight)
	}
	ctx.printf("\n%s %s  %d/%d complete\n", bar(d.Percent), formatPercent(d.Percent), d.Completed, d.Total)
	return nil
}
