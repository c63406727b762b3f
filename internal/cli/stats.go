package cli

import (
	"fmt"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/eventstore"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/progress"
	"github.com/julianstephens/weighbit/internal/stats"
	"github.com/julianstephens/weighbit/internal/utils"
)

const recentDays = 14

type StatsCmd struct {
	Habit string `arg:"" optional:"" help:"Habit name or id (default: every active habit)."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	snap := ctx.Tracker.Snapshot()
	today := ctx.today()

	if c.Habit == "" {
		habits := eventstore.HabitsByWeight(snap)
		if len(habits) == 0 {
			ctx.println("No habits found.")
			return nil
		}
		ctx.printf("%-24s %8s %8s %6s\n", "HABIT", "CURRENT", "LONGEST", "30D")
		for _, h := range habits {
			sum := stats.Summarize(snap, h.ID, today)
			ctx.printf("%-24s %8d %8d %5d%%\n", h.Name, sum.CurrentStreak, sum.LongestStreak, sum.CompletionRate)
		}
		return nil
	}

	h, ok := eventstore.ResolveHabit(snap, c.Habit)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, c.Habit)
	}
	sum := stats.Summarize(snap, h.ID, today)

	ctx.println(titleStyle.Render(h.Name))
	ctx.printf("Current streak:  %d days\n", sum.CurrentStreak)
	ctx.printf("Longest streak:  %d days\n", sum.LongestStreak)
	ctx.printf("Last 30 days:    %d%%\n", sum.CompletionRate)
	ctx.printf("Check-ins:       %d\n", len(sum.History))

	days, err := utils.LastNDays(today, recentDays)
	if err != nil {
		return err
	}
	ctx.printf("\n%s  ", mutedStyle.Render(days[len(days)-1]+" .. "+today))
	for i := len(days) - 1; i >= 0; i-- {
		ctx.printf("%s", historyMark(snap, h, days[i]))
	}
	ctx.println()
	return nil
}

func historyMark(snap models.Snapshot, h models.Habit, day string) string {
	if !h.ValidOn(day) {
		return mutedStyle.Render("·")
	}
	r := progress.CompletionRatio(snap, h.ID, day)
	switch {
	case r >= 1:
		return okStyle.Render("■")
	case r > 0:
		return warnStyle.Render("▪")
	default:
		return mutedStyle.Render("□")
	}
}
