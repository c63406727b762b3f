package cli

import (
	"strconv"

	"github.com/julianstephens/weighbit/internal/progress"
	"github.com/julianstephens/weighbit/internal/utils"
)

type WeeksCmd struct {
	Year int `arg:"" optional:"" help:"Year to list (default: current year)."`
}

func (c *WeeksCmd) Run(ctx *Context) error {
	today := ctx.today()
	year := c.Year
	if year == 0 {
		year, _ = strconv.Atoi(today[:4])
	}

	weeks := utils.WeeksOfYear(year, today)
	if len(weeks) == 0 {
		ctx.println("No weeks to show.")
		return nil
	}

	snap := ctx.Tracker.Snapshot()
	ctx.println(titleStyle.Render("Weeks of " + strconv.Itoa(year)))
	for i := len(weeks) - 1; i >= 0; i-- {
		wk := weeks[i]
		w, err := progress.CalendarWeek(snap, wk.Monday, today)
		if err != nil {
			return err
		}
		label := wk.Label
		if wk.Monday <= today && today <= wk.Sunday {
			label += " (current)"
		}
		ctx.printf("W%02d  %-24s %s %s\n", wk.Week, label, bar(w.Percent), formatPercent(w.Percent))
	}
	return nil
}
