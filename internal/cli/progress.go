package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/weighbit/internal/progress"
	"github.com/julianstephens/weighbit/internal/utils"
)

type ProgressCmd struct {
	Day    ProgressDayCmd    `cmd:"" help:"Weighted progress for a single day." default:"1"`
	Week   ProgressWeekCmd   `cmd:"" help:"Progress for a Monday to Sunday week."`
	Month  ProgressMonthCmd  `cmd:"" help:"Progress for a calendar month."`
	Window ProgressWindowCmd `cmd:"" help:"Progress for the N days ending at a date."`
}

type ProgressDayCmd struct {
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *ProgressDayCmd) Run(ctx *Context) error {
	day, err := resolveDay(ctx, c.Date)
	if err != nil {
		return err
	}
	d := progress.Weighted(ctx.Tracker.Snapshot(), day)
	ctx.printf("%s  %s %s  %d/%d complete\n", day, bar(d.Percent), formatPercent(d.Percent), d.Completed, d.Total)
	return nil
}

type ProgressWeekCmd struct {
	Date     string `arg:"" optional:"" help:"Any day in the week (default: today)."`
	Trailing bool   `help:"Use the 7 days ending at the date instead of the calendar week."`
}

func (c *ProgressWeekCmd) Run(ctx *Context) error {
	day, err := resolveDay(ctx, c.Date)
	if err != nil {
		return err
	}
	snap := ctx.Tracker.Snapshot()

	if c.Trailing {
		w, err := progress.Weekly(snap, day)
		if err != nil {
			return err
		}
		printWindow(ctx, "7 days ending "+day, w)
		return nil
	}

	monday, err := utils.MondayOf(day)
	if err != nil {
		return err
	}
	w, err := progress.CalendarWeek(snap, monday, ctx.today())
	if err != nil {
		return err
	}
	_, week, _ := utils.ISOWeek(monday)
	printWindow(ctx, fmt.Sprintf("Week %d (from %s)", week, monday), w)
	return nil
}

type ProgressMonthCmd struct {
	Month string `arg:"" optional:"" help:"Month in YYYY-MM format (default: current month)."`
}

func (c *ProgressMonthCmd) Run(ctx *Context) error {
	today := ctx.today()
	ref := c.Month
	if ref == "" {
		ref = today[:7]
	}
	t, err := time.Parse("2006-01", ref)
	if err != nil {
		return fmt.Errorf("invalid month format: %s (expected YYYY-MM)", ref)
	}

	w, err := progress.CalendarMonth(ctx.Tracker.Snapshot(), t.Year(), t.Month(), today)
	if err != nil {
		return err
	}
	printWindow(ctx, t.Format("January 2006"), w)
	return nil
}

type ProgressWindowCmd struct {
	Days int    `arg:"" help:"Number of days in the window."`
	End  string `help:"Last day of the window (default: today)."`
}

func (c *ProgressWindowCmd) Run(ctx *Context) error {
	end, err := resolveDay(ctx, c.End)
	if err != nil {
		return err
	}
	w, err := progress.WindowProgress(ctx.Tracker.Snapshot(), end, c.Days)
	if err != nil {
		return err
	}
	printWindow(ctx, fmt.Sprintf("%d days ending %s", c.Days, end), w)
	return nil
}

func resolveDay(ctx *Context, day string) (string, error) {
	if day == "" {
		return ctx.today(), nil
	}
	if !utils.ValidateDay(day) {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return day, nil
}

func printWindow(ctx *Context, title string, w progress.Window) {
	ctx.println(titleStyle.Render(title))
	for _, e := range w.Daily {
		switch {
		case e.IsFuture:
			ctx.printf("  %s  %s\n", e.Date, mutedStyle.Render("upcoming"))
		case !e.HasData:
			ctx.printf("  %s  %s %s\n", e.Date, bar(*e.Percent), mutedStyle.Render("no check-ins"))
		default:
			ctx.printf("  %s  %s %s\n", e.Date, bar(*e.Percent), formatPercent(*e.Percent))
		}
	}
	ctx.printf("\nAverage %s over %d of %d days with data\n", formatPercent(w.Percent), w.DaysWithData, w.TotalDays)
}
