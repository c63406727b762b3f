package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/keyring"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(ctx *Context) error
	warning bool
}

var checks = []check{
	{name: "Local data readable", run: checkLoad},
	{name: "Data integrity", run: checkIntegrity},
	{name: "Timezone", run: checkTimezone},
	{name: "Backups present", run: checkBackups, warning: true},
	{name: "OS keyring", run: checkKeyring, warning: true},
	{name: "Remote reachable", run: checkRemote, warning: true},
	{name: "Offline queue", run: checkQueue, warning: true},
}

func (c *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	failed := false
	for _, chk := range checks {
		err := chk.run(ctx)
		switch {
		case err == nil:
			ctx.printf("%s %s: OK\n", okStyle.Render("✓"), chk.name)
		case chk.warning:
			ctx.printf("%s %s: WARNING\n   %v\n", warnStyle.Render("⚠"), chk.name, err)
		default:
			ctx.printf("❌ %s: FAIL\n   Error: %v\n", chk.name, err)
			failed = true
		}
	}

	ctx.println()
	if failed {
		ctx.println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkLoad(ctx *Context) error {
	return ctx.Tracker.LoadErr()
}

// checkIntegrity looks for data the mutations would never produce
func checkIntegrity(ctx *Context) error {
	s := ctx.Tracker.Snapshot()
	var problems []error

	habits := make(map[string]bool, len(s.Habits))
	for _, h := range s.Habits {
		if habits[h.ID] {
			problems = append(problems, fmt.Errorf("duplicate habit id %s", h.ID))
		}
		habits[h.ID] = true
		if h.Weight < constants.MinHabitWeight || h.Weight > constants.MaxHabitWeight {
			problems = append(problems, fmt.Errorf("habit %q has weight %d", h.Name, h.Weight))
		}
		if h.Target < 1 {
			problems = append(problems, fmt.Errorf("habit %q has target %d", h.Name, h.Target))
		}
	}

	seen := make(map[models.CheckInKey]bool, len(s.CheckIns))
	for _, ci := range s.CheckIns {
		if !utils.ValidateDay(ci.Date) {
			problems = append(problems, fmt.Errorf("check-in %s has invalid date %q", ci.ID, ci.Date))
		}
		if !habits[ci.HabitID] {
			problems = append(problems, fmt.Errorf("check-in %s references unknown habit %s", ci.ID, ci.HabitID))
		}
		if seen[ci.Key()] {
			problems = append(problems, fmt.Errorf("more than one check-in for habit %s on %s", ci.HabitID, ci.Date))
		}
		seen[ci.Key()] = true
	}
	return errors.Join(problems...)
}

func checkTimezone(ctx *Context) error {
	now, err := utils.NowInTimezone(ctx.Config.Timezone)
	if err != nil {
		return err
	}
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkBackups(ctx *Context) error {
	if ctx.Backups == nil {
		return errNoBackups
	}
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups yet, run 'weighbit backup'")
	}
	return nil
}

func checkKeyring(_ *Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkRemote(ctx *Context) error {
	if !ctx.Engine.Enabled() {
		return errors.New("sync not configured")
	}
	pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return ctx.Remote.Ping(pctx)
}

func checkQueue(ctx *Context) error {
	if n := ctx.Engine.Queue().Len(); n > 0 {
		return fmt.Errorf("%d change(s) waiting to sync", n)
	}
	return nil
}
