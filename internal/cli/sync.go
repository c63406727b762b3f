package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/weighbit/internal/cloudsync"
	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/logger"
)

type SyncCmd struct {
	Run    SyncRunCmd    `cmd:"" help:"Replay queued changes and merge with the remote store." default:"1"`
	Status SyncStatusCmd `cmd:"" help:"Show sync configuration and queue state."`
	Watch  SyncWatchCmd  `cmd:"" help:"Stay running and sync whenever the remote becomes reachable."`
	Clear  SyncClearCmd  `cmd:"" help:"Discard queued changes that have not reached the remote."`
}

type SyncRunCmd struct{}

func (c *SyncRunCmd) Run(ctx *Context) error {
	if !ctx.Engine.Enabled() {
		ctx.println("Sync is not configured. Run 'weighbit login' and 'weighbit remote set' first.")
		return nil
	}
	report, err := ctx.Tracker.SyncNow(context.Background())
	if errors.Is(err, apperrors.ErrOffline) {
		ctx.printf("%s Remote unreachable, %d change(s) queued for later\n", warnStyle.Render("!"), ctx.Engine.Queue().Len())
		return nil
	}
	printReport(ctx, report)
	return err
}

func printReport(ctx *Context, r cloudsync.Report) {
	if r.Replay.Processed > 0 || r.Replay.Failed > 0 {
		ctx.printf("Replayed %d queued change(s), %d failed\n", r.Replay.Processed, r.Replay.Failed)
	}
	if r.ReplayErr != nil {
		ctx.printf("%s %v\n", warnStyle.Render("!"), r.ReplayErr)
	}
	if r.Migrated > 0 {
		ctx.printf("Uploaded %d local item(s) on first sync\n", r.Migrated)
	}
	if r.MigrationErr != nil {
		ctx.printf("%s first sync upload incomplete: %v\n", warnStyle.Render("!"), r.MigrationErr)
	}
	if r.SyncedAt.IsZero() {
		return
	}
	m := r.Merge
	ctx.printf("%s Synced %d habit(s), %d categories, %d check-in(s)", okStyle.Render("✓"), m.Habits, m.Categories, m.CheckIns)
	if kept := m.LocalOnlyHabits + m.LocalOnlyCategories + m.LocalOnlyCheckIns; kept > 0 {
		ctx.printf(" (%d local-only kept)", kept)
	}
	ctx.println()
}

type SyncStatusCmd struct{}

func (c *SyncStatusCmd) Run(ctx *Context) error {
	e := ctx.Engine
	user := e.UserID()
	if user == "" {
		user = mutedStyle.Render("(not logged in)")
	}
	remote := "not configured"
	if url := resolveRemoteURL(ctx.Config); url != "" {
		remote = maskURL(url)
	}
	state := warnStyle.Render("offline")
	if e.Online() {
		state = okStyle.Render("online")
	}

	ctx.printf("User:        %s\n", user)
	ctx.printf("Remote:      %s\n", remote)
	ctx.printf("Status:      %s\n", state)
	ctx.printf("Queued:      %d\n", e.Queue().Len())
	if last, ok := e.LastSync(); ok {
		ctx.printf("Last sync:   %s\n", last.Local().Format("2006-01-02 15:04:05"))
	} else {
		ctx.printf("Last sync:   never\n")
	}
	if e.Enabled() && e.NeedsSync(time.Now()) {
		ctx.println(warnStyle.Render("A sync is due."))
	}
	return nil
}

type SyncClearCmd struct{}

func (c *SyncClearCmd) Run(ctx *Context) error {
	q := ctx.Engine.Queue()
	n := q.Len()
	if n == 0 {
		ctx.println("Offline queue is empty.")
		return nil
	}
	ok, err := ctx.confirmed(fmt.Sprintf("Discard %d queued change(s)?", n), "They stay in local data but will not be sent to the remote.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Clear cancelled.")
		return nil
	}
	if err := q.Clear(); err != nil {
		return fmt.Errorf("failed to clear offline queue: %w", err)
	}
	logger.Info("Offline queue cleared", "discarded", n)
	ctx.printf("%s Discarded %d queued change(s)\n", okStyle.Render("✓"), n)
	return nil
}

type SyncWatchCmd struct{}

// Run keeps probing the remote. Every offline to online transition triggers a
// sync, and a periodic check syncs when the last sync is older than the
// configured interval.
func (c *SyncWatchCmd) Run(ctx *Context) error {
	if !ctx.Engine.Enabled() || ctx.Monitor == nil {
		return fmt.Errorf("%w: sync is not configured", apperrors.ErrRemoteUnavailable)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncOnce := func(runCtx context.Context) {
		report, err := ctx.Tracker.SyncNow(runCtx)
		if err != nil && !errors.Is(err, apperrors.ErrOffline) {
			logger.Warn("Sync failed", "error", err)
			ctx.printf("%s sync failed: %v\n", warnStyle.Render("!"), err)
			return
		}
		printReport(ctx, report)
	}

	ctx.printf("Watching %s, press Ctrl+C to stop\n", maskURL(resolveRemoteURL(ctx.Config)))
	if ctx.Engine.Online() {
		syncOnce(sigCtx)
	}

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error { return ctx.Monitor.Run(gctx) })
	g.Go(func() error { return ctx.Engine.Watch(gctx, syncOnce) })
	g.Go(func() error {
		interval := ctx.Config.SyncInterval
		if interval <= 0 {
			interval = constants.DefaultSyncInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if ctx.Engine.Online() && ctx.Engine.NeedsSync(time.Now()) {
					syncOnce(gctx)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
