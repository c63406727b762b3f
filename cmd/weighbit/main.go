package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/weighbit/internal/cli"
	"github.com/julianstephens/weighbit/internal/config"
	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	DataDir  string `help:"Directory holding local data, backups and logs." type:"path"`
	Backend  string `help:"Local storage backend: sqlite, json or memory."`
	Timezone string `help:"IANA timezone used to decide what 'today' is."`
	Debug    bool   `help:"Log debug output to stderr."`
	Yes      bool   `short:"y" help:"Answer yes to confirmation prompts."`

	Init     cli.InitCmd     `cmd:"" help:"Initialize local storage."`
	Today    cli.TodayCmd    `cmd:"" help:"Show today's habits and weighted progress." default:"1"`
	Checkin  cli.CheckinCmd  `cmd:"" help:"Record a check-in for a habit."`
	Habit    cli.HabitCmd    `cmd:"" help:"Manage habits."`
	Category cli.CategoryCmd `cmd:"" help:"Manage categories."`
	Progress cli.ProgressCmd `cmd:"" help:"Show weighted progress over a day, week, month or window."`
	Weeks    cli.WeeksCmd    `cmd:"" help:"List the weeks of a year with their progress."`
	Stats    cli.StatsCmd    `cmd:"" help:"Show streaks and completion rates."`
	Undo     cli.UndoCmd     `cmd:"" help:"Undo the last destructive change."`
	Sync     cli.SyncCmd     `cmd:"" help:"Synchronize with the remote store."`
	Login    cli.LoginCmd    `cmd:"" help:"Set the account id used for sync."`
	Logout   cli.LogoutCmd   `cmd:"" help:"Forget the account id used for sync."`
	Remote   cli.RemoteCmd   `cmd:"" help:"Manage the remote store connection."`
	Backup   cli.BackupCmd   `cmd:"" help:"Manage local data backups."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Weighted habit tracker with offline-first sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := loadConfig()
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := storage.New(storage.Backend(cfg.Backend), cfg.DataDir, cfg.MaxBlobBytes)
	if err != nil {
		apperrors.Fatal(err)
	}

	if ctx.Command() == "init" {
		appCtx := cli.NewInitContext(cfg, store)
		appCtx.Yes = CLI.Yes
		err := ctx.Run(appCtx)
		store.Close()
		apperrors.Fatal(err)
		return
	}

	if err := store.Load(); err != nil {
		if !errors.Is(err, storage.ErrNotInitialized) {
			apperrors.Fatal(err)
		}
		logger.Info("Initializing local storage on first run", "path", store.GetPath())
		if err := store.Init(); err != nil {
			apperrors.Fatal(err)
		}
	}

	appCtx := cli.NewContext(cfg, store)
	appCtx.Yes = CLI.Yes
	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close resources", "error", cerr)
	}
	apperrors.Fatal(err)
}

// loadConfig reads the environment and applies command-line overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if CLI.DataDir != "" {
		if cfg.DataDir, err = config.ExpandPath(CLI.DataDir); err != nil {
			return cfg, err
		}
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}
