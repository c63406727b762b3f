package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/weighbit/internal/backup"
	"github.com/julianstephens/weighbit/internal/cloudsync"
	"github.com/julianstephens/weighbit/internal/config"
	"github.com/julianstephens/weighbit/internal/keyring"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/remote/postgres"
	"github.com/julianstephens/weighbit/internal/remote/redis"
	"github.com/julianstephens/weighbit/internal/storage"
	"github.com/julianstephens/weighbit/internal/tracker"
	"github.com/julianstephens/weighbit/internal/utils"
)

// Context is handed to every command's Run method
type Context struct {
	Config  config.Config
	Store   storage.Provider
	Tracker *tracker.Tracker
	Engine  *cloudsync.Engine
	Remote  cloudsync.Remote
	Monitor *cloudsync.Monitor
	Backups *backup.Manager
	Yes     bool
	Out     io.Writer

	// Confirm asks the user a yes/no question; replaced in tests
	Confirm func(title, description string) (bool, error)
}

// NewContext builds the context for cfg around a provider that is already
// initialized or loaded. The remote is connected only when both a remote URL
// and a user id are available; a remote that cannot be reached leaves the
// engine offline so writes are queued.
func NewContext(cfg config.Config, store storage.Provider) *Context {
	c := &Context{
		Config:  cfg,
		Store:   store,
		Out:     os.Stdout,
		Confirm: confirm,
	}

	if mgr, err := backup.ForProvider(storage.Backend(cfg.Backend), store); err == nil {
		c.Backups = mgr
	}

	userID := resolveUserID(cfg)
	remoteURL := resolveRemoteURL(cfg)

	var conn cloudsync.Connectivity = cloudsync.NewStaticConnectivity(false)
	if userID != "" && remoteURL != "" {
		remote, err := OpenRemote(remoteURL, cfg.RedisPrefix)
		if err != nil {
			logger.Warn("Remote store unavailable, working offline", "error", err)
		} else {
			c.Remote = remote
			c.Monitor = cloudsync.NewMonitor(remote.Ping, cfg.ProbeInterval)
			conn = c.Monitor
		}
	}

	c.Engine = cloudsync.NewEngine(cloudsync.Options{
		UserID:       userID,
		Remote:       c.Remote,
		Store:        store,
		Connectivity: conn,
		SyncInterval: cfg.SyncInterval,
	})
	if c.Monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		c.Monitor.Check(ctx)
		cancel()
	}

	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.Local
	}
	c.Tracker = tracker.Open(tracker.Options{
		Store:     store,
		Engine:    c.Engine,
		Backups:   c.Backups,
		UndoDepth: cfg.UndoDepth,
		Location:  loc,
	})
	if err := c.Tracker.LoadErr(); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Warning: "+err.Error()))
	}
	return c
}

// NewInitContext builds the minimal context used by init, before any storage exists
func NewInitContext(cfg config.Config, store storage.Provider) *Context {
	return &Context{
		Config:  cfg,
		Store:   store,
		Out:     os.Stdout,
		Confirm: confirm,
	}
}

// Close releases the remote connection and the local store
func (c *Context) Close() error {
	var errs []error
	if c.Remote != nil {
		errs = append(errs, c.Remote.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

func resolveUserID(cfg config.Config) string {
	if cfg.UserID != "" {
		return cfg.UserID
	}
	id, err := keyring.GetUserID()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "error", err)
		}
		return ""
	}
	return id
}

func resolveRemoteURL(cfg config.Config) string {
	if cfg.RemoteURL != "" {
		return cfg.RemoteURL
	}
	url, err := keyring.GetConnectionString()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "error", err)
		}
		return ""
	}
	return url
}

// OpenRemote connects to the remote store named by url: redis:// and rediss://
// select Redis, anything else is treated as a PostgreSQL connection string.
func OpenRemote(url, redisPrefix string) (cloudsync.Remote, error) {
	if redis.IsRedisURL(url) {
		s, err := redis.New(url, redisPrefix)
		if err != nil {
			return nil, err
		}
		if err := s.Init(); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}

	s := postgres.New(url)
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// confirmed returns true when --yes was given or the user agrees
func (c *Context) confirmed(title, description string) (bool, error) {
	if c.Yes {
		return true, nil
	}
	return c.Confirm(title, description)
}

// today is the current day in the configured timezone
func (c *Context) today() string {
	return c.Tracker.Today()
}
