package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/storage"
	"github.com/julianstephens/weighbit/internal/utils"
)

// Config is the process configuration read from the environment
type Config struct {
	DataDir       string        `env:"WEIGHBIT_DATA_DIR" envDefault:"~/.config/weighbit"`
	Backend       string        `env:"WEIGHBIT_BACKEND" envDefault:"sqlite"`
	RemoteURL     string        `env:"WEIGHBIT_REMOTE_URL"`
	RedisPrefix   string        `env:"WEIGHBIT_REDIS_PREFIX" envDefault:"weighbit"`
	UserID        string        `env:"WEIGHBIT_USER_ID"`
	Timezone      string        `env:"WEIGHBIT_TIMEZONE" envDefault:"Local"`
	Debug         bool          `env:"WEIGHBIT_DEBUG" envDefault:"false"`
	MaxBlobBytes  int           `env:"WEIGHBIT_MAX_BLOB_BYTES" envDefault:"5242880"`
	SyncInterval  time.Duration `env:"WEIGHBIT_SYNC_INTERVAL" envDefault:"5m"`
	ProbeInterval time.Duration `env:"WEIGHBIT_PROBE_INTERVAL" envDefault:"30s"`
	UndoDepth     int           `env:"WEIGHBIT_UNDO_DEPTH" envDefault:"10"`
}

// Load reads the optional .env files (defaults to ./.env) and then the
// environment. Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Cannot load .env file, using environment variables", "error", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	dir, err := ExpandPath(cfg.DataDir)
	if err != nil {
		return Config{}, err
	}
	cfg.DataDir = dir

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env cannot type-check
func (c Config) Validate() error {
	if !storage.Backend(c.Backend).Valid() {
		return fmt.Errorf("invalid backend %q: expected sqlite, json or memory", c.Backend)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.MaxBlobBytes <= 0 {
		return fmt.Errorf("max blob bytes must be positive, got %d", c.MaxBlobBytes)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", c.ProbeInterval)
	}
	if c.UndoDepth < 0 {
		return fmt.Errorf("undo depth cannot be negative, got %d", c.UndoDepth)
	}
	return nil
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		DataDir:       constants.DefaultDataDir,
		Backend:       string(storage.BackendSQLite),
		RedisPrefix:   constants.AppName,
		Timezone:      "Local",
		MaxBlobBytes:  constants.DefaultMaxBlobBytes,
		SyncInterval:  constants.DefaultSyncInterval,
		ProbeInterval: constants.DefaultProbeInterval,
		UndoDepth:     constants.DefaultUndoDepth,
	}
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
