package cli

import (
	"fmt"
	"os"

	"github.com/julianstephens/weighbit/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Delete existing local data before initializing."`
}

func (c *InitCmd) Run(ctx *Context) error {
	path := ctx.Store.GetPath()
	if c.Force && storage.Backend(ctx.Config.Backend) != storage.BackendMemory {
		if _, err := os.Stat(path); err == nil {
			ok, err := ctx.confirmed("Delete existing data?", "All local habits and check-ins at "+path+" will be removed.")
			if err != nil {
				return err
			}
			if !ok {
				ctx.println("Init cancelled.")
				return nil
			}
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing storage: %w", err)
			}
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to delete existing storage: %w", err)
			}
			for _, suffix := range []string{"-wal", "-shm"} {
				_ = os.Remove(path + suffix)
			}
			ctx.printf("Deleted existing data at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing storage: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.printf("%s Initialized weighbit storage at: %s\n", okStyle.Render("✓"), path)
	return nil
}
