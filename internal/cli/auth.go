package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/weighbit/internal/keyring"
)

type LoginCmd struct {
	UserID string `arg:"" name:"user-id" help:"Account id used to scope remote data."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	id := strings.TrimSpace(c.UserID)
	if id == "" {
		return errors.New("user id cannot be empty")
	}
	if err := keyring.SetUserID(id); err != nil {
		return err
	}
	ctx.Engine.SetUserID(id)
	ctx.printf("%s Logged in as %s\n", okStyle.Render("✓"), id)
	if resolveRemoteURL(ctx.Config) == "" {
		ctx.println(mutedStyle.Render("  No remote configured yet. Use 'weighbit remote set' to enable sync."))
	} else {
		ctx.println(mutedStyle.Render("  Run 'weighbit sync' to upload local data and merge with the remote."))
	}
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	err := keyring.DeleteUserID()
	if errors.Is(err, keyring.ErrNotFound) {
		ctx.println("Not logged in.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	ctx.Engine.SetUserID("")
	ctx.printf("%s Logged out. Local data is kept.\n", okStyle.Render("✓"))
	return nil
}
