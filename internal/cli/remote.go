package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/weighbit/internal/keyring"
	"github.com/julianstephens/weighbit/internal/remote/postgres"
	"github.com/julianstephens/weighbit/internal/remote/redis"
)

type RemoteCmd struct {
	Set   RemoteSetCmd   `cmd:"" help:"Store the remote connection string in the OS keyring."`
	Show  RemoteShowCmd  `cmd:"" help:"Show the configured remote." default:"1"`
	Clear RemoteClearCmd `cmd:"" help:"Remove the stored remote connection string."`
}

type RemoteSetCmd struct {
	URL string `arg:"" name:"url" help:"PostgreSQL connection string or redis:// URL."`
}

func (c *RemoteSetCmd) Run(ctx *Context) error {
	switch {
	case redis.IsRedisURL(c.URL):
		if _, err := redis.New(c.URL, ctx.Config.RedisPrefix); err != nil {
			return fmt.Errorf("invalid connection string: %w", err)
		}
	default:
		if err := postgres.ValidateConnString(c.URL); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.println(warnStyle.Render("Warning: connection string contains embedded credentials."))
			ctx.println("  It will be stored as-is in the encrypted OS keyring.")
			ctx.println("  To keep passwords separate, use .pgpass or PGPASSWORD instead.")
		}
	}

	if err := keyring.SetConnectionString(c.URL); err != nil {
		return err
	}
	ctx.printf("%s Remote stored in OS keyring: %s\n", okStyle.Render("✓"), maskURL(c.URL))
	return nil
}

type RemoteShowCmd struct{}

func (c *RemoteShowCmd) Run(ctx *Context) error {
	if ctx.Config.RemoteURL != "" {
		ctx.printf("%s %s\n", maskURL(ctx.Config.RemoteURL), mutedStyle.Render("(from environment)"))
		return nil
	}
	connStr, err := keyring.GetConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		ctx.println("No remote configured. Use 'weighbit remote set' to add one.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("%s %s\n", maskURL(connStr), mutedStyle.Render("(from keyring)"))
	return nil
}

type RemoteClearCmd struct{}

func (c *RemoteClearCmd) Run(ctx *Context) error {
	err := keyring.DeleteConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		ctx.println("No remote configured.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("%s Remote removed from OS keyring\n", okStyle.Render("✓"))
	return nil
}

// maskURL hides the password of a URL or key/value connection string
func maskURL(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil || u.User == nil {
			return connStr
		}
		if _, ok := u.User.Password(); !ok {
			return connStr
		}
		return u.Scheme + "://" + u.User.Username() + ":****@" + connStr[strings.LastIndex(connStr, "@")+1:]
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
