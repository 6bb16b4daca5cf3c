// Package cli implements recipectl, the operator tool for schema
// migrations, user accounts and API key issuance.
//
// Credentials are never issued over the HTTP API; recipectl talks to
// PostgreSQL directly and, when REDIS_URL is set, drops cached principals
// of revoked keys.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/cache"
	"github.com/recipebox/recipebox/internal/config"
	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
	"github.com/recipebox/recipebox/migrations"
)

// Store is the persistence recipectl needs.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// Migrator applies and reverts schema migrations.
type Migrator interface {
	Migrate(ctx context.Context, fsys fs.FS) (int, error)
	MigrateDown(ctx context.Context, fsys fs.FS, steps int) (int, error)
	SchemaVersion(ctx context.Context) (int, error)
}

// KeyInvalidator drops cached principals for a key.
type KeyInvalidator interface {
	InvalidateAPIKey(ctx context.Context, keyID string) error
}

// Backend bundles the connections a command runs against.
// Keys is nil when no cache is configured.
type Backend struct {
	Store    Store
	Migrator Migrator
	Keys     KeyInvalidator
	Close    func()
}

// Connector opens a Backend.
type Connector func(ctx context.Context, logger *slog.Logger) (*Backend, error)

// CLI holds state shared by all recipectl commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer

	// Connect opens the backend. It defaults to PostgreSQL and Redis
	// configured from the environment.
	Connect Connector
	// Params are the Argon2id settings for new passwords and keys.
	Params auth.Params
	// Migrations is the migration source.
	Migrations fs.FS
}

// New creates a CLI logging to errOut and printing results to out.
func New(out, errOut io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(errOut, level),
		Out:        out,
		Connect:    ConnectFromEnv,
		Params:     auth.DefaultParams,
		Migrations: migrations.FS,
	}
}

// SetLogLevel changes the log level for all commands.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// slogger returns a slog.Logger writing through the CLI logger.
func (c *CLI) slogger() *slog.Logger {
	return slog.New(c.Logger)
}

// RootCommand builds the recipectl command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Operate a recipebox deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.userCommand())
	root.AddCommand(c.keyCommand())

	return root
}

// withBackend opens the backend, runs fn and closes it.
func (c *CLI) withBackend(ctx context.Context, fn func(*Backend) error) error {
	backend, err := c.Connect(ctx, c.slogger())
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(backend)
}

// ConnectFromEnv opens PostgreSQL from DATABASE_URL and, when REDIS_URL
// is set, Redis.
func ConnectFromEnv(ctx context.Context, logger *slog.Logger) (*Backend, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return nil, err
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database %s: %w", config.RedactURL(cfg.DatabaseURL), err)
	}
	logger.Debug("connected to database", "database_url", config.RedactURL(cfg.DatabaseURL))

	backend := &Backend{Store: repo, Migrator: repo, Close: repo.Close}
	if cfg.RedisURL == "" {
		return backend, nil
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("connect redis %s: %w", config.RedactURL(cfg.RedisURL), err)
	}
	logger.Debug("connected to Redis", "redis_url", config.RedactURL(cfg.RedisURL))

	backend.Keys = cacheClient
	backend.Close = func() {
		_ = cacheClient.Close()
		repo.Close()
	}
	return backend, nil
}

// ErrUsage marks invalid flag values.
var ErrUsage = errors.New("invalid usage")
