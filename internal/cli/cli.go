// Package cli implements the kintree command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "kintree"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the TOML file given with --config. Empty means the
	// default location, which may be missing.
	ConfigPath string

	// Config is loaded before any command runs.
	Config Config

	// out receives command results and status lines.
	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Kintree lays out family trees around a focus person",
		Long: `Kintree computes pixel layouts of family trees: a focus person with a
configurable window of ancestors and descendants, partners in stable order,
and orthogonal parent-to-child connectors.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.ConfigPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if cfg.Hooks {
				observability.NewLogHooks(c.Logger).Register()
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/kintree/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool, keyer cache.Keyer) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = c.Config.Cache.TTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
	default:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newRegistry builds the tree stores: the file store, and the configured
// MongoDB collection when a URI is set. Without paths the file store is
// only added for a configured store directory, so bare paths cannot be
// read. The returned close function releases the database connection.
func (c *CLI) newRegistry(ctx context.Context, paths bool) (*store.Registry, func(), error) {
	var sources []store.Source
	closeFn := func() {}

	if paths || c.Config.Store.Dir != "" {
		sources = append(sources, store.NewFile(c.Config.Store.Dir))
	}
	if c.Config.Store.URI != "" {
		m, err := store.NewMongo(ctx, c.Config.Store.MongoOptions)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, m)
		closeFn = func() {
			if err := m.Close(context.Background()); err != nil {
				c.Logger.Warn("close mongo", "error", err)
			}
		}
	}
	return store.NewRegistry(sources...), closeFn, nil
}

// loadTree resolves a tree reference through the configured stores.
func (c *CLI) loadTree(ctx context.Context, runner *pipeline.Runner, ref string) (*family.Tree, error) {
	reg, closeFn, err := c.newRegistry(ctx, true)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return runner.Load(ctx, reg, ref)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kintree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/kintree/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// ErrorMessage formats an error for the terminal. Coded errors print
// their messages without code prefixes, followed by the cause.
func ErrorMessage(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + ErrorMessage(e.Cause)
	}
	return e.Message
}
