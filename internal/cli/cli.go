// Package cli implements the weft command-line interface.
//
// This package provides commands for inspecting compiled composition-graph
// snapshots, verifying their byte stability, and managing the snapshot cache.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - inspect: Decode a snapshot and print part/export/contract statistics
//   - verify: Decode a snapshot, re-encode it, and compare the bytes
//   - cache: Manage the local snapshot cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/weftlab/weft/pkg/buildinfo"
	"github.com/weftlab/weft/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "weft"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the config file
// found in the standard locations (if any).
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: LoadDefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Weft inspects and caches compiled composition graphs",
		Long:         `Weft is a CLI tool for working with binary snapshots of compiled composition graphs: decoding them, checking their integrity, and managing the snapshot cache.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// newStore builds the snapshot store the config selects. noCache forces the
// null store regardless of configuration.
func (c *CLI) newStore(ctx context.Context, noCache bool) (cache.Store, error) {
	if noCache {
		return cache.NewNullStore(), nil
	}
	switch c.Config.Cache.Backend {
	case BackendNone:
		return cache.NewNullStore(), nil
	case BackendRedis:
		return cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
			Prefix:   appName + ":",
		})
	case BackendMongo:
		return cache.NewMongoStore(ctx, cache.MongoConfig{
			URI:        c.Config.Mongo.URI,
			Database:   c.Config.Mongo.Database,
			Collection: c.Config.Mongo.Collection,
		})
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullStore(), nil
		}
		return cache.NewFileStore(dir)
	}
}

// cacheDir returns the configured cache directory, falling back to the XDG
// standard (~/.cache/weft/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
