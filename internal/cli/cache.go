package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftlab/weft/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			switch s := store.(type) {
			case *cache.FileStore:
				if _, err := os.Stat(s.Dir()); os.IsNotExist(err) {
					printInfo("Cache is empty")
					return nil
				}
				if err := s.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Cleared snapshot cache")
				printDetail("Directory: %s", s.Dir())
			case *cache.RedisStore:
				if err := s.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Cleared snapshot cache")
			case *cache.NullStore:
				printInfo("Caching is disabled")
			default:
				printWarning("This backend does not support clearing")
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != "" && c.Config.Cache.Backend != BackendFile {
				printInfo("Configured backend is %q; no local directory", c.Config.Cache.Backend)
				return nil
			}
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
