package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
)

// layoutPrefix is the key prefix of every cached layout.
const layoutPrefix = "layout:"

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		treeRef string
		apiOnly bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached layouts",
		Long: `Clear cached layouts from the configured backend.

With --tree only the layouts of that tree are removed. With --api only
entries written by "kintree serve" are touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var keyer cache.Keyer
			if apiOnly {
				keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), apiScope)
			}
			runner, err := c.newRunner(ctx, false, keyer)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			ui := c.ui()
			if treeRef != "" {
				tree, err := c.loadTree(ctx, runner, treeRef)
				if err != nil {
					return err
				}
				n, err := runner.Invalidate(ctx, tree)
				if err != nil {
					return err
				}
				ui.success("Cleared %s of %s", plural(n, "cached layout"), treeRef)
				return nil
			}

			prefixes := []string{layoutPrefix, apiScope + layoutPrefix}
			if apiOnly {
				prefixes = prefixes[1:]
			}
			total := 0
			for _, prefix := range prefixes {
				n, err := cache.Invalidate(ctx, runner.Cache, prefix)
				if err != nil {
					return fmt.Errorf("clear %s: %w", prefix, err)
				}
				total += n
			}
			if total == 0 {
				ui.info("Cache is empty")
				return nil
			}
			ui.success("Cleared %s", plural(total, "cached layout"))
			if fc, ok := runner.Cache.(*cache.FileCache); ok {
				ui.detail("Directory: %s", fc.Dir())
			} else {
				ui.detail("Backend: %s", c.Config.Cache.Backend)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&treeRef, "tree", "", "only clear layouts of this tree")
	cmd.Flags().BoolVar(&apiOnly, "api", false, "only clear entries of the HTTP service")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where layouts are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case BackendNone:
				fmt.Fprintln(c.out, "caching disabled")
			case BackendRedis:
				fmt.Fprintln(c.out, redactURL(c.Config.Cache.RedisURL))
			default:
				dir, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(c.out, dir)
			}
			return nil
		},
	}
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
