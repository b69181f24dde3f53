package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/server"
)

// apiScope prefixes the cache keys of the HTTP service so they can be
// cleared separately from CLI runs sharing the same backend.
const apiScope = "api:"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Requests carry the tree inline, or name one with "treeRef" when a store
directory or MongoDB collection is configured. Arbitrary file paths are
never read on behalf of a request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, cache.NewScopedKeyer(cache.NewDefaultKeyer(), apiScope))
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	stores, closeFn, err := c.newRegistry(ctx, false)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := server.New(runner, server.Options{
		Addr:    c.Config.Server.Addr,
		Timeout: c.Config.Server.Timeout,
		Logger:  c.Logger,
		Stores:  stores,
	})
	return srv.ListenAndServe(ctx)
}
