package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// storeCommand creates the tree store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored family trees",
		Long: `Manage family trees in the configured store directory ([store] dir) and
MongoDB collection ([store] mongo_uri).`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, closeFn, err := c.newRegistry(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			ui := c.ui()
			found := 0
			for _, kind := range []string{store.KindFile, store.KindMongo} {
				src, ok := reg.Source(kind)
				if !ok {
					continue
				}
				names, err := src.List(ctx)
				if err != nil {
					return err
				}
				for _, name := range names {
					ui.keyValue(kind, refFor(kind, name))
				}
				found += len(names)
			}
			if found == 0 {
				ui.info("No stored trees")
			}
			return nil
		},
	}
}

func (c *CLI) storePutCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "put <name> <tree.json>",
		Short: "Validate a tree file and store it under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, path := args[0], args[1]

			tree, err := family.ReadTreeFile(path)
			if err != nil {
				return err
			}
			if err := tree.Validate(); err != nil {
				return err
			}

			reg, closeFn, err := c.newRegistry(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			src, err := c.targetStore(reg, target)
			if err != nil {
				return err
			}
			if err := src.Save(ctx, name, tree); err != nil {
				return err
			}

			ui := c.ui()
			ui.success("Stored %s (%s)", refFor(src.Kind(), name), plural(len(tree.Persons), "person"))
			ui.nextStep("Lay out", fmt.Sprintf("%s layout %s", appName, refFor(src.Kind(), name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "target store: file or mongo (default: mongo when configured)")

	return cmd
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <tree>",
		Short: "Print or export a stored tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, closeFn, err := c.newRegistry(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			tree, _, _, err := reg.Open(ctx, args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := family.WriteTree(&buf, tree); err != nil {
				return err
			}
			if output == "" {
				_, err := c.out.Write(buf.Bytes())
				return err
			}
			if err := writeFile(output, buf.Bytes()); err != nil {
				return err
			}
			c.ui().file(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// targetStore picks the store "store put" writes to.
func (c *CLI) targetStore(reg *store.Registry, kind string) (store.Source, error) {
	if kind == "" {
		kind = store.KindFile
		if _, ok := reg.Source(store.KindMongo); ok {
			kind = store.KindMongo
		}
	}
	src, ok := reg.Source(kind)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"no %s store configured (set [store] dir or mongo_uri in %s)", kind, c.configLocation())
	}
	return src, nil
}

func (c *CLI) configLocation() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	if p, err := configPath(); err == nil {
		return p
	}
	return "the config file"
}

// refFor is the reference that names a stored tree on the command line.
func refFor(kind, name string) string {
	if kind == store.KindMongo {
		return store.KindMongo + ":" + name
	}
	return name
}
