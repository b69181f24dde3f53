package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// debugDocument is the file written by "kintree debug".
type debugDocument struct {
	Layout    layout.Result     `json:"layout"`
	Snapshots []layout.Snapshot `json:"snapshots"`
}

// debugCommand creates the debug command, which records the state of the
// layout after every stage.
func (c *CLI) debugCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "debug <tree>",
		Short: "Record the layout after every stage",
		Long: `Record the layout after every stage: selection, union model, generations,
measurement, placement, solver, routing and emit.

The snapshots are written as JSON next to the final layout, and a summary
of each stage is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDebug(cmd.Context(), args[0], flags.options(cmd, c.Config), flags.noCache, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <tree>.<focus>.debug.json)")

	return cmd
}

func (c *CLI) runDebug(ctx context.Context, ref string, opts pipeline.Options, noCache bool, output string) error {
	runner, err := c.newRunner(ctx, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	tree, err := c.loadTree(ctx, runner, ref)
	if err != nil {
		return err
	}
	if opts.Focus, err = c.resolveFocus(tree, opts.Focus); err != nil {
		return err
	}

	spinner := newSpinner(ctx, os.Stderr, "Recording layout stages...")
	spinner.Start()
	res, snaps, err := runner.Debug(ctx, tree, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	data, err := json.MarshalIndent(debugDocument{Layout: res, Snapshots: snaps}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	if output == "" {
		output = outputBase(ref, opts.Focus) + ".debug.json"
	}
	if err := writeFile(output, data); err != nil {
		return err
	}

	ui := c.ui()
	ui.success("Recorded %s", plural(len(snaps), "stage"))
	ui.file(output)
	ui.newline()
	ui.snapshots(snaps)
	ui.diagnostics(res)
	return nil
}
