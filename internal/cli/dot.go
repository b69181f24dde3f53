package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/pipeline"
)

// dotCommand creates the dot command, which renders the union graph of a
// layout through Graphviz.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		flags    layoutFlags
		output   string
		formats  []string
		detailed bool
		pinned   bool
	)

	cmd := &cobra.Command{
		Use:   "dot <tree>",
		Short: "Render the layout's union graph as DOT, SVG, PNG or PDF",
		Long: `Render the layout's union graph with Graphviz.

Persons are nodes grouped by generation; unions join partners and point to
their children. With --pinned, nodes are fixed at the computed layout
positions instead of being placed by Graphviz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			opts := flags.options(cmd, c.Config)
			opts.Formats = formats
			opts.Detailed = detailed
			opts.Pinned = pinned
			return c.runDOT(cmd.Context(), args[0], opts, flags.noCache, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (default: <tree>.<focus>)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{pipeline.FormatSVG}, "output formats: dot, svg, png, pdf, json")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add generation and birth date to labels")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "pin nodes to layout positions")

	return cmd
}

func (c *CLI) runDOT(ctx context.Context, ref string, opts pipeline.Options, noCache bool, output string) error {
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

	spinner := newSpinner(ctx, os.Stderr, "Rendering union graph...")
	spinner.Start()
	result, err := runner.Execute(ctx, tree, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths := outputPaths(output, outputBase(ref, opts.Focus), opts.Formats)

	ui := c.ui()
	ui.success("Rendered %s", plural(len(opts.Formats), "file"))
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
		ui.file(paths[format])
	}
	ui.stats(result.Stats, result.CacheInfo.LayoutHit)
	return nil
}

// outputPaths maps each format to a file. A single format is written to
// output as given; several use output as the base path.
func outputPaths(output, defaultBase string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = defaultBase
	}
	for _, f := range formats {
		paths[f] = base + "." + artifactExt(f)
	}
	return paths
}
