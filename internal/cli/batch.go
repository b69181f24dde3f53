package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// batchCommand creates the batch command, which lays out one tree around
// several focus persons concurrently.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		flags   layoutFlags
		focuses []string
		all     bool
		outDir  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "batch <tree>",
		Short: "Compute layouts for several focus persons",
		Long: `Compute layouts for several focus persons of one tree concurrently.

Each focus person gets <output-dir>/<tree>.<focus>.<format>. With --all every
person in the tree is laid out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			opts := flags.options(cmd, c.Config)
			opts.Formats = formats
			return c.runBatch(cmd.Context(), args[0], focuses, all, opts, flags.noCache, outDir)
		},
	}

	flags.register(cmd)
	// Batch takes its focus list from --focus as a slice.
	cmd.Flags().Lookup("focus").Hidden = true
	cmd.Flags().StringSliceVarP(&focuses, "focuses", "F", nil, "focus person IDs (comma-separated)")
	cmd.Flags().BoolVar(&all, "all", false, "lay out every person in the tree")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "output directory")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{pipeline.FormatJSON}, "output formats: json, dot, svg, png, pdf")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, ref string, focuses []string, all bool, opts pipeline.Options, noCache bool, outDir string) error {
	runner, err := c.newRunner(ctx, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	tree, err := c.loadTree(ctx, runner, ref)
	if err != nil {
		return err
	}
	if all {
		focuses = tree.PersonIDs()
	}
	if opts.Focus != "" {
		focuses = append(focuses, opts.Focus)
	}
	if len(focuses) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "give focus persons with --focuses or --all")
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Laying out %d views...", len(focuses)))
	spinner.Start()
	results, err := runner.Batch(ctx, tree, focuses, opts)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.SetMessage(fmt.Sprintf("Writing %s...", plural(len(results)*len(opts.Formats), "file")))

	var written []string
	for i, res := range results {
		base := filepath.Join(outDir, outputBase(ref, focuses[i]))
		for _, format := range opts.Formats {
			path := base + "." + artifactExt(format)
			if err := writeFile(path, res.Artifacts[format]); err != nil {
				spinner.StopWithError("Writing failed")
				return err
			}
			written = append(written, path)
		}
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Laid out %d views", len(results)), "tree", ref)

	ui := c.ui()
	for _, path := range written {
		ui.file(path)
	}
	cached, failed := 0, 0
	for i, res := range results {
		if res.CacheInfo.LayoutHit {
			cached++
		}
		if !res.Layout.Diagnostics.ValidationPassed {
			failed++
			ui.warning("%s: %d validation errors", focuses[i], len(res.Layout.Diagnostics.Errors))
		}
	}
	ui.success("%s laid out (%d cached)", plural(len(results), "view"), cached)
	if failed > 0 {
		ui.warning("%d of %d layouts failed validation", failed, len(results))
	}
	return nil
}

// artifactExt is the file extension for an output format.
func artifactExt(format string) string {
	if format == pipeline.FormatJSON {
		return "layout.json"
	}
	return format
}
