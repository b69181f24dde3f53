package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

// layoutFlags are the flags shared by the commands that compute a layout.
// Policy flags override the config file only when given.
type layoutFlags struct {
	focus      string
	policy     layout.Policy
	expanded   bool
	phaseAOnly bool
	noCache    bool
	refresh    bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	def := layout.DefaultPolicy()
	fs := cmd.Flags()
	fs.StringVar(&f.focus, "focus", "", "focus person ID (interactive picker on a terminal if omitted)")
	fs.IntVar(&f.policy.AncestorDepth, "ancestors", def.AncestorDepth, "generations above the focus")
	fs.IntVar(&f.policy.DescendantDepth, "descendants", def.DescendantDepth, "generations below the focus")
	fs.BoolVar(&f.policy.IncludeAuntsUncles, "aunts", def.IncludeAuntsUncles, "include aunts and uncles")
	fs.BoolVar(&f.policy.IncludeCousins, "cousins", def.IncludeCousins, "include first cousins")
	fs.BoolVar(&f.policy.IncludeSpouseAncestors, "spouse-ancestors", def.IncludeSpouseAncestors, "include the ancestors of descendants' partners")
	fs.BoolVar(&f.expanded, "expanded", false, "lay out every known ancestor chain")
	fs.BoolVar(&f.phaseAOnly, "phase-a-only", false, "stop the solver after its first phase")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
}

// options merges the flags over the loaded config.
func (f *layoutFlags) options(cmd *cobra.Command, cfg Config) pipeline.Options {
	p := cfg.Policy
	fs := cmd.Flags()
	if fs.Changed("ancestors") {
		p.AncestorDepth = f.policy.AncestorDepth
	}
	if fs.Changed("descendants") {
		p.DescendantDepth = f.policy.DescendantDepth
	}
	if fs.Changed("aunts") {
		p.IncludeAuntsUncles = f.policy.IncludeAuntsUncles
	}
	if fs.Changed("cousins") {
		p.IncludeCousins = f.policy.IncludeCousins
	}
	if fs.Changed("spouse-ancestors") {
		p.IncludeSpouseAncestors = f.policy.IncludeSpouseAncestors
	}
	return pipeline.Options{
		Focus:      f.focus,
		Policy:     p,
		Config:     cfg.Layout,
		Expanded:   f.expanded,
		PhaseAOnly: f.phaseAOnly,
		Refresh:    f.refresh,
	}
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout <tree>",
		Short: "Compute the layout of a family tree around a focus person",
		Long: `Compute the layout of a family tree around a focus person.

The tree is a JSON file path, a name in the configured store directory, or
"mongo:<name>" for a tree in the configured MongoDB collection. The result
(positions, connectors, diagnostics) is written as JSON.

Results are cached, keyed by tree content and options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], flags.options(cmd, c.Config), flags.noCache, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <tree>.<focus>.layout.json)")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, ref string, opts pipeline.Options, noCache bool, output string) error {
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

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Laying out %d persons around %s...", len(tree.Persons), opts.Focus))
	spinner.Start()
	opts.Formats = []string{pipeline.FormatJSON}
	result, err := runner.Execute(ctx, tree, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if output == "-" {
		_, err := c.out.Write(result.Artifacts[pipeline.FormatJSON])
		return err
	}
	if output == "" {
		output = outputBase(ref, opts.Focus) + ".layout.json"
	}
	if err := writeFile(output, result.Artifacts[pipeline.FormatJSON]); err != nil {
		return err
	}

	ui := c.ui()
	ui.success("Layout complete")
	ui.file(output)
	ui.stats(result.Stats, result.CacheInfo.LayoutHit)
	ui.newline()
	ui.diagnostics(result.Layout)
	ui.newline()
	ui.nextStep("Render", fmt.Sprintf("%s dot %s --focus %s", appName, ref, opts.Focus))
	return nil
}

// resolveFocus returns focus, or asks for one on an interactive terminal.
func (c *CLI) resolveFocus(tree *family.Tree, focus string) (string, error) {
	if focus != "" {
		return focus, nil
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stderr) {
		return "", errors.New(errors.ErrCodeInvalidInput, "--focus is required when not running on a terminal")
	}
	return pickFocus(tree, os.Stdin, os.Stderr)
}

// outputBase derives an output path stem from a tree reference and focus:
// "trees/smith.json" with focus "p1" gives "smith.p1".
func outputBase(ref, focus string) string {
	_, name := store.ParseRef(ref)
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		name = "tree"
	}
	return name + "." + focus
}

// writeFile writes data, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
