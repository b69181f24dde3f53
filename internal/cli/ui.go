package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleFailed   = lipgloss.NewStyle().Foreground(colorRed)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// printer writes styled status lines. Styles degrade to plain text when w
// is not a terminal.
type printer struct {
	w io.Writer
}

func (c *CLI) ui() printer { return printer{w: c.out} }

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

// =============================================================================
// Status Output
// =============================================================================

func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line.
func (p printer) detail(format string, args ...any) {
	p.line("  " + styleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints an output file line.
func (p printer) file(path string) {
	p.line("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func (p printer) keyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	p.line(keyStyle.Render(key) + " " + styleValue.Render(value))
}

func (p printer) nextStep(description, cmd string) {
	p.line(styleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func (p printer) newline() { fmt.Fprintln(p.w) }

// =============================================================================
// Layout Summaries
// =============================================================================

// stats prints layout counts on a single line.
func (p printer) stats(s pipeline.Stats, cached bool) {
	parts := []string{
		plural(s.Persons, "person"),
		plural(s.Unions, "union"),
		plural(s.Connections, "connection"),
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += styleDim.Render(" · ")
		}
		line += styleDim.Render(part)
	}
	p.line(line + styleDim.Render(" · ") + status)
}

// diagnostics prints the layout's diagnostics as a table, followed by any
// validation errors and generation warnings.
func (p printer) diagnostics(res layout.Result) {
	d := res.Diagnostics

	validation := styleCached.Render("passed")
	if !d.ValidationPassed {
		validation = styleFailed.Render(fmt.Sprintf("failed (%d)", len(d.Errors)))
	}
	converged := "yes"
	if !d.Converged {
		converged = "no"
	}
	if d.PhaseBSkipped {
		converged += ", phase B skipped"
	}

	rows := [][]string{
		{"Focus", res.FocusID},
		{"Generations", fmt.Sprintf("%d to %d", res.MinGen, res.MaxGen)},
		{"Window", fmt.Sprintf("%d up, %d down", d.AncestorDepth, d.DescendantDepth)},
		{"Size", fmt.Sprintf("%.0f × %.0f", res.Bounds.Width(), res.Bounds.Height())},
		{"Iterations", strconv.Itoa(d.Iterations) + " (converged: " + converged + ")"},
		{"Crossings", strconv.Itoa(d.Crossings)},
		{"Lanes skipped", strconv.Itoa(d.LanesSkipped)},
		{"Validation", validation},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("Diagnostic", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			if col == 0 {
				return styleCell.Foreground(colorGray)
			}
			return styleCell
		})
	p.line(t.Render())

	for _, e := range d.Errors {
		p.failure("%s", e)
	}
	for _, w := range d.GenerationWarnings {
		p.warning("%s", w)
	}
}

// snapshots prints one table row per recorded stage with its summary
// counters.
func (p printer) snapshots(snaps []layout.Snapshot) {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{s.Stage, summarize(s.Summary)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("Stage", "Summary").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			if col == 0 {
				return styleCell.Foreground(colorCyan)
			}
			return styleCell
		})
	p.line(t.Render())
}

// =============================================================================
// Utilities
// =============================================================================

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// summarize renders counters as "k=v" pairs in key order.
func summarize(m map[string]int) string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Itoa(m[k])
	}
	return strings.Join(parts, " ")
}
