package dot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/layout/config"
)

// pointsPerInch converts layout pixels to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the generation and birth date to person labels.
	Detailed bool
	// Pinned fixes persons at their computed positions and switches the
	// engine to neato.
	Pinned bool
	// CardWidth sizes pinned person boxes. Zero means the default layout
	// config's width.
	CardWidth float64
}

// ToDOT converts a layout result to Graphviz DOT source. The tree supplies
// person names; persons missing from it are labeled by ID.
func ToDOT(tree *family.Tree, res layout.Result, opts Options) string {
	cw := opts.CardWidth
	if cw <= 0 {
		cw = config.Default().CardWidth
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=false;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.6;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for gen := res.MinGen; gen <= res.MaxGen; gen++ {
		var ids []string
		for _, u := range res.Unions {
			if u.Generation == gen {
				ids = append(ids, u.PartnerA)
				if u.PartnerB != "" {
					ids = append(ids, u.PartnerB)
				}
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "  subgraph \"gen%d\" {\n", gen)
		if !opts.Pinned {
			buf.WriteString("    rank=same;\n")
		}
		seen := make(map[string]bool)
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			attrs := []string{fmt.Sprintf("label=%q", label(tree, res, id, opts.Detailed))}
			if id == res.FocusID {
				attrs = append(attrs, "fillcolor=lightyellow", "penwidth=2")
			}
			if p, ok := res.Positions[id]; ok && opts.Pinned {
				attrs = append(attrs, pin(p.X+cw/2, p.Y), "fixedsize=true",
					fmt.Sprintf("width=%.2f", cw/pointsPerInch))
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", id, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, u := range res.Unions {
		attrs := []string{"shape=point", "width=0.08"}
		if u.Kind != "primary" {
			attrs = append(attrs, "color=grey40")
		}
		if x, y, ok := unionPoint(res, u, cw); ok && opts.Pinned {
			attrs = append(attrs, pin(x, y))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", u.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, u := range res.Unions {
		for _, p := range []string{u.PartnerA, u.PartnerB} {
			if p != "" {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", p, u.ID)
			}
		}
		for _, c := range u.Children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", u.ID, c)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(tree *family.Tree, res layout.Result, id string, detailed bool) string {
	name := id
	var birth string
	if tree != nil {
		if p, ok := tree.Person(id); ok {
			name = p.Label()
			birth = p.BirthDate
		}
	}
	if !detailed {
		return name
	}
	parts := []string{name, fmt.Sprintf("gen: %d", res.Generations[id])}
	if birth != "" {
		parts = append(parts, "born: "+birth)
	}
	return strings.Join(parts, "\n")
}

// unionPoint sits between a couple's cards, or a little below a single
// parent's card.
func unionPoint(res layout.Result, u layout.Union, cw float64) (x, y float64, ok bool) {
	a, okA := res.Positions[u.PartnerA]
	if !okA {
		return 0, 0, false
	}
	if b, okB := res.Positions[u.PartnerB]; okB {
		return (a.X + b.X + cw) / 2, a.Y, true
	}
	return a.X + cw/2, a.Y + cw/4, true
}

// pin positions a node in points, flipping y because Graphviz grows upward.
func pin(x, y float64) string {
	return fmt.Sprintf("pos=\"%.2f,%.2f!\"", x/pointsPerInch, -y/pointsPerInch)
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPDF renders DOT source to PDF via SVG.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return rsvgConvert(svg, "pdf")
}

// RenderPNG renders DOT source to PNG via SVG at the given scale.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
