// Package dot exports a computed family layout as a Graphviz graph.
//
// Persons become boxes and unions become small points, joined by partner
// and descent edges. Each generation is one rank. With [Options].Pinned,
// every person is fixed at its computed position so Graphviz draws the
// layout as-is instead of arranging it again, which makes the output useful
// for checking the layout engine against Graphviz's own placement.
//
// # Usage
//
//	res := layout.Compute(tree, focus, policy, cfg)
//	src := dot.ToDOT(tree, res, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// PDF and PNG go through SVG and need rsvg-convert on the PATH.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is needed for SVG.
package dot
