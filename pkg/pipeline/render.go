package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/layout/dot"
)

// Render generates output artifacts in the requested formats. JSON is the
// layout result itself; the other formats are drawn from its union graph.
func Render(tree *family.Tree, res layout.Result, opts Options) (map[string][]byte, error) {
	var graph string
	if opts.NeedsDOT() {
		graph = dot.ToDOT(tree, res, dot.Options{
			Detailed:  opts.Detailed,
			Pinned:    opts.Pinned,
			CardWidth: opts.Config.CardWidth,
		})
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(res, "", "  ")
		case FormatDOT:
			data = []byte(graph)
		case FormatSVG:
			data, err = dot.RenderSVG(graph)
		case FormatPNG:
			data, err = dot.RenderPNG(graph, 2.0)
		case FormatPDF:
			data, err = dot.RenderPDF(graph)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
