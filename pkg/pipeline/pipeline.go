// Package pipeline runs family tree layouts for the CLI and the HTTP service.
//
// The pipeline loads a tree from a store, computes the layout around one
// focus person (through the cache) and renders the requested artifacts.
// Centralizing this keeps the CLI and the service consistent.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	tree, err := runner.Load(ctx, registry, "family.json")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, tree, pipeline.Options{
//	    Focus:   "p1",
//	    Policy:  layout.DefaultPolicy(),
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Layouts for several focus persons run concurrently with [Runner.Batch].
// When a tree changes, [Runner.Invalidate] drops all of its cached layouts.
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/layout/config"
)

// =============================================================================
// Formats
// =============================================================================

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one layout run. It is also the JSON body of the
// service's layout requests.
type Options struct {
	Focus      string        `json:"focus"`
	Policy     layout.Policy `json:"policy"`
	Config     config.Config `json:"config"`
	Expanded   bool          `json:"expanded,omitempty"`
	PhaseAOnly bool          `json:"phaseAOnly,omitempty"`
	Refresh    bool          `json:"refresh,omitempty"` // skip cached results

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults: the
// default config when none is set, missing geometry fields otherwise, and
// JSON output. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateID("focus", o.Focus); err != nil {
		return err
	}
	if err := o.Policy.Validate(); err != nil {
		return err
	}
	if o.Config == (config.Config{}) {
		o.Config = config.Default()
	} else {
		o.Config = o.Config.WithDefaults()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NeedsDOT reports whether any requested format is derived from the DOT graph.
func (o *Options) NeedsDOT() bool {
	return slices.ContainsFunc(o.Formats, func(f string) bool { return f != FormatJSON })
}

// layoutOptions maps the run options onto layout options.
func (o *Options) layoutOptions() []layout.Option {
	opts := []layout.Option{layout.WithLogger(o.Logger), layout.WithExpanded(o.Expanded)}
	if o.PhaseAOnly {
		opts = append(opts, layout.WithStopAfterPhaseA())
	}
	return opts
}

// keyParams is everything besides the tree a cached layout depends on.
type keyParams struct {
	Focus      string        `json:"focus"`
	Policy     layout.Policy `json:"policy"`
	Config     config.Config `json:"config"`
	Expanded   bool          `json:"expanded"`
	PhaseAOnly bool          `json:"phaseAOnly"`
}

func (o *Options) keyParams() keyParams {
	return keyParams{
		Focus:      o.Focus,
		Policy:     o.Policy,
		Config:     o.Config,
		Expanded:   o.Expanded,
		PhaseAOnly: o.PhaseAOnly,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the computed layout.
	Layout layout.Result

	// TreeHash is the content hash of the tree, the cache namespace of its
	// layouts.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the layout came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Persons     int
	Unions      int
	Connections int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	LayoutHit bool
}

func newStats(res layout.Result) Stats {
	return Stats{
		Persons:     len(res.Positions),
		Unions:      res.Diagnostics.TotalUnions,
		Connections: len(res.Connections),
	}
}

// TreeHash returns the content hash of a tree's canonical encoding.
func TreeHash(t *family.Tree) (string, error) {
	if t == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "tree is required")
	}
	data, err := family.MarshalTree(t)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidTree, err, "encode tree")
	}
	return cache.Hash(data), nil
}
