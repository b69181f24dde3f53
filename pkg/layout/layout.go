package layout

import (
	"io"

	"github.com/charmbracelet/log"

	kterrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/place"
	"github.com/matzehuels/kintree/pkg/layout/route"
	"github.com/matzehuels/kintree/pkg/layout/selection"
	"github.com/matzehuels/kintree/pkg/layout/solve"
)

// =============================================================================
// Policy
// =============================================================================

// Policy controls which relatives are visible around the focus.
type Policy struct {
	AncestorDepth      int  `json:"ancestorDepth" toml:"ancestor_depth"`
	DescendantDepth    int  `json:"descendantDepth" toml:"descendant_depth"`
	IncludeAuntsUncles bool `json:"includeAuntsUncles" toml:"include_aunts_uncles"`
	IncludeCousins     bool `json:"includeCousins" toml:"include_cousins"`

	// IncludeSpouseAncestors climbs the ancestors of the focus's partners
	// as well.
	IncludeSpouseAncestors bool `json:"includeSpouseAncestors" toml:"include_spouse_ancestors"`
}

// DefaultPolicy shows grandparents and grandchildren.
func DefaultPolicy() Policy {
	return Policy{AncestorDepth: 2, DescendantDepth: 2}
}

// Validate checks the depth limits.
func (p Policy) Validate() error {
	if err := kterrors.ValidateDepth("ancestorDepth", p.AncestorDepth); err != nil {
		return err
	}
	return kterrors.ValidateDepth("descendantDepth", p.DescendantDepth)
}

func (p Policy) selection(o *options) selection.Options {
	spouse := p.IncludeSpouseAncestors
	if o.spouseAncestors != nil {
		spouse = *o.spouseAncestors
	}
	return selection.Options{
		AncestorDepth:                   p.AncestorDepth,
		DescendantDepth:                 p.DescendantDepth,
		IncludeSpouseAncestors:          spouse,
		IncludeParentSiblings:           p.IncludeAuntsUncles || p.IncludeCousins,
		IncludeParentSiblingDescendants: p.IncludeCousins,
	}
}

// =============================================================================
// Options
// =============================================================================

type options struct {
	logger          *log.Logger
	expanded        bool
	stopAfterPhaseA bool
	spouseAncestors *bool
}

// Option configures a single computation.
type Option func(*options)

// WithLogger sets the logger for stage summaries, which are written at
// debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithExpanded turns on chain display for persons with three or more
// partnerships.
func WithExpanded(expanded bool) Option {
	return func(o *options) { o.expanded = expanded }
}

// WithStopAfterPhaseA skips the ancestor phase of the solver. Ancestors keep
// their tentative positions.
func WithStopAfterPhaseA() Option {
	return func(o *options) { o.stopAfterPhaseA = true }
}

// WithIncludeSpouseAncestors overrides Policy.IncludeSpouseAncestors.
func WithIncludeSpouseAncestors(include bool) Option {
	return func(o *options) { o.spouseAncestors = &include }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// =============================================================================
// Compute
// =============================================================================

// Compute lays out the relatives of focusID selected by policy. It never
// fails: an unknown focus yields an empty result that passes validation,
// and an invalid policy or config yields an empty result whose diagnostics
// carry the reason.
func Compute(tree *family.Tree, focusID string, policy Policy, cfg config.Config, opts ...Option) Result {
	return run(tree, focusID, policy, cfg, newOptions(opts), nil)
}

// ComputeDebug is [Compute] with a snapshot of the intermediate geometry
// after each stage.
func ComputeDebug(tree *family.Tree, focusID string, policy Policy, cfg config.Config, opts ...Option) (Result, []Snapshot) {
	rec := &recorder{cfg: cfg}
	res := run(tree, focusID, policy, cfg, newOptions(opts), rec)
	return res, rec.snapshots
}

func run(tree *family.Tree, focusID string, policy Policy, cfg config.Config, o *options, rec *recorder) Result {
	res := Result{
		FocusID:     focusID,
		Positions:   map[string]Position{},
		Generations: map[string]int{},
		Diagnostics: Diagnostics{Errors: []string{}},
	}
	if err := cfg.Validate(); err != nil {
		return invalid(res, err)
	}
	if err := policy.Validate(); err != nil {
		return invalid(res, err)
	}
	if tree == nil {
		tree = family.NewTree()
	}
	logger := o.logger

	x := family.NewIndex(tree)
	sel := selection.Select(x, focusID, policy.selection(o))
	rec.selection(sel)
	if sel.Empty() {
		logger.Debug("focus not in tree", "focus", focusID)
		res.Diagnostics.ValidationPassed = true
		return res
	}
	logger.Debug("selected", "persons", len(sel.Persons), "partnerships", len(sel.Partnerships),
		"ancestors", sel.AncestorDepth, "descendants", sel.DescendantDepth)

	m := model.Build(x, sel, model.Options{Expanded: o.expanded})
	rec.model(m)
	logger.Debug("built model", "unions", len(m.Unions), "clusters", len(m.Clusters))

	g := generation.Assign(m)
	warnings := generation.Validate(m, g)
	rec.generations(g, warnings)
	for _, w := range warnings {
		logger.Debug("generation warning", "detail", w)
	}

	ms := measure.Measure(m, g, cfg)
	rec.measurement(ms)
	for _, w := range ms.Warnings {
		logger.Debug("forest warning", "detail", w)
	}
	logger.Debug("measured", "blocks", len(ms.Blocks), "roots", len(ms.Roots), "branches", len(ms.Branches))

	tentative := place.Place(m, g, ms, cfg)
	rec.positions(StagePlace, m, g, tentative)

	s := solve.New(m, g, ms, cfg)
	locked := s.PhaseA(tentative)
	var ancestors place.Positions
	if o.stopAfterPhaseA {
		ancestors = make(place.Positions, len(ms.Ancestors))
		for _, id := range ms.Ancestors {
			ancestors[id] = tentative[id]
		}
	} else {
		ancestors = s.PhaseB(locked)
	}
	pos := solve.Merge(locked, ancestors)
	axis, hasAxis := s.Axis(locked)
	rec.solved(m, g, s, ms, pos, axis, hasAxis)
	logger.Debug("solved", "iterations", locked.Iterations(), "converged", locked.Converged(),
		"ancestors", len(ancestors), "phaseB", !o.stopAfterPhaseA)

	e := &emitter{cfg: cfg, m: m, g: g, ms: ms, s: s, pos: pos}
	e.positions(&res)
	routed := route.Route(m, res.Positions, cfg)
	res.Connections = routed.Connections
	res.SpouseLines = routed.SpouseLines
	rec.routed(routed)
	e.branches(&res)
	e.unions(&res)

	d := &res.Diagnostics
	d.TotalPersons = len(res.Positions)
	d.TotalUnions = len(m.Unions)
	d.GenerationWarnings = append(warnings, ms.Warnings...)
	d.AncestorDepth = sel.AncestorDepth
	d.DescendantDepth = sel.DescendantDepth
	d.Iterations = locked.Iterations()
	d.Converged = locked.Converged()
	d.PhaseBSkipped = o.stopAfterPhaseA
	d.Crossings = e.crossings(&res)
	for _, c := range res.Connections {
		if c.LaneSkipped {
			d.LanesSkipped++
		}
	}
	d.Errors = e.validate(&res)
	d.ValidationPassed = len(d.Errors) == 0
	res.Bounds = e.bounds(&res)
	rec.emitted(&res)

	logger.Debug("emitted", "persons", d.TotalPersons, "connections", len(res.Connections),
		"crossings", d.Crossings, "valid", d.ValidationPassed)
	return res
}

func invalid(res Result, err error) Result {
	res.Diagnostics.Errors = append(res.Diagnostics.Errors, kterrors.UserMessage(err))
	return res
}
