package layout

import (
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/place"
	"github.com/matzehuels/kintree/pkg/layout/route"
	"github.com/matzehuels/kintree/pkg/layout/selection"
	"github.com/matzehuels/kintree/pkg/layout/solve"
)

// Stage names used in snapshots.
const (
	StageSelect   = "select"
	StageModel    = "model"
	StageGenerate = "generation"
	StageMeasure  = "measure"
	StagePlace    = "place"
	StageSolve    = "solve"
	StageRoute    = "route"
	StageEmit     = "emit"
)

// Snapshot is the state of the layout after one stage. Coordinates before
// the emit stage are solver coordinates, which differ from the final ones
// by a horizontal translation.
type Snapshot struct {
	Stage   string         `json:"stage"`
	Boxes   []Box          `json:"boxes,omitempty"`
	Lines   []Line         `json:"lines,omitempty"`
	Anchors []Anchor       `json:"anchors,omitempty"`
	Bands   []Band         `json:"bands,omitempty"`
	Summary map[string]int `json:"summary"`
	Notes   []string       `json:"notes,omitempty"`
}

// Box is a rectangle: a person card, a union, a cluster envelope or a
// branch corridor.
type Box struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Line is a segment: a stem, bus, drop, connector, spouse line or axis.
type Line struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Anchor is the point a union's stem leaves from.
type Anchor struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Band is the vertical extent of one generation row.
type Band struct {
	Generation int     `json:"generation"`
	Y          float64 `json:"y"`
	Height     float64 `json:"height"`
}

// recorder collects snapshots. A nil recorder records nothing, so the
// stages run identically with and without it.
type recorder struct {
	cfg       config.Config
	minGen    int
	snapshots []Snapshot
}

func (r *recorder) add(s Snapshot) {
	if s.Summary == nil {
		s.Summary = map[string]int{}
	}
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) rowY(gen int) float64 {
	return r.cfg.Padding + float64(gen-r.minGen)*r.cfg.RowHeight()
}

func (r *recorder) selection(sel *selection.Selection) {
	if r == nil {
		return
	}
	r.add(Snapshot{
		Stage: StageSelect,
		Summary: map[string]int{
			"persons":         len(sel.Persons),
			"partnerships":    len(sel.Partnerships),
			"ancestorDepth":   sel.AncestorDepth,
			"descendantDepth": sel.DescendantDepth,
		},
		Notes: sel.PersonIDs(),
	})
}

func (r *recorder) model(m *model.Model) {
	if r == nil {
		return
	}
	kinds := map[string]int{"unions": len(m.Unions), "clusters": len(m.Clusters), "edges": len(m.Edges)}
	for _, u := range m.Unions {
		kinds[u.Kind.String()]++
	}
	r.add(Snapshot{Stage: StageModel, Summary: kinds, Notes: slices.Clone(m.Order)})
}

func (r *recorder) generations(g *generation.Generations, warnings []string) {
	if r == nil {
		return
	}
	r.minGen = g.Min
	s := Snapshot{
		Stage:   StageGenerate,
		Summary: map[string]int{"minGen": g.Min, "maxGen": g.Max, "warnings": len(warnings)},
		Notes:   warnings,
	}
	for _, gen := range g.Rows() {
		s.Bands = append(s.Bands, Band{Generation: gen, Y: r.rowY(gen), Height: r.cfg.CardHeight})
	}
	r.add(s)
}

func (r *recorder) measurement(ms *measure.Measurement) {
	if r == nil {
		return
	}
	branches := 0
	for _, b := range ms.Branches {
		b.Walk(func(*measure.Branch) { branches++ })
	}
	s := Snapshot{
		Stage: StageMeasure,
		Summary: map[string]int{
			"blocks":    len(ms.Blocks),
			"roots":     len(ms.Roots),
			"ancestors": len(ms.Ancestors),
			"branches":  branches,
		},
		Notes: slices.Clone(ms.Roots),
	}
	for _, id := range slices.Sorted(maps.Keys(ms.Blocks)) {
		b := ms.Blocks[id]
		s.Boxes = append(s.Boxes, Box{ID: id, Kind: "envelope", Y: r.rowY(b.Generation),
			Width: b.EnvelopeWidth, Height: r.cfg.CardHeight})
	}
	r.add(s)
}

func (r *recorder) unionBoxes(m *model.Model, g *generation.Generations, pos place.Positions) []Box {
	geo := place.Geometry{M: m, Cfg: r.cfg}
	var boxes []Box
	for _, id := range m.Order {
		x, ok := pos[id]
		if !ok {
			continue
		}
		boxes = append(boxes, Box{ID: id, Kind: "union", X: x, Y: r.rowY(g.Union(id)),
			Width: geo.Width(id), Height: r.cfg.CardHeight})
	}
	return boxes
}

func (r *recorder) positions(stage string, m *model.Model, g *generation.Generations, pos place.Positions) {
	if r == nil {
		return
	}
	r.add(Snapshot{Stage: stage, Boxes: r.unionBoxes(m, g, pos), Summary: map[string]int{"unions": len(pos)}})
}

func (r *recorder) solved(m *model.Model, g *generation.Generations, s *solve.Solver, ms *measure.Measurement,
	pos place.Positions, axis float64, hasAxis bool) {
	if r == nil {
		return
	}
	snap := Snapshot{Stage: StageSolve, Boxes: r.unionBoxes(m, g, pos), Summary: map[string]int{"unions": len(pos)}}
	for _, top := range ms.Branches {
		top.Walk(func(b *measure.Branch) {
			lo, hi := s.BranchExtent(pos, b)
			y := r.rowY(g.Person(b.PersonID))
			snap.Boxes = append(snap.Boxes, Box{ID: b.ID, Kind: "branch", X: lo, Y: y,
				Width: hi - lo, Height: r.rowY(g.Max) + r.cfg.CardHeight - y})
		})
	}
	if hasAxis {
		snap.Lines = append(snap.Lines, Line{ID: "axis", Kind: "axis", X1: axis, Y1: r.rowY(g.Min), X2: axis,
			Y2: r.rowY(g.Max) + r.cfg.CardHeight})
	}
	r.add(snap)
}

func (r *recorder) routed(res route.Result) {
	if r == nil {
		return
	}
	s := Snapshot{Stage: StageRoute, Summary: map[string]int{
		"connections": len(res.Connections),
		"spouseLines": len(res.SpouseLines),
	}}
	for _, c := range res.Connections {
		s.Anchors = append(s.Anchors, Anchor{ID: c.UnionID, X: c.StemX, Y: c.StemTopY})
		s.Lines = append(s.Lines, Line{ID: c.UnionID, Kind: "stem", X1: c.StemX, Y1: c.StemTopY, X2: c.StemX, Y2: c.StemBottomY})
		if c.HasConnector {
			s.Lines = append(s.Lines, Line{ID: c.UnionID, Kind: "connector",
				X1: c.ConnectorFromX, Y1: c.ConnectorY, X2: c.ConnectorToX, Y2: c.ConnectorY})
		}
		s.Lines = append(s.Lines, Line{ID: c.UnionID, Kind: "bus",
			X1: c.BranchLeftX, Y1: c.BranchY, X2: c.BranchRightX, Y2: c.BranchY})
		for _, d := range c.Drops {
			s.Lines = append(s.Lines, Line{ID: d.ChildID, Kind: "drop", X1: d.X, Y1: d.TopY, X2: d.X, Y2: d.BottomY})
		}
		if c.LaneSkipped {
			s.Summary["lanesSkipped"]++
		}
	}
	for _, sl := range res.SpouseLines {
		s.Lines = append(s.Lines, Line{ID: sl.UnionID, Kind: "spouse", X1: sl.X1, Y1: sl.Y, X2: sl.X2, Y2: sl.Y})
	}
	r.add(s)
}

func (r *recorder) emitted(res *Result) {
	if r == nil {
		return
	}
	s := Snapshot{Stage: StageEmit, Summary: map[string]int{
		"persons":   res.Diagnostics.TotalPersons,
		"errors":    len(res.Diagnostics.Errors),
		"crossings": res.Diagnostics.Crossings,
	}, Notes: slices.Clone(res.Diagnostics.Errors)}
	for _, id := range slices.Sorted(maps.Keys(res.Positions)) {
		p := res.Positions[id]
		s.Boxes = append(s.Boxes, Box{ID: id, Kind: "person", X: p.X, Y: p.Y,
			Width: r.cfg.CardWidth, Height: r.cfg.CardHeight})
	}
	for gen := res.MinGen; gen <= res.MaxGen; gen++ {
		s.Bands = append(s.Bands, Band{Generation: gen, Y: r.rowY(gen), Height: r.cfg.CardHeight})
	}
	r.add(s)
}
