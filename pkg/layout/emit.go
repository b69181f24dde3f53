package layout

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/place"
	"github.com/matzehuels/kintree/pkg/layout/solve"
)

// overlapSlack absorbs float noise from the final translation.
const overlapSlack = 0.01

type emitter struct {
	cfg config.Config
	m   *model.Model
	g   *generation.Generations
	ms  *measure.Measurement
	s   *solve.Solver
	pos place.Positions

	dx float64
}

// positions translates solver coordinates so the leftmost card at or below
// the focus's parents sits at the padding, and derives y from the
// generation alone.
func (e *emitter) positions(res *Result) {
	geo := place.Geometry{M: e.m, Cfg: e.cfg}
	cards := geo.Cards(e.pos)

	minA, minAll := math.Inf(1), math.Inf(1)
	for id, x := range cards {
		minAll = min(minAll, x)
		if measure.InRegionA(e.g.Person(id)) {
			minA = min(minA, x)
		}
	}
	if math.IsInf(minA, 1) {
		minA = minAll
	}
	e.dx = e.cfg.Padding - minA

	for id, x := range cards {
		gen := e.g.Person(id)
		res.Positions[id] = Position{
			X: x + e.dx,
			Y: e.cfg.Padding + float64(gen-e.g.Min)*e.cfg.RowHeight(),
		}
		res.Generations[id] = gen
	}
	res.MinGen, res.MaxGen = e.g.Min, e.g.Max
}

func (e *emitter) branches(res *Result) {
	var convert func(b *measure.Branch) Branch
	convert = func(b *measure.Branch) Branch {
		lo, hi := e.s.BranchExtent(e.pos, b)
		out := Branch{
			ID:           b.ID,
			PersonID:     b.PersonID,
			SiblingIndex: b.SiblingIndex,
			MinX:         lo + e.dx,
			MaxX:         hi + e.dx,
		}
		for _, c := range b.Children {
			out.SubBranches = append(out.SubBranches, convert(c))
		}
		return out
	}
	for _, b := range e.ms.Branches {
		res.Branches = append(res.Branches, convert(b))
		res.TopLevelBranchIDs = append(res.TopLevelBranchIDs, b.ID)
	}
}

func (e *emitter) unions(res *Result) {
	for _, id := range e.m.Order {
		u := e.m.Unions[id]
		res.Unions = append(res.Unions, Union{
			ID:            u.ID,
			Kind:          u.Kind.String(),
			PartnerA:      u.PartnerA,
			PartnerB:      u.PartnerB,
			PartnershipID: u.PartnershipID,
			ChainIndex:    u.ChainIndex,
			Generation:    e.g.Union(id),
			Children:      slices.Clone(u.Children),
		})
	}
}

// crossings counts descent edges crossing between adjacent rows, with
// unions ordered by the center of their cards and persons by card x.
func (e *emitter) crossings(res *Result) int {
	geo := place.Geometry{M: e.m, Cfg: e.cfg}
	unionRows := make(map[int][]string)
	for _, id := range e.m.Order {
		if _, ok := e.pos[id]; ok {
			gen := e.g.Union(id)
			unionRows[gen] = append(unionRows[gen], id)
		}
	}
	for gen, ids := range unionRows {
		slices.SortStableFunc(ids, func(a, b string) int {
			return cmp.Compare(geo.Center(e.pos, a), geo.Center(e.pos, b))
		})
		unionRows[gen] = ids
	}

	personRows := make(map[int][]string)
	for _, id := range slices.Sorted(maps.Keys(res.Positions)) {
		gen := res.Generations[id]
		personRows[gen] = append(personRows[gen], id)
	}
	for gen, ids := range personRows {
		slices.SortStableFunc(ids, func(a, b string) int {
			return cmp.Compare(res.Positions[a].X, res.Positions[b].X)
		})
		personRows[gen] = ids
	}
	return dag.CountCrossings(generation.Graph(e.m, e.g), unionRows, personRows)
}

// validate sweeps the final geometry for invalid coordinates and cards
// sharing horizontal space on the same row.
func (e *emitter) validate(res *Result) []string {
	errs := []string{}
	ids := slices.Sorted(maps.Keys(res.Positions))

	rows := make(map[int][]string)
	for _, id := range ids {
		p := res.Positions[id]
		if !finite(p.X) || !finite(p.Y) {
			errs = append(errs, fmt.Sprintf("person %s has invalid position (%v, %v)", id, p.X, p.Y))
			continue
		}
		rows[res.Generations[id]] = append(rows[res.Generations[id]], id)
	}
	for _, c := range res.Connections {
		for _, v := range []float64{c.StemX, c.StemTopY, c.StemBottomY, c.BranchLeftX, c.BranchRightX, c.BranchY} {
			if !finite(v) {
				errs = append(errs, fmt.Sprintf("connection %s has invalid coordinates", c.UnionID))
				break
			}
		}
	}

	for _, gen := range slices.Sorted(maps.Keys(rows)) {
		row := rows[gen]
		slices.SortStableFunc(row, func(a, b string) int {
			return cmp.Compare(res.Positions[a].X, res.Positions[b].X)
		})
		for i := 1; i < len(row); i++ {
			prev, cur := res.Positions[row[i-1]], res.Positions[row[i]]
			if cur.X < prev.X+e.cfg.CardWidth-overlapSlack {
				errs = append(errs, fmt.Sprintf("persons %s and %s overlap in generation %d", row[i-1], row[i], gen))
			}
		}
	}
	return errs
}

func (e *emitter) bounds(res *Result) Bounds {
	if len(res.Positions) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range res.Positions {
		b.MinX = min(b.MinX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxX = max(b.MaxX, p.X+e.cfg.CardWidth)
		b.MaxY = max(b.MaxY, p.Y+e.cfg.CardHeight)
	}
	return b
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
