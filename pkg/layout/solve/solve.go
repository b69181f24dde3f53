// Package solve refines tentative positions in two phases.
//
// Phase A settles the focus's parents and everything below them: it
// removes overlaps, keeps sibling branches in separate corridors and
// centers parents over their children, until nothing moves. Its result is
// a [Locked] record that Phase B reads but never changes. Phase B then
// fits the older ancestors above, keeping the father's line left of the
// axis between the focus's parents and the mother's line right of it.
package solve

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/place"
)

const epsilon = 1e-9

// Locked is the outcome of Phase A. It cannot be modified once built.
type Locked struct {
	pos        place.Positions
	iterations int
	converged  bool
}

// X returns the locked position of a union.
func (l Locked) X(unionID string) (float64, bool) {
	x, ok := l.pos[unionID]
	return x, ok
}

// Positions returns a copy of every locked position.
func (l Locked) Positions() place.Positions { return l.pos.Clone() }

// Len returns the number of locked unions.
func (l Locked) Len() int { return len(l.pos) }

// Iterations returns how many refinement rounds Phase A ran.
func (l Locked) Iterations() int { return l.iterations }

// Converged reports whether Phase A stopped because nothing moved more than
// the configured tolerance.
func (l Locked) Converged() bool { return l.converged }

// Solver holds the inputs shared by both phases.
type Solver struct {
	m   *model.Model
	g   *generation.Generations
	ms  *measure.Measurement
	cfg config.Config
	geo place.Geometry

	seq     map[string]int
	rowsA   map[int][]string
	subtree map[string][]string
}

// New prepares a solver.
func New(m *model.Model, g *generation.Generations, ms *measure.Measurement, cfg config.Config) *Solver {
	s := &Solver{
		m:     m,
		g:     g,
		ms:    ms,
		cfg:   cfg,
		geo:   place.Geometry{M: m, Cfg: cfg},
		seq:   make(map[string]int, len(m.Order)),
		rowsA: make(map[int][]string),
	}
	for i, id := range m.Order {
		s.seq[id] = i
		if gen := g.Union(id); measure.InRegionA(gen) {
			s.rowsA[gen] = append(s.rowsA[gen], id)
		}
	}
	return s
}

// Merge combines locked positions with ancestor positions. Locked entries
// win.
func Merge(locked Locked, ancestors place.Positions) place.Positions {
	out := ancestors.Clone()
	for id, x := range locked.pos {
		out[id] = x
	}
	return out
}

// byX returns units ordered by position, ties broken by build order.
func (s *Solver) byX(pos place.Positions, units []string) []string {
	out := slices.Clone(units)
	slices.SortStableFunc(out, func(a, b string) int {
		if c := cmp.Compare(pos[a], pos[b]); c != 0 {
			return c
		}
		return cmp.Compare(s.seq[a], s.seq[b])
	})
	return out
}

func (s *Solver) right(pos place.Positions, id string) float64 {
	return pos[id] + s.geo.Width(id)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
