package solve

import (
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/place"
)

// PhaseA refines region A starting from tentative positions. Each round
// sweeps rows top-down pushing overlapping units right (with everything
// placed under them), re-centers clusters over their children bottom-up
// within the room their neighbors leave, and separates sibling branch
// corridors. Rounds stop when the largest move drops below the tolerance
// or after MaxIterations.
func (s *Solver) PhaseA(tentative place.Positions) Locked {
	pos := make(place.Positions)
	for _, units := range s.rowsA {
		for _, id := range units {
			pos[id] = tentative[id]
		}
	}

	l := Locked{}
	for l.iterations < s.cfg.MaxIterations {
		l.iterations++
		delta := s.sweep(pos)
		delta = max(delta, s.recenter(pos))
		delta = max(delta, s.separate(pos))
		if delta < s.cfg.Tolerance {
			l.converged = true
			break
		}
	}

	// Re-centering can leave overlaps or corridor intrusions behind when
	// the round limit is hit; pushing right only always settles.
	for range len(pos) + 2 {
		if max(s.sweep(pos), s.separate(pos)) <= epsilon {
			break
		}
	}
	l.pos = pos
	return l
}

func (s *Solver) rows() []int {
	var gens []int
	for gen := range s.rowsA {
		gens = append(gens, gen)
	}
	slices.Sort(gens)
	return gens
}

// sweep removes overlaps row by row from the top. Returns the largest
// shift applied.
func (s *Solver) sweep(pos place.Positions) float64 {
	moved := 0.0
	for _, gen := range s.rows() {
		units := s.byX(pos, s.rowsA[gen])
		for i := 1; i < len(units); i++ {
			need := s.right(pos, units[i-1]) + s.cfg.HorizontalGap
			if d := need - pos[units[i]]; d > epsilon {
				s.shift(pos, units[i], d)
				moved = max(moved, d)
			}
		}
	}
	return moved
}

// shift moves a unit and every cluster placed under it.
func (s *Solver) shift(pos place.Positions, id string, d float64) {
	pos[id] += d
	for _, cid := range s.ms.ChildClusters(id) {
		for _, uid := range s.m.Clusters[cid].Units {
			s.shift(pos, uid, d)
		}
	}
}

// recenter moves each cluster, bottom-up, so its anchor union sits over
// the middle of its children. Clusters move as a whole and never past
// their row neighbors.
func (s *Solver) recenter(pos place.Positions) float64 {
	moved := 0.0
	gens := s.rows()
	for i := len(gens) - 1; i >= 0; i-- {
		units := s.byX(pos, s.rowsA[gens[i]])
		var clusters []string
		for _, id := range units {
			if cid := s.m.Unions[id].ClusterID; !slices.Contains(clusters, cid) {
				clusters = append(clusters, cid)
			}
		}
		for _, cid := range clusters {
			d, ok := s.centering(pos, cid)
			if !ok || math.Abs(d) <= epsilon {
				continue
			}
			members := s.m.Clusters[cid].Units
			left, right := math.Inf(1), math.Inf(-1)
			for _, id := range members {
				left = min(left, pos[id])
				right = max(right, s.right(pos, id))
			}
			lo, hi := math.Inf(-1), math.Inf(1)
			for _, id := range units {
				if slices.Contains(members, id) {
					continue
				}
				if pos[id] < left {
					lo = max(lo, s.right(pos, id)+s.cfg.HorizontalGap-left)
				} else {
					hi = min(hi, pos[id]-s.cfg.HorizontalGap-right)
				}
			}
			if lo > hi {
				continue
			}
			d = min(max(d, lo), hi)
			if math.Abs(d) <= epsilon {
				continue
			}
			for _, id := range members {
				pos[id] += d
			}
			moved = max(moved, math.Abs(d))
		}
	}
	return moved
}

// centering returns how far a cluster must move for its anchor union to be
// centered over its children. The anchor is the first union of the cluster
// with children, the primary union first.
func (s *Solver) centering(pos place.Positions, cid string) (float64, bool) {
	units := append([]string{cid}, s.m.Clusters[cid].Units...)
	for _, id := range units {
		children := s.placedChildren(id)
		if len(children) == 0 {
			continue
		}
		lo, hi, ok := s.geo.ChildSpan(pos, id, children)
		if !ok {
			continue
		}
		return (lo+hi)/2 - s.geo.Center(pos, id), true
	}
	return 0, false
}

// placedChildren returns the children laid out under a union, or all of
// its children when it has none placed under it.
func (s *Solver) placedChildren(id string) []string {
	u := s.m.Unions[id]
	var out []string
	for _, c := range u.Children {
		if cid := s.m.ClusterOf(s.m.CardUnion(c)).ID; s.ms.Parent[cid] == id {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return u.Children
	}
	return out
}

// separate pushes sibling branches right until each corridor starts a gap
// after everything to its left. Nested branches are separated within
// their parent branch afterwards.
func (s *Solver) separate(pos place.Positions) float64 {
	return s.separateGroup(pos, s.ms.Branches)
}

func (s *Solver) separateGroup(pos place.Positions, group []*measure.Branch) float64 {
	moved := 0.0
	edge := math.Inf(-1)
	for _, b := range group {
		lo, hi := s.extent(pos, b.Units)
		if d := edge + s.cfg.HorizontalGap - lo; d > epsilon {
			for _, id := range b.Units {
				pos[id] += d
			}
			hi += d
			moved = max(moved, d)
		}
		edge = max(edge, hi)
	}
	for _, b := range group {
		moved = max(moved, s.separateGroup(pos, b.Children))
	}
	return moved
}

// Extent returns the horizontal span of the cards owned by units.
func (s *Solver) extent(pos place.Positions, units []string) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, id := range units {
		lo = min(lo, pos[id])
		hi = max(hi, s.right(pos, id))
	}
	return lo, hi
}

// BranchExtent returns the horizontal span of a branch corridor.
func (s *Solver) BranchExtent(pos place.Positions, b *measure.Branch) (lo, hi float64) {
	return s.extent(pos, b.Units)
}
