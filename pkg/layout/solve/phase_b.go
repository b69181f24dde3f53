package solve

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/place"
)

type rowCluster struct {
	id      string
	units   []string
	width   float64
	target  float64 // desired left edge
	lineage measure.Lineage
	seq     int
}

// Axis returns the vertical line between the focus's parents' cards, if
// both parents are visible and locked.
func (s *Solver) Axis(locked Locked) (float64, bool) {
	if s.ms.Paternal == "" || s.ms.Maternal == "" {
		return 0, false
	}
	p, okP := s.geo.CardCenter(locked.pos, s.ms.Paternal)
	m, okM := s.geo.CardCenter(locked.pos, s.ms.Maternal)
	if !okP || !okM {
		return 0, false
	}
	return (p + m) / 2, true
}

// PhaseB places the region B clusters row by row upward from the
// grandparents. Each cluster aims to center its anchor union over its
// children. Paternal clusters are packed right to left ending half a gap
// left of the axis, maternal ones left to right starting half a gap right
// of it, and any other cluster takes the free slot nearest its target.
// Only ancestor positions are returned.
func (s *Solver) PhaseB(locked Locked) place.Positions {
	pos := locked.Positions()
	out := make(place.Positions)
	axis, hasAxis := s.Axis(locked)

	rows := make(map[int][]string)
	for _, id := range s.ms.Ancestors {
		cid := s.m.Unions[id].ClusterID
		gen := s.g.Union(cid)
		if !slices.Contains(rows[gen], cid) {
			rows[gen] = append(rows[gen], cid)
		}
	}

	for gen := -2; gen >= s.g.Min; gen-- {
		var items []*rowCluster
		for _, cid := range rows[gen] {
			items = append(items, s.rowCluster(pos, cid, axis))
		}
		if hasAxis {
			s.packAroundAxis(items, axis)
		} else {
			packForward(items, s.cfg.HorizontalGap)
		}
		for _, it := range items {
			x := it.target
			for _, id := range it.units {
				pos[id] = x
				out[id] = x
				x += s.geo.Width(id) + s.cfg.HorizontalGap
			}
		}
	}
	return out
}

func (s *Solver) rowCluster(pos place.Positions, cid string, axis float64) *rowCluster {
	rc := &rowCluster{id: cid, units: s.m.Clusters[cid].Units, seq: s.seq[cid], target: axis}
	offsets := make(map[string]float64, len(rc.units))
	for i, id := range rc.units {
		if i > 0 {
			rc.width += s.cfg.HorizontalGap
		}
		offsets[id] = rc.width
		rc.width += s.geo.Width(id)
	}
	rc.target -= rc.width / 2

	anchors := append([]string{cid}, rc.units...)
	for _, id := range anchors {
		lo, hi, ok := s.geo.ChildSpan(pos, id, s.m.Unions[id].Children)
		if !ok || !finite(lo) || !finite(hi) {
			continue
		}
		rc.target = (lo+hi)/2 - s.geo.Width(id)/2 - offsets[id]
		break
	}
	for _, id := range anchors {
		if l := s.ms.Lineage[id]; l != measure.LineageOther {
			rc.lineage = l
			break
		}
	}
	return rc
}

func (s *Solver) packAroundAxis(items []*rowCluster, axis float64) {
	gap := s.cfg.HorizontalGap
	var paternal, maternal, other []*rowCluster
	for _, it := range items {
		switch it.lineage {
		case measure.LineagePaternal:
			paternal = append(paternal, it)
		case measure.LineageMaternal:
			maternal = append(maternal, it)
		default:
			other = append(other, it)
		}
	}

	var taken [][2]float64
	slices.SortStableFunc(paternal, func(a, b *rowCluster) int {
		if c := cmp.Compare(b.target, a.target); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	bound := axis - gap/2
	for _, it := range paternal {
		it.target = min(it.target, bound-it.width)
		bound = it.target - gap
		taken = append(taken, [2]float64{it.target, it.target + it.width})
	}

	sortByTarget(maternal)
	bound = axis + gap/2
	for _, it := range maternal {
		it.target = max(it.target, bound)
		bound = it.target + it.width + gap
		taken = append(taken, [2]float64{it.target, it.target + it.width})
	}

	sortByTarget(other)
	for _, it := range other {
		it.target = nearestFree(taken, it.target, it.width, gap)
		taken = append(taken, [2]float64{it.target, it.target + it.width})
	}
}

func sortByTarget(items []*rowCluster) {
	slices.SortStableFunc(items, func(a, b *rowCluster) int {
		if c := cmp.Compare(a.target, b.target); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

// packForward keeps clusters at their targets, pushing right any that
// would overlap the one before.
func packForward(items []*rowCluster, gap float64) {
	sortByTarget(items)
	edge := math.Inf(-1)
	for _, it := range items {
		it.target = max(it.target, edge)
		edge = it.target + it.width + gap
	}
}

// nearestFree returns the left edge closest to want at which a span of
// width keeps gap clear of every taken interval. Ties go left.
func nearestFree(taken [][2]float64, want, width, gap float64) float64 {
	fits := func(x float64) bool {
		for _, t := range taken {
			if x < t[1]+gap-epsilon && x+width > t[0]-gap+epsilon {
				return false
			}
		}
		return true
	}
	candidates := []float64{want}
	for _, t := range taken {
		candidates = append(candidates, t[0]-gap-width, t[1]+gap)
	}
	best, found := want, false
	for _, x := range candidates {
		if !fits(x) {
			continue
		}
		d, bd := math.Abs(x-want), math.Abs(best-want)
		if !found || d < bd || (d == bd && x < best) {
			best, found = x, true
		}
	}
	return best
}
