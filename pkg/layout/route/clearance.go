package route

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/model"
)

type vertical struct {
	x, top, bottom float64
}

func (c *Connection) verticals() []vertical {
	out := []vertical{{c.StemX, c.StemTopY, c.StemBottomY}}
	for _, d := range c.Drops {
		out = append(out, vertical{d.X, d.TopY, d.BottomY})
	}
	return out
}

// distance from a point to a vertical segment.
func (v vertical) distance(x, y float64) float64 {
	dy := 0.0
	switch {
	case y < v.top:
		dy = v.top - y
	case y > v.bottom:
		dy = y - v.bottom
	}
	return math.Hypot(x-v.x, dy)
}

// clearElbows nudges drops until every elbow keeps MinEdgeClearance from
// the vertical lines of other connections. A drop's corner with the bus
// moves its own drop. A stem's junction with the bus moves the other
// connection's drop instead, since stems stay on their cards. Bus ends sit
// on a drop or on the stem, so the verticals cover them. No drop moves
// further than MinEdgeClearance from its card center. A connection whose
// drops moved gets its lane checked again.
func (r *router) clearElbows(conns []Connection) {
	limit := min(r.cfg.MinEdgeClearance, r.cfg.CardWidth/2)
	if limit <= 0 {
		return
	}
	origin := make(map[string]float64)
	for i := range conns {
		for _, d := range conns[i].Drops {
			origin[d.ChildID] = d.X
		}
	}
	rowOf := make(map[int][]int)
	for _, row := range r.rows(conns) {
		for _, i := range row {
			rowOf[i] = row
		}
	}
	// push moves d horizontally until it is MinEdgeClearance from x.
	push := func(d *Drop, x, dist float64, left bool) bool {
		if dist >= r.cfg.MinEdgeClearance-epsilon {
			return false
		}
		dir := 1.0
		if d.X < x || (d.X == x && left) {
			dir = -1
		}
		want := d.X + dir*(r.cfg.MinEdgeClearance-math.Abs(d.X-x))
		o := origin[d.ChildID]
		want = min(max(want, o-limit), o+limit)
		if math.Abs(want-d.X) <= epsilon {
			return false
		}
		d.X = want
		return true
	}

	for range clearanceRounds {
		moved := make(map[int]bool)
		for i := range conns {
			c := &conns[i]
			for j := range conns {
				if j == i {
					continue
				}
				o := &conns[j]
				for k := range c.Drops {
					d := &c.Drops[k]
					for _, v := range o.verticals() {
						if push(d, v.x, v.distance(d.X, c.BranchY), c.UnionID < o.UnionID) {
							moved[i] = true
						}
					}
				}
				for k := range o.Drops {
					d := &o.Drops[k]
					dist := vertical{d.X, d.TopY, d.BottomY}.distance(c.StemX, c.BranchY)
					if push(d, c.StemX, dist, o.UnionID < c.UnionID) {
						moved[j] = true
					}
				}
				if moved[j] {
					r.setLane(o, o.Lane)
				}
			}
			if moved[i] {
				r.setLane(c, c.Lane)
			}
		}
		if len(moved) == 0 {
			return
		}
		for i := range conns {
			if moved[i] {
				conns[i].LaneSkipped = !r.relane(conns, rowOf[i], rowOf[i], i)
			}
		}
	}
}

// spouseLines joins the partners of every couple. The lines of one
// person's chain unions fan downward in small steps, nearest partner
// first, so they stay distinguishable where they overlap.
func (r *router) spouseLines() []SpouseLine {
	var out []SpouseLine
	fan := make(map[string][]int) // shared person -> chain line indexes
	for _, id := range r.m.Order {
		u := r.m.Unions[id]
		if u.Single() {
			continue
		}
		a, okA := r.center(u.PartnerA)
		b, okB := r.center(u.PartnerB)
		if !okA || !okB {
			continue
		}
		line := SpouseLine{
			UnionID:  id,
			PartnerA: u.PartnerA,
			PartnerB: u.PartnerB,
			X1:       min(a.X, b.X),
			X2:       max(a.X, b.X),
			Y:        a.Y + r.cfg.CardHeight/2,
			Status:   u.Status,
		}
		if u.Secondary() {
			line.Y = r.cards[u.NewPartner()].Y + r.cfg.CardHeight/2
		}
		if u.Kind == model.KindChain {
			line.Chain = true
			fan[u.Shared] = append(fan[u.Shared], len(out))
		}
		out = append(out, line)
	}
	for _, idx := range fan {
		slices.SortStableFunc(idx, func(i, j int) int {
			if c := cmp.Compare(out[i].X2-out[i].X1, out[j].X2-out[j].X1); c != 0 {
				return c
			}
			return cmp.Compare(out[i].UnionID, out[j].UnionID)
		})
		for k, i := range idx {
			out[i].Y += float64(k+1) * spouseFanStep
		}
	}
	return out
}
