// Package route draws the lines between cards: a spouse line between the
// partners of every couple, and for every union with children a stem down
// from the parents, a horizontal bus, and a drop into each child's card.
package route

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/model"
)

const (
	// MaxLanes is how many vertical offsets overlapping buses can use.
	MaxLanes = 3
	// spouseFanStep separates the spouse lines of one person's chain.
	spouseFanStep = 3.0
	// clearanceRounds bounds the elbow nudging passes.
	clearanceRounds = 5

	epsilon = 1e-9
)

// Point is the top-left corner of a card.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drop is the vertical line from the bus into a child's card.
type Drop struct {
	ChildID string  `json:"childId"`
	X       float64 `json:"x"`
	TopY    float64 `json:"topY"`
	BottomY float64 `json:"bottomY"`
}

// Connection is the parent-to-children line set of one union.
type Connection struct {
	UnionID string `json:"unionId"`

	StemX       float64 `json:"stemX"`
	StemTopY    float64 `json:"stemTopY"`
	StemBottomY float64 `json:"stemBottomY"`

	// The connector joins the stem to the bus when the stem lies outside
	// the bus span. It is drawn at BranchY.
	HasConnector   bool    `json:"hasConnector"`
	ConnectorFromX float64 `json:"connectorFromX,omitempty"`
	ConnectorToX   float64 `json:"connectorToX,omitempty"`
	ConnectorY     float64 `json:"connectorY,omitempty"`

	BranchLeftX  float64 `json:"branchLeftX"`
	BranchRightX float64 `json:"branchRightX"`
	BranchY      float64 `json:"branchY"`

	Drops []Drop `json:"drops"`

	Lane        int  `json:"lane"`
	LaneSkipped bool `json:"laneSkipped,omitempty"`
}

// Footprint is the horizontal extent of the stem, connector and bus.
func (c *Connection) Footprint() (lo, hi float64) {
	return min(c.StemX, c.BranchLeftX), max(c.StemX, c.BranchRightX)
}

// SpouseLine joins two partners at the middle of their cards.
type SpouseLine struct {
	UnionID  string        `json:"unionId"`
	PartnerA string        `json:"partnerA"`
	PartnerB string        `json:"partnerB"`
	X1       float64       `json:"x1"`
	X2       float64       `json:"x2"`
	Y        float64       `json:"y"`
	Status   family.Status `json:"status,omitempty"`
	Chain    bool          `json:"chain,omitempty"`
}

// Result holds every routed line.
type Result struct {
	Connections []Connection
	SpouseLines []SpouseLine
}

type router struct {
	m     *model.Model
	cards map[string]Point
	cfg   config.Config
	bus   map[string]float64 // union -> lane 0 bus height
}

// Route draws connections for every union with a placed child and spouse
// lines for every couple, both in build order.
func Route(m *model.Model, cards map[string]Point, cfg config.Config) Result {
	r := &router{m: m, cards: cards, cfg: cfg, bus: make(map[string]float64)}
	var res Result
	for _, id := range m.Order {
		if c, ok := r.connection(id); ok {
			res.Connections = append(res.Connections, c)
		}
	}
	r.assignLanes(res.Connections)
	r.clearElbows(res.Connections)
	res.SpouseLines = r.spouseLines()
	return res
}

func (r *router) center(personID string) (Point, bool) {
	p, ok := r.cards[personID]
	return Point{X: p.X + r.cfg.CardWidth/2, Y: p.Y}, ok
}

// anchor returns where the stem starts: between the partners at mid-card
// height for a couple owning both cards, otherwise below the owned card.
func (r *router) anchor(u *model.Union) (x, topY, bottomY float64, ok bool) {
	if !u.Secondary() && !u.Single() {
		a, okA := r.center(u.PartnerA)
		b, okB := r.center(u.PartnerB)
		if !okA || !okB {
			return 0, 0, 0, false
		}
		return (a.X + b.X) / 2, a.Y + r.cfg.CardHeight/2, a.Y + r.cfg.CardHeight, true
	}
	p, ok := r.center(u.Cards()[0])
	return p.X, p.Y + r.cfg.CardHeight, p.Y + r.cfg.CardHeight, ok
}

func (r *router) connection(id string) (Connection, bool) {
	u := r.m.Unions[id]
	stemX, stemTop, parentBottom, ok := r.anchor(u)
	if !ok {
		return Connection{}, false
	}
	c := Connection{UnionID: id, StemX: stemX, StemTopY: stemTop}
	r.bus[id] = parentBottom + r.cfg.VerticalGap/2
	for _, child := range u.Children {
		p, ok := r.center(child)
		if !ok {
			continue
		}
		c.Drops = append(c.Drops, Drop{ChildID: child, X: p.X, BottomY: p.Y})
	}
	if len(c.Drops) == 0 {
		return Connection{}, false
	}
	r.setLane(&c, 0)
	return c, true
}

// setLane moves the bus to a lane and recomputes the parts that depend on
// the bus position or on the drop positions.
func (r *router) setLane(c *Connection, lane int) {
	c.Lane = lane
	c.BranchY = r.bus[c.UnionID] + float64(lane)*r.cfg.LaneStep()
	c.StemBottomY = c.BranchY
	c.BranchLeftX, c.BranchRightX = math.Inf(1), math.Inf(-1)
	for i := range c.Drops {
		d := &c.Drops[i]
		d.TopY = c.BranchY
		c.BranchLeftX = min(c.BranchLeftX, d.X)
		c.BranchRightX = max(c.BranchRightX, d.X)
	}
	c.HasConnector, c.ConnectorFromX, c.ConnectorToX, c.ConnectorY = false, 0, 0, 0
	switch {
	case c.StemX < c.BranchLeftX-epsilon:
		c.HasConnector, c.ConnectorFromX, c.ConnectorToX = true, c.StemX, c.BranchLeftX
	case c.StemX > c.BranchRightX+epsilon:
		c.HasConnector, c.ConnectorFromX, c.ConnectorToX = true, c.BranchRightX, c.StemX
	}
	if c.HasConnector {
		c.ConnectorY = c.BranchY
	}
}

// assignLanes offsets buses that share a row and overlap horizontally.
// Connections are taken left to right; each gets the lowest lane no
// overlapping earlier connection uses. An offset that would add a crossing
// is skipped and the bus stays in lane 0.
func (r *router) assignLanes(conns []Connection) {
	for _, row := range r.rows(conns) {
		for n, i := range row {
			if !r.relane(conns, row, row[:n], i) {
				conns[i].LaneSkipped = true
			}
		}
	}
}

// rows groups connections by lane 0 bus height, top to bottom, each row
// ordered by the left end of its footprint.
func (r *router) rows(conns []Connection) [][]int {
	groups := make(map[float64][]int)
	var keys []float64
	for i := range conns {
		k := math.Round(r.bus[conns[i].UnionID])
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	slices.Sort(keys)

	out := make([][]int, 0, len(keys))
	for _, k := range keys {
		idx := groups[k]
		slices.SortStableFunc(idx, func(a, b int) int {
			la, _ := conns[a].Footprint()
			lb, _ := conns[b].Footprint()
			if c := cmp.Compare(la, lb); c != 0 {
				return c
			}
			return cmp.Compare(conns[a].UnionID, conns[b].UnionID)
		})
		out = append(out, idx)
	}
	return out
}

// relane keeps connection i in its lane when no overlapping connection of
// others uses it, and otherwise moves it to the lowest free lane. It
// reports false, leaving the lane as it was, when the free lane is past
// MaxLanes or taking it would add a crossing within row.
func (r *router) relane(conns []Connection, row, others []int, i int) bool {
	c := &conns[i]
	used := make(map[int]bool)
	for _, j := range others {
		if j != i && overlaps(c, &conns[j]) {
			used[conns[j].Lane] = true
		}
	}
	if !used[c.Lane] {
		return true
	}
	lane := 0
	for used[lane] {
		lane++
	}
	if lane >= MaxLanes {
		return false
	}
	prev := c.Lane
	before := r.crossings(conns, row, i)
	r.setLane(c, lane)
	if r.crossings(conns, row, i) > before {
		r.setLane(c, prev)
		return false
	}
	return true
}

func overlaps(a, b *Connection) bool {
	alo, ahi := a.Footprint()
	blo, bhi := b.Footprint()
	return alo <= bhi+epsilon && blo <= ahi+epsilon
}

// crossings counts proper crossings between connection i and the other
// connections of its row: a vertical segment of one passing through the
// horizontal footprint of the other.
func (r *router) crossings(conns []Connection, group []int, i int) int {
	c := &conns[i]
	n := 0
	for _, j := range group {
		if j == i {
			continue
		}
		o := &conns[j]
		n += verticalsThrough(c, o) + verticalsThrough(o, c)
	}
	return n
}

// verticalsThrough counts the stem and drops of a that strictly cross the
// horizontal footprint of b.
func verticalsThrough(a, b *Connection) int {
	lo, hi := b.Footprint()
	y := b.BranchY
	crosses := func(x, top, bottom float64) bool {
		return x > lo+epsilon && x < hi-epsilon && top < y-epsilon && bottom > y+epsilon
	}
	n := 0
	if crosses(a.StemX, a.StemTopY, a.StemBottomY) {
		n++
	}
	for _, d := range a.Drops {
		if crosses(d.X, d.TopY, d.BottomY) {
			n++
		}
	}
	return n
}
