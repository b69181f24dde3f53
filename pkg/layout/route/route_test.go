package route_test

import (
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/route"
	"github.com/matzehuels/kintree/pkg/layout/selection"
)

func everyone(tree *family.Tree, focus string, expanded bool) *model.Model {
	persons := make(map[string]bool)
	for _, id := range tree.PersonIDs() {
		persons[id] = true
	}
	partnerships := make(map[string]bool)
	for _, id := range tree.PartnershipIDs() {
		partnerships[id] = true
	}
	sel := &selection.Selection{FocusID: focus, Persons: persons, Partnerships: partnerships}
	return model.Build(family.NewIndex(tree), sel, model.Options{Expanded: expanded})
}

func find(t *testing.T, res route.Result, unionID string) route.Connection {
	t.Helper()
	for _, c := range res.Connections {
		if c.UnionID == unionID {
			return c
		}
	}
	t.Fatalf("no connection for %s", unionID)
	return route.Connection{}
}

func TestRouteCouple(t *testing.T) {
	m := everyone(familytest.Nuclear(), "p1", false)
	cards := map[string]route.Point{
		"p1": {X: 0, Y: 0}, "p2": {X: 190, Y: 0},
		"c1": {X: 0, Y: 150}, "c2": {X: 190, Y: 150},
	}
	res := route.Route(m, cards, config.Default())

	if len(res.Connections) != 1 {
		t.Fatalf("got %d connections, want 1", len(res.Connections))
	}
	c := res.Connections[0]
	if c.StemX != 175 || c.StemTopY != 35 || c.StemBottomY != 110 {
		t.Errorf("stem = (%v, %v..%v)", c.StemX, c.StemTopY, c.StemBottomY)
	}
	if c.BranchLeftX != 80 || c.BranchRightX != 270 || c.BranchY != 110 {
		t.Errorf("bus = %v..%v at %v", c.BranchLeftX, c.BranchRightX, c.BranchY)
	}
	if c.HasConnector {
		t.Error("unexpected connector")
	}
	if len(c.Drops) != 2 || c.Drops[0].X != 80 || c.Drops[0].TopY != 110 || c.Drops[0].BottomY != 150 {
		t.Errorf("drops = %+v", c.Drops)
	}

	if len(res.SpouseLines) != 1 {
		t.Fatalf("got %d spouse lines, want 1", len(res.SpouseLines))
	}
	if l := res.SpouseLines[0]; l.X1 != 80 || l.X2 != 270 || l.Y != 35 {
		t.Errorf("spouse line = %+v", l)
	}
}

func TestRouteConnector(t *testing.T) {
	tree := familytest.New().
		Female("mom", "1940").Male("kid", "1965").
		Child("mom", "kid").
		Tree()
	m := everyone(tree, "mom", false)
	cards := map[string]route.Point{"mom": {X: 500, Y: 0}, "kid": {X: 0, Y: 150}}
	c := find(t, route.Route(m, cards, config.Default()), "u:mom:single")

	if c.StemX != 580 || c.StemTopY != 70 {
		t.Errorf("stem = (%v, %v)", c.StemX, c.StemTopY)
	}
	if !c.HasConnector || c.ConnectorFromX != 80 || c.ConnectorToX != 580 {
		t.Errorf("connector = %v %v..%v", c.HasConnector, c.ConnectorFromX, c.ConnectorToX)
	}
	if c.ConnectorY != c.BranchY {
		t.Errorf("connector at %v, bus at %v", c.ConnectorY, c.BranchY)
	}
}

func twoSingles() *model.Model {
	tree := familytest.New().
		Male("a", "1900").Male("b", "1900").
		Male("c1", "1930").Male("c2", "1930").
		Child("a", "c1").Child("b", "c2").
		Tree()
	return everyone(tree, "a", false)
}

func narrow() config.Config {
	cfg := config.Default()
	cfg.CardWidth = 20
	return cfg
}

func TestRouteLaneOffset(t *testing.T) {
	cards := map[string]route.Point{
		"a": {X: 600, Y: 0}, "c1": {X: 0, Y: 150},
		"b": {X: 640, Y: 0}, "c2": {X: 590, Y: 150},
	}
	res := route.Route(twoSingles(), cards, narrow())

	first := find(t, res, "u:a:single")
	second := find(t, res, "u:b:single")
	if first.Lane != 0 || first.BranchY != 110 {
		t.Errorf("first bus lane %d at %v", first.Lane, first.BranchY)
	}
	if second.Lane != 1 || second.BranchY != 118 || second.LaneSkipped {
		t.Errorf("second bus lane %d at %v (skipped=%v)", second.Lane, second.BranchY, second.LaneSkipped)
	}
	if second.StemBottomY != second.BranchY || second.ConnectorY != second.BranchY {
		t.Error("stem and connector do not follow the bus lane")
	}
}

func TestRouteLaneSkippedOnCrossing(t *testing.T) {
	cards := map[string]route.Point{
		"a": {X: 100, Y: 0}, "c1": {X: 300, Y: 150},
		"b": {X: 400, Y: 0}, "c2": {X: 104, Y: 150},
	}
	res := route.Route(twoSingles(), cards, narrow())

	second := find(t, res, "u:b:single")
	if second.Lane != 0 || !second.LaneSkipped {
		t.Errorf("lane %d skipped=%v, want lane 0 skipped", second.Lane, second.LaneSkipped)
	}
	// The drop into c2 starts 4px from the other stem and is nudged out
	// to the clearance.
	if got := second.Drops[0].X; got != 122 {
		t.Errorf("drop x = %v, want 122", got)
	}
	if first := find(t, res, "u:a:single"); first.StemX != 110 {
		t.Errorf("stem moved to %v", first.StemX)
	}
}

// elbowDistance is the shortest distance from the point (x, y) to a stem or
// drop of a connection other than own.
func elbowDistance(res route.Result, own string, x, y float64) float64 {
	seg := func(vx, top, bottom float64) float64 {
		dy := 0.0
		switch {
		case y < top:
			dy = top - y
		case y > bottom:
			dy = y - bottom
		}
		return math.Hypot(x-vx, dy)
	}
	best := math.Inf(1)
	for _, c := range res.Connections {
		if c.UnionID == own {
			continue
		}
		best = min(best, seg(c.StemX, c.StemTopY, c.StemBottomY))
		for _, d := range c.Drops {
			best = min(best, seg(d.X, d.TopY, d.BottomY))
		}
	}
	return best
}

func TestRouteElbowClearance(t *testing.T) {
	threeKids := func() *model.Model {
		tree := familytest.New().
			Male("a", "1900").Male("b", "1900").
			Male("c1", "1930").Male("c2", "1930").Male("c3", "1932").
			Child("a", "c1").Child("b", "c2").Child("b", "c3").
			Tree()
		return everyone(tree, "a", false)
	}

	tests := []struct {
		name  string
		m     *model.Model
		cards map[string]route.Point
		union string
		elbow func(c route.Connection) float64
		want  float64
	}{
		{
			// a's drop lands 5px left of b's drop on the same bus row.
			name: "drop",
			m:    twoSingles(),
			cards: map[string]route.Point{
				"a": {X: 0, Y: 0}, "c1": {X: 190, Y: 150},
				"b": {X: 600, Y: 0}, "c2": {X: 195, Y: 150},
			},
			union: "u:a:single",
			elbow: func(c route.Connection) float64 { return c.Drops[0].X },
			want:  193,
		},
		{
			// b's bus starts 5px right of a's stem.
			name: "bus end",
			m:    threeKids(),
			cards: map[string]route.Point{
				"a": {X: 0, Y: 0}, "c1": {X: 0, Y: 150},
				"b": {X: 300, Y: 0}, "c2": {X: 5, Y: 150}, "c3": {X: 200, Y: 150},
			},
			union: "u:b:single",
			elbow: func(c route.Connection) float64 { return c.BranchLeftX },
			want:  22,
		},
		{
			// a's drop comes down from a row above and passes 5px left of
			// where b's stem meets its bus.
			name: "stem junction",
			m:    twoSingles(),
			cards: map[string]route.Point{
				"a": {X: 0, Y: -150}, "c1": {X: 395, Y: 150},
				"b": {X: 400, Y: 0}, "c2": {X: 600, Y: 150},
			},
			union: "u:a:single",
			elbow: func(c route.Connection) float64 { return c.Drops[0].X },
			want:  398,
		},
	}
	cfg := narrow()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := route.Route(tt.m, tt.cards, cfg)

			if got := tt.elbow(find(t, res, tt.union)); got != tt.want {
				t.Errorf("elbow at x %v, want %v", got, tt.want)
			}
			for _, c := range res.Connections {
				parent := strings.TrimSuffix(strings.TrimPrefix(c.UnionID, "u:"), ":single")
				if c.StemX != tt.cards[parent].X+cfg.CardWidth/2 {
					t.Errorf("%s stem moved to %v", c.UnionID, c.StemX)
				}
				elbows := []float64{c.StemX, c.BranchLeftX, c.BranchRightX}
				for _, d := range c.Drops {
					elbows = append(elbows, d.X)
				}
				for _, x := range elbows {
					if got := elbowDistance(res, c.UnionID, x, c.BranchY); got < cfg.MinEdgeClearance-1e-9 {
						t.Errorf("%s elbow at (%v, %v) is %v from another line", c.UnionID, x, c.BranchY, got)
					}
				}
			}
		})
	}
}

func TestRouteChainFan(t *testing.T) {
	m := everyone(familytest.ManyPartners(), "focus", true)
	cards := map[string]route.Point{
		"focus": {X: 0}, "w4": {X: 190}, "w3": {X: 380}, "w2": {X: 570}, "w1": {X: 760},
	}
	res := route.Route(m, cards, config.Default())

	want := map[string]float64{
		"u:focus+w4":     35,
		"chain:focus:m3": 38,
		"chain:focus:m2": 41,
		"chain:focus:m1": 44,
	}
	if len(res.SpouseLines) != len(want) {
		t.Fatalf("got %d spouse lines, want %d", len(res.SpouseLines), len(want))
	}
	for _, l := range res.SpouseLines {
		if l.Y != want[l.UnionID] {
			t.Errorf("%s at y=%v, want %v", l.UnionID, l.Y, want[l.UnionID])
		}
		if l.X1 != 80 {
			t.Errorf("%s starts at %v", l.UnionID, l.X1)
		}
	}
	// No child card is placed, so there is nothing to connect.
	if len(res.Connections) != 0 {
		t.Errorf("unexpected connections: %d", len(res.Connections))
	}
}
