package solve_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/place"
	"github.com/matzehuels/kintree/pkg/layout/selection"
	"github.com/matzehuels/kintree/pkg/layout/solve"
)

type fixture struct {
	m   *model.Model
	g   *generation.Generations
	ms  *measure.Measurement
	geo place.Geometry
	s   *solve.Solver
	pos place.Positions
}

func setup(tree *family.Tree, focus string, opts selection.Options) fixture {
	cfg := config.Default()
	x := family.NewIndex(tree)
	m := model.Build(x, selection.Select(x, focus, opts), model.Options{})
	g := generation.Assign(m)
	ms := measure.Measure(m, g, cfg)
	return fixture{
		m: m, g: g, ms: ms,
		geo: place.Geometry{M: m, Cfg: cfg},
		s:   solve.New(m, g, ms, cfg),
		pos: place.Place(m, g, ms, cfg),
	}
}

func bothGrandparents() *family.Tree {
	return familytest.New().
		Male("pgf", "1900").Female("pgm", "1902").
		Male("mgf", "1898").Female("mgm", "1905").
		Male("f", "1930").Female("m", "1932").
		Male("focus", "1960").
		Married("pg", "pgf", "pgm", "f").
		Married("mg", "mgf", "mgm", "m").
		Married("par", "f", "m", "focus").
		Tree()
}

func TestPhaseANoOverlap(t *testing.T) {
	f := setup(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 2})
	locked := f.s.PhaseA(f.pos)
	if !locked.Converged() {
		t.Errorf("phase A did not converge in %d iterations", locked.Iterations())
	}

	pos := locked.Positions()
	cards := f.geo.Cards(pos)
	for _, a := range f.m.PersonIDs() {
		for _, b := range f.m.PersonIDs() {
			if a >= b || f.g.Person(a) != f.g.Person(b) {
				continue
			}
			if math.Abs(cards[a]-cards[b]) < 160 {
				t.Errorf("%s at %v overlaps %s at %v", a, cards[a], b, cards[b])
			}
		}
	}
}

func TestPhaseABranchesSeparated(t *testing.T) {
	f := setup(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 2})
	pos := f.s.PhaseA(f.pos).Positions()

	prevHi := math.Inf(-1)
	for _, b := range f.ms.Branches {
		lo, hi := f.s.BranchExtent(pos, b)
		if lo < prevHi+30 {
			t.Errorf("branch %s starts at %v, previous ends at %v", b.ID, lo, prevHi)
		}
		prevHi = hi
	}
}

func TestPhaseACentersParents(t *testing.T) {
	f := setup(familytest.Nuclear(), "p1", selection.Options{DescendantDepth: 1})
	pos := f.s.PhaseA(f.pos).Positions()

	c1, _ := f.geo.CardCenter(pos, "c1")
	c2, _ := f.geo.CardCenter(pos, "c2")
	if mid := f.geo.Center(pos, "u:p1+p2"); mid != (c1+c2)/2 {
		t.Errorf("parents centered at %v, children span center %v", mid, (c1+c2)/2)
	}
}

func TestLockedIsACopy(t *testing.T) {
	f := setup(familytest.Nuclear(), "p1", selection.Options{DescendantDepth: 1})
	locked := f.s.PhaseA(f.pos)

	before, _ := locked.X("u:p1+p2")
	pos := locked.Positions()
	pos["u:p1+p2"] += 1000
	if after, _ := locked.X("u:p1+p2"); after != before {
		t.Errorf("locked position changed from %v to %v", before, after)
	}
}

func TestPhaseBLeavesLockedUntouched(t *testing.T) {
	f := setup(familytest.BothSides(), "focus", selection.Options{AncestorDepth: 2, IncludeParentSiblings: true})
	locked := f.s.PhaseA(f.pos)
	before := locked.Positions()

	anc := f.s.PhaseB(locked)
	if diff := cmp.Diff(before, locked.Positions()); diff != "" {
		t.Errorf("phase B changed locked positions (-before +after):\n%s", diff)
	}
	for id := range anc {
		if _, ok := locked.X(id); ok {
			t.Errorf("phase B returned locked union %s", id)
		}
	}
	merged := solve.Merge(locked, anc)
	if len(merged) != len(f.m.Unions) {
		t.Errorf("merged %d positions, want %d", len(merged), len(f.m.Unions))
	}
}

func TestPhaseBAxisContainment(t *testing.T) {
	f := setup(bothGrandparents(), "focus", selection.Options{AncestorDepth: 2})
	locked := f.s.PhaseA(f.pos)
	axis, ok := f.s.Axis(locked)
	if !ok {
		t.Fatal("no axis")
	}
	if axis != 175 {
		t.Errorf("axis = %v, want 175", axis)
	}

	pos := solve.Merge(locked, f.s.PhaseB(locked))
	if right := pos["u:pgf+pgm"] + 350; right > axis-15 {
		t.Errorf("paternal grandparents end at %v, past %v", right, axis-15)
	}
	if left := pos["u:mgf+mgm"]; left < axis+15 {
		t.Errorf("maternal grandparents start at %v, before %v", left, axis+15)
	}
}

func TestPhaseBPaternalLine(t *testing.T) {
	f := setup(familytest.AncestorChain(), "focus", selection.Options{AncestorDepth: 3})
	locked := f.s.PhaseA(f.pos)
	pos := solve.Merge(locked, f.s.PhaseB(locked))

	// Only the father's line continues upward; all of it stays left of the
	// axis.
	axis, _ := f.s.Axis(locked)
	for _, id := range []string{"u:gf+gm", "u:ggf+ggm"} {
		if right := pos[id] + 350; right > axis-15 {
			t.Errorf("%s ends at %v, past %v", id, right, axis-15)
		}
	}
	if pos["u:ggf+ggm"] > pos["u:gf+gm"] {
		t.Errorf("great-grandparents at %v right of grandparents at %v", pos["u:ggf+ggm"], pos["u:gf+gm"])
	}
}

func TestPhaseADeterministic(t *testing.T) {
	a := setup(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 2})
	b := setup(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 2})
	if diff := cmp.Diff(a.s.PhaseA(a.pos).Positions(), b.s.PhaseA(b.pos).Positions()); diff != "" {
		t.Errorf("phase A not deterministic (-a +b):\n%s", diff)
	}
}
