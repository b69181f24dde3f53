package selection_test

import (
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
	"github.com/matzehuels/kintree/pkg/layout/selection"
)

func selectIn(t *family.Tree, focus string, opts selection.Options) *selection.Selection {
	return selection.Select(family.NewIndex(t), focus, opts)
}

func TestSelectUnknownFocus(t *testing.T) {
	sel := selectIn(familytest.Nuclear(), "nobody", selection.Options{AncestorDepth: 2, DescendantDepth: 2})
	if !sel.Empty() {
		t.Errorf("expected empty selection, got %v", sel.PersonIDs())
	}
	if len(sel.Partnerships) != 0 {
		t.Errorf("expected no partnerships, got %v", sel.PartnershipIDs())
	}
}

func TestSelectNuclear(t *testing.T) {
	sel := selectIn(familytest.Nuclear(), "p1", selection.Options{AncestorDepth: 2, DescendantDepth: 2})

	want := []string{"c1", "c2", "p1", "p2"}
	if got := sel.PersonIDs(); !slices.Equal(got, want) {
		t.Errorf("persons = %v, want %v", got, want)
	}
	if got := sel.PartnershipIDs(); !slices.Equal(got, []string{"m1"}) {
		t.Errorf("partnerships = %v, want [m1]", got)
	}
	if sel.DescendantDepth != 1 {
		t.Errorf("DescendantDepth = %d, want 1", sel.DescendantDepth)
	}
	if sel.AncestorDepth != 0 {
		t.Errorf("AncestorDepth = %d, want 0", sel.AncestorDepth)
	}
}

func TestSelectFocusAndPartnersAlwaysIncluded(t *testing.T) {
	sel := selectIn(familytest.Remarried(), "focus", selection.Options{})
	for _, id := range []string{"focus", "w1", "w2"} {
		if !sel.HasPerson(id) {
			t.Errorf("missing %s", id)
		}
	}
	for _, id := range []string{"a", "b"} {
		if sel.HasPerson(id) {
			t.Errorf("child %s selected at descendant depth 0", id)
		}
	}
	// Both partnerships were chosen with the partners.
	if got := sel.PartnershipIDs(); !slices.Equal(got, []string{"m-new", "m-old"}) {
		t.Errorf("partnerships = %v", got)
	}
}

func TestSelectAncestorDepth(t *testing.T) {
	tests := []struct {
		depth   int
		want    []string
		reached int
	}{
		{0, []string{"focus"}, 0},
		{1, []string{"f", "focus", "m"}, 1},
		{2, []string{"f", "focus", "gf", "gm", "m"}, 2},
		{3, []string{"f", "focus", "gf", "ggf", "ggm", "gm", "m"}, 3},
		{10, []string{"f", "focus", "gf", "ggf", "ggm", "gm", "m"}, 3},
	}
	for _, tt := range tests {
		sel := selectIn(familytest.AncestorChain(), "focus", selection.Options{AncestorDepth: tt.depth})
		if got := sel.PersonIDs(); !slices.Equal(got, tt.want) {
			t.Errorf("depth %d: persons = %v, want %v", tt.depth, got, tt.want)
		}
		if sel.AncestorDepth != tt.reached {
			t.Errorf("depth %d: reached %d, want %d", tt.depth, sel.AncestorDepth, tt.reached)
		}
	}
}

func TestSelectDescendantsBringSpouses(t *testing.T) {
	sel := selectIn(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 1})
	for _, id := range []string{"k1", "k2", "k3", "s1", "s2", "s3"} {
		if !sel.HasPerson(id) {
			t.Errorf("missing %s", id)
		}
	}
	for _, id := range []string{"g1", "g2", "g3"} {
		if sel.HasPerson(id) {
			t.Errorf("grandchild %s selected at depth 1", id)
		}
	}
	// Children's partnerships were chosen with their spouses even though
	// no child of theirs is visible.
	if !sel.HasPartnership("m1") {
		t.Error("m1 not selected")
	}

	sel = selectIn(familytest.ThreeMarriedChildren(), "focus", selection.Options{DescendantDepth: 2})
	if len(sel.Persons) != 11 {
		t.Errorf("got %d persons at depth 2, want 11", len(sel.Persons))
	}
	if sel.DescendantDepth != 2 {
		t.Errorf("DescendantDepth = %d, want 2", sel.DescendantDepth)
	}
}

func TestSelectSiblingsNeedAncestors(t *testing.T) {
	sel := selectIn(familytest.BothSides(), "focus", selection.Options{})
	if sel.HasPerson("sis") {
		t.Error("sibling selected with ancestor depth 0")
	}
	sel = selectIn(familytest.BothSides(), "focus", selection.Options{AncestorDepth: 1})
	if !sel.HasPerson("sis") {
		t.Error("sibling missing with ancestor depth 1")
	}
}

func TestSelectParentSiblings(t *testing.T) {
	opts := selection.Options{AncestorDepth: 1, IncludeParentSiblings: true}
	sel := selectIn(familytest.BothSides(), "focus", opts)
	if sel.HasPerson("uncle") || sel.HasPerson("aunt") {
		t.Error("aunts and uncles need ancestor depth 2")
	}

	opts.AncestorDepth = 2
	sel = selectIn(familytest.BothSides(), "focus", opts)
	for _, id := range []string{"uncle", "aunt", "pgf", "pgm", "mgf", "mgm"} {
		if !sel.HasPerson(id) {
			t.Errorf("missing %s", id)
		}
	}
}

func TestSelectCousins(t *testing.T) {
	tree := familytest.BothSides()
	// Give the aunt a husband and a daughter.
	if err := tree.AddPerson(family.Person{ID: "ah", Gender: family.GenderMale, BirthDate: "1933"}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddPerson(family.Person{ID: "cousin", BirthDate: "1962", ParentIDs: []string{"ah", "aunt"}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddPartnership(family.Partnership{ID: "am", Person1ID: "ah", Person2ID: "aunt", ChildIDs: []string{"cousin"}}); err != nil {
		t.Fatal(err)
	}

	opts := selection.Options{AncestorDepth: 2, IncludeParentSiblings: true}
	sel := selectIn(tree, "focus", opts)
	if !sel.HasPerson("ah") {
		t.Error("aunt's husband missing")
	}
	if sel.HasPerson("cousin") {
		t.Error("cousin selected without the cousin flag")
	}

	opts.IncludeParentSiblingDescendants = true
	sel = selectIn(tree, "focus", opts)
	if !sel.HasPerson("cousin") {
		t.Error("cousin missing")
	}
}

func TestSelectSpouseAncestors(t *testing.T) {
	tree := familytest.New().
		Male("focus", "1960").Female("wife", "1962").
		Male("wf", "1930").Female("wm", "1935").
		Married("wp", "wf", "wm", "wife").
		Married("m", "focus", "wife").
		Tree()

	sel := selectIn(tree, "focus", selection.Options{AncestorDepth: 1})
	if sel.HasPerson("wf") {
		t.Error("spouse's father selected without the flag")
	}
	sel = selectIn(tree, "focus", selection.Options{AncestorDepth: 1, IncludeSpouseAncestors: true})
	if !sel.HasPerson("wf") || !sel.HasPerson("wm") {
		t.Errorf("spouse's parents missing: %v", sel.PersonIDs())
	}
	if !sel.HasPartnership("wp") {
		t.Error("spouse's parents' partnership missing")
	}
}

func TestSelectSingleParentAncestors(t *testing.T) {
	// The father has a second wife, but no partnership joins the focus's
	// recorded parents, so each parent is added with their own partners.
	tree := familytest.New().
		Male("f", "1930").Female("m", "1932").Female("sm", "1940").
		Male("focus", "1960").
		Married("m2", "f", "sm").
		Tree()
	focus := tree.Persons["focus"]
	focus.ParentIDs = []string{"f", "m"}
	tree.Persons["f"].ChildIDs = []string{"focus"}
	tree.Persons["m"].ChildIDs = []string{"focus"}

	sel := selectIn(tree, "focus", selection.Options{AncestorDepth: 1})
	want := []string{"f", "focus", "m", "sm"}
	if got := sel.PersonIDs(); !slices.Equal(got, want) {
		t.Errorf("persons = %v, want %v", got, want)
	}
}

func TestSelectTerminatesOnCycles(t *testing.T) {
	tree := familytest.New().
		Male("a", "1900").Female("b", "1901").
		Married("m", "a", "b", "a").
		Tree()
	sel := selectIn(tree, "a", selection.Options{AncestorDepth: 5, DescendantDepth: 5})
	if !sel.HasPerson("a") || !sel.HasPerson("b") {
		t.Errorf("persons = %v", sel.PersonIDs())
	}
}
