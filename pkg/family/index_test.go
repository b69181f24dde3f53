package family_test

import (
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func TestIndexChildrenFromPartnerships(t *testing.T) {
	x := family.NewIndex(familytest.Remarried())

	got := x.Children("focus")
	want := []string{"a", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("Children(focus) = %v, want %v", got, want)
	}
	if got := x.Children("w2"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Children(w2) = %v, want [b]", got)
	}
}

func TestIndexChildrenFallback(t *testing.T) {
	tree := familytest.New().
		Female("solo", "1950").
		Male("kid", "1980").
		Male("stranger", "1981").
		Child("solo", "kid").
		Tree()
	// childIds entry without the matching parentIds entry is ignored.
	tree.Persons["solo"].ChildIDs = append(tree.Persons["solo"].ChildIDs, "stranger")

	x := family.NewIndex(tree)
	if got := x.Children("solo"); !slices.Equal(got, []string{"kid"}) {
		t.Errorf("Children(solo) = %v, want [kid]", got)
	}
	if x.Claimed("kid") {
		t.Error("kid is not claimed by any partnership")
	}
}

func TestIndexSiblings(t *testing.T) {
	tree := familytest.New().
		Male("f", "1930").Female("m", "1932").Female("m2", "1940").
		Male("focus", "1960").Female("full", "1958").Male("half", "1970").Male("loose", "1965").
		Married("a", "f", "m", "focus", "full").
		Married("b", "f", "m2", "half").
		Tree()
	tree.Persons["loose"].ParentIDs = []string{"f", "m"}

	x := family.NewIndex(tree)
	got := x.Siblings("focus")
	want := []string{"full", "half"}
	if !slices.Equal(got, want) {
		t.Errorf("Siblings(focus) = %v, want %v", got, want)
	}
}

func TestIndexParentPartnership(t *testing.T) {
	x := family.NewIndex(familytest.BothSides())
	if p := x.ParentPartnership("focus"); p == nil || p.ID != "par" {
		t.Errorf("ParentPartnership(focus) = %v, want par", p)
	}
	if p := x.ParentPartnership("pgf"); p != nil {
		t.Errorf("ParentPartnership(pgf) = %v, want nil", p)
	}
}

func TestSortByBirth(t *testing.T) {
	tree := familytest.New().
		Male("z", "1990").Male("y", "").Male("x", "1980").Male("w", "1980").
		Tree()
	x := family.NewIndex(tree)

	ids := []string{"y", "z", "x", "w"}
	x.SortByBirth(ids)
	want := []string{"w", "x", "z", "y"}
	if !slices.Equal(ids, want) {
		t.Errorf("SortByBirth = %v, want %v", ids, want)
	}
}

func TestIndexIgnoresBrokenPartnerships(t *testing.T) {
	tree := familytest.Nuclear()
	tree.Partnerships["bad"] = &family.Partnership{ID: "bad", Person1ID: "p1", Person2ID: "ghost"}

	x := family.NewIndex(tree)
	if got := len(x.Partnerships("p1")); got != 1 {
		t.Errorf("Partnerships(p1) = %d, want 1", got)
	}
	if got := x.Partners("p1"); !slices.Equal(got, []string{"p2"}) {
		t.Errorf("Partners(p1) = %v", got)
	}
}
