package model_test

import (
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
	"github.com/matzehuels/kintree/pkg/layout/model"
	"github.com/matzehuels/kintree/pkg/layout/selection"
)

func build(t *testing.T, tree *family.Tree, focus string, sopts selection.Options, mopts model.Options) *model.Model {
	t.Helper()
	x := family.NewIndex(tree)
	sel := selection.Select(x, focus, sopts)
	return model.Build(x, sel, mopts)
}

func TestBuildNuclear(t *testing.T) {
	m := build(t, familytest.Nuclear(), "p1", selection.Options{DescendantDepth: 2}, model.Options{})

	u := m.Union("u:p1+p2")
	if u == nil {
		t.Fatalf("couple union missing; unions = %v", m.Order)
	}
	if u.PartnerA != "p1" || u.PartnerB != "p2" {
		t.Errorf("partners = %s, %s", u.PartnerA, u.PartnerB)
	}
	if !slices.Equal(u.Children, []string{"c1", "c2"}) {
		t.Errorf("children = %v", u.Children)
	}
	if u.PartnershipID != "m1" || u.Kind != model.KindPrimary {
		t.Errorf("union = %+v", u)
	}
	for _, c := range []string{"c1", "c2"} {
		if got := m.CardUnion(c); got != "u:"+c+":single" {
			t.Errorf("card union of %s = %q", c, got)
		}
		if got, _ := m.ParentUnion(c); got != "u:p1+p2" {
			t.Errorf("parent union of %s = %q", c, got)
		}
	}
	if len(m.Edges) != 2 {
		t.Errorf("edges = %v", m.Edges)
	}
}

func TestBuildEveryPersonOwnsOneCard(t *testing.T) {
	trees := map[string]*family.Tree{
		"nuclear":   familytest.Nuclear(),
		"chain":     familytest.AncestorChain(),
		"married":   familytest.ThreeMarriedChildren(),
		"bothsides": familytest.BothSides(),
		"remarried": familytest.Remarried(),
		"many":      familytest.ManyPartners(),
	}
	opts := selection.Options{AncestorDepth: 5, DescendantDepth: 5, IncludeParentSiblings: true}
	for name, tree := range trees {
		for _, expanded := range []bool{false, true} {
			m := build(t, tree, "focus", opts, model.Options{Expanded: expanded})
			if name == "nuclear" {
				m = build(t, tree, "p1", opts, model.Options{Expanded: expanded})
			}
			owners := make(map[string]int)
			for _, id := range m.Order {
				for _, c := range m.Unions[id].Cards() {
					owners[c]++
				}
			}
			for _, p := range m.PersonIDs() {
				if owners[p] != 1 {
					t.Errorf("%s (expanded=%v): %s owns %d cards", name, expanded, p, owners[p])
				}
			}
			for _, cid := range m.ClusterIDs() {
				c := m.Clusters[cid]
				if !slices.Contains(c.Units, cid) {
					t.Errorf("%s: cluster %s lacks its primary", name, cid)
				}
			}
		}
	}
}

func TestBuildPartnerOrder(t *testing.T) {
	// Female listed first still ends up on the right.
	tree := familytest.New().
		Female("a", "1950").Male("z", "1948").Male("kid", "1970").
		Married("m", "a", "z", "kid").
		Tree()
	m := build(t, tree, "a", selection.Options{DescendantDepth: 1}, model.Options{})
	u := m.Union("u:a+z")
	if u == nil || u.PartnerA != "z" || u.PartnerB != "a" {
		t.Fatalf("union = %+v", u)
	}

	// Same gender falls back to ID order.
	tree = familytest.New().
		Female("b", "1950").Female("a", "1951").
		Married("m", "b", "a").
		Tree()
	m = build(t, tree, "b", selection.Options{}, model.Options{})
	if u := m.Union("u:a+b"); u == nil || u.PartnerA != "a" {
		t.Fatalf("union = %+v", u)
	}
}

func TestBuildSecondaryUnion(t *testing.T) {
	m := build(t, familytest.Remarried(), "focus", selection.Options{DescendantDepth: 1}, model.Options{})

	primary := m.Union("u:focus+w2")
	if primary == nil || primary.Kind != model.KindPrimary {
		t.Fatalf("active marriage should be primary; unions = %v", m.Order)
	}
	sec := m.Union("u:focus+w1")
	if sec == nil || sec.Kind != model.KindSecondary {
		t.Fatalf("secondary = %+v", sec)
	}
	if sec.Shared != "focus" || sec.Side != model.SideRight {
		t.Errorf("shared = %s side = %v", sec.Shared, sec.Side)
	}
	if !slices.Equal(sec.Cards(), []string{"w1"}) {
		t.Errorf("secondary cards = %v", sec.Cards())
	}
	if !slices.Equal(sec.Children, []string{"a"}) {
		t.Errorf("secondary children = %v", sec.Children)
	}

	c := m.ClusterOf("u:focus+w1")
	if c == nil || c.ID != "u:focus+w2" {
		t.Fatalf("cluster = %+v", c)
	}
	if got := c.Cards(m); !slices.Equal(got, []string{"focus", "w2", "w1"}) {
		t.Errorf("cluster cards = %v", got)
	}
	if got := m.PartnerUnions("focus"); !slices.Equal(got, []string{"u:focus+w2", "u:focus+w1"}) {
		t.Errorf("partner unions = %v", got)
	}
}

func TestBuildSecondaryOnTheLeft(t *testing.T) {
	// The shared person is partner B, so the new partner goes left.
	tree := familytest.New().
		Female("focus", "1950").Male("h1", "1948").Male("h2", "1947").
		Partnership(family.Partnership{ID: "a", Person1ID: "focus", Person2ID: "h1", Status: family.StatusMarried}).
		Partnership(family.Partnership{ID: "b", Person1ID: "focus", Person2ID: "h2", Status: family.StatusDivorced}).
		Tree()
	m := build(t, tree, "focus", selection.Options{}, model.Options{})
	c := m.ClusterOf("u:focus+h1")
	if got := c.Cards(m); !slices.Equal(got, []string{"h2", "h1", "focus"}) {
		t.Errorf("cluster cards = %v", got)
	}
	if u := m.Union("u:focus+h2"); u.Side != model.SideLeft {
		t.Errorf("side = %v", u.Side)
	}
}

func TestBuildFocusParentsFirst(t *testing.T) {
	// The father's other partnership is flagged primary, but the couple
	// the focus descends from still gets the primary union.
	tree := familytest.New().
		Male("f", "1930").Female("m", "1932").Female("other", "1931").
		Male("focus", "1960").Male("half", "1958").
		Partnership(family.Partnership{ID: "z", Person1ID: "f", Person2ID: "m", Status: family.StatusMarried, ChildIDs: []string{"focus"}}).
		Partnership(family.Partnership{ID: "a", Person1ID: "f", Person2ID: "other", Status: family.StatusMarried, IsPrimary: true, ChildIDs: []string{"half"}}).
		Tree()
	m := build(t, tree, "focus", selection.Options{AncestorDepth: 1}, model.Options{})
	if u := m.Union("u:f+m"); u == nil || u.Kind != model.KindPrimary {
		t.Fatalf("u:f+m = %+v", u)
	}
	if u := m.Union("u:f+other"); u == nil || u.Kind != model.KindSecondary {
		t.Fatalf("u:f+other = %+v", u)
	}
}

func TestBuildChildrenByBirth(t *testing.T) {
	tree := familytest.New().
		Male("f", "1930").Female("m", "1932").
		Male("late", "").Male("young", "1965").Male("old", "1960").
		Married("p", "f", "m", "late", "young", "old").
		Tree()
	m := build(t, tree, "f", selection.Options{DescendantDepth: 1}, model.Options{})
	if got := m.Union("u:f+m").Children; !slices.Equal(got, []string{"old", "young", "late"}) {
		t.Errorf("children = %v", got)
	}
}

func TestBuildSingleParentChildren(t *testing.T) {
	tree := familytest.New().
		Female("mom", "1940").Male("kid", "1965").
		Child("mom", "kid").
		Tree()
	m := build(t, tree, "mom", selection.Options{DescendantDepth: 1}, model.Options{})
	u := m.Union("u:mom:single")
	if u == nil || !u.Single() {
		t.Fatalf("single union = %+v", u)
	}
	if !slices.Equal(u.Children, []string{"kid"}) {
		t.Errorf("children = %v", u.Children)
	}
}

func TestBuildExpandedChains(t *testing.T) {
	m := build(t, familytest.ManyPartners(), "focus", selection.Options{DescendantDepth: 1}, model.Options{})
	if m.Union("chain:focus:m1") != nil {
		t.Fatal("chain unions built without expanded mode")
	}
	if got := m.ClusterOf("u:focus+w4").Cards(m); !slices.Equal(got, []string{"focus", "w4", "w3", "w2", "w1"}) {
		t.Errorf("cluster cards = %v", got)
	}

	m = build(t, familytest.ManyPartners(), "focus", selection.Options{DescendantDepth: 1}, model.Options{Expanded: true})
	want := map[string]int{"chain:focus:m3": 1, "chain:focus:m2": 2, "chain:focus:m1": 3}
	for id, idx := range want {
		u := m.Union(id)
		if u == nil {
			t.Fatalf("missing %s; unions = %v", id, m.Order)
		}
		if u.Kind != model.KindChain || u.ChainOwner != "focus" || u.ChainIndex != idx {
			t.Errorf("%s = %+v", id, u)
		}
	}
	if got, _ := m.ParentUnion("c1"); got != "chain:focus:m1" {
		t.Errorf("parent of c1 = %q", got)
	}
	if got := m.CardUnion("w1"); got != "chain:focus:m1" {
		t.Errorf("card of w1 = %q", got)
	}
	for _, e := range m.Edges {
		if m.Union(e.From) == nil {
			t.Errorf("edge from unknown union %s", e.From)
		}
	}
}

func TestBuildExpandedChainsOnSecondaryPartner(t *testing.T) {
	married := func(id, a, c, start string) family.Partnership {
		return family.Partnership{ID: id, Person1ID: a, Person2ID: c, Status: family.StatusMarried, StartDate: start}
	}
	tree := familytest.New().
		Male("x", "1960").Female("y", "1962").Male("z", "1958").
		Female("w1", "1950").Female("w2", "1948").
		Partnership(married("xy", "x", "y", "1990")).
		Partnership(married("yz", "y", "z", "1980")).
		Partnership(married("zw1", "z", "w1", "1970")).
		Partnership(married("zw2", "z", "w2", "1960")).
		Tree()
	sel := &selection.Selection{
		FocusID:      "x",
		Persons:      map[string]bool{"x": true, "y": true, "z": true, "w1": true, "w2": true},
		Partnerships: map[string]bool{"xy": true, "yz": true, "zw1": true, "zw2": true},
	}
	m := model.Build(family.NewIndex(tree), sel, model.Options{Expanded: true})

	if u := m.Union("u:y+z"); u == nil || u.Kind != model.KindSecondary {
		t.Errorf("u:y+z = %+v, want a plain secondary", u)
	}
	for id, idx := range map[string]int{"chain:z:zw1": 1, "chain:z:zw2": 2} {
		u := m.Union(id)
		if u == nil {
			t.Fatalf("missing %s; unions = %v", id, m.Order)
		}
		if u.ChainOwner != "z" || u.ChainIndex != idx {
			t.Errorf("%s = %+v", id, u)
		}
	}
	if got := m.CardUnion("w2"); got != "chain:z:zw2" {
		t.Errorf("card of w2 = %q", got)
	}
}

func TestBuildDuplicatePartnershipMerges(t *testing.T) {
	tree := familytest.New().
		Male("a", "1950").Female("b", "1951").Male("k1", "1970").Male("k2", "1980").
		Partnership(family.Partnership{ID: "first", Person1ID: "a", Person2ID: "b", Status: family.StatusDivorced, StartDate: "1969", ChildIDs: []string{"k1"}}).
		Partnership(family.Partnership{ID: "second", Person1ID: "a", Person2ID: "b", Status: family.StatusMarried, StartDate: "1979", ChildIDs: []string{"k2"}}).
		Tree()
	m := build(t, tree, "a", selection.Options{DescendantDepth: 1}, model.Options{})
	u := m.Union("u:a+b")
	if u == nil || u.PartnershipID != "second" {
		t.Fatalf("union = %+v", u)
	}
	if !slices.Equal(u.Children, []string{"k1", "k2"}) {
		t.Errorf("children = %v", u.Children)
	}
	if len(m.Clusters) != 3 {
		t.Errorf("clusters = %v", m.ClusterIDs())
	}
}
