package familytest

import "github.com/matzehuels/kintree/pkg/family"

// Nuclear is two parents p1 and p2 with children c1 and c2.
func Nuclear() *family.Tree {
	return New().
		Male("p1", "1950-03-01").
		Female("p2", "1952-07-12").
		Male("c1", "1975-01-20").
		Female("c2", "1978-11-02").
		Married("m1", "p1", "p2", "c1", "c2").
		Tree()
}

// AncestorChain is a straight paternal line above "focus":
// ggf+ggm -> gf, gf+gm -> f, f+m -> focus.
func AncestorChain() *family.Tree {
	return New().
		Male("ggf", "1870").Female("ggm", "1872").
		Male("gf", "1900").Female("gm", "1903").
		Male("f", "1930").Female("m", "1932").
		Male("focus", "1960").
		Married("u-gg", "ggf", "ggm", "gf").
		Married("u-g", "gf", "gm", "f").
		Married("u-p", "f", "m", "focus").
		Tree()
}

// ThreeMarriedChildren is "focus" and "spouse" with three children k1..k3,
// each married with one child of their own.
func ThreeMarriedChildren() *family.Tree {
	return New().
		Male("focus", "1940").Female("spouse", "1942").
		Female("k1", "1965").Male("k2", "1967").Female("k3", "1970").
		Male("s1", "1963").Female("s2", "1968").Male("s3", "1969").
		Male("g1", "1990").Female("g2", "1992").Male("g3", "1995").
		Married("m0", "focus", "spouse", "k1", "k2", "k3").
		Married("m1", "s1", "k1", "g1").
		Married("m2", "k2", "s2", "g2").
		Married("m3", "s3", "k3", "g3").
		Tree()
}

// BothSides gives "focus" a father and mother who each have both parents
// recorded, plus a sibling on each side of the family.
func BothSides() *family.Tree {
	return New().
		Male("pgf", "1900").Female("pgm", "1902").
		Male("mgf", "1898").Female("mgm", "1905").
		Male("f", "1930").Female("m", "1932").
		Male("uncle", "1928").Female("aunt", "1935").
		Male("focus", "1960").Female("sis", "1963").
		Married("pg", "pgf", "pgm", "uncle", "f").
		Married("mg", "mgf", "mgm", "m", "aunt").
		Married("par", "f", "m", "focus", "sis").
		Tree()
}

// Remarried gives "focus" a current wife and a divorced former wife, with
// children from both partnerships.
func Remarried() *family.Tree {
	return New().
		Male("focus", "1950").
		Female("w1", "1952").Female("w2", "1960").
		Male("a", "1975").Female("b", "1990").
		Partnership(family.Partnership{ID: "m-old", Person1ID: "focus", Person2ID: "w1",
			Status: family.StatusDivorced, StartDate: "1973", ChildIDs: []string{"a"}}).
		Partnership(family.Partnership{ID: "m-new", Person1ID: "focus", Person2ID: "w2",
			Status: family.StatusMarried, StartDate: "1988", ChildIDs: []string{"b"}}).
		Tree()
}

// ManyPartners gives "focus" four partnerships, each with one child. Only
// the last one is still active.
func ManyPartners() *family.Tree {
	b := New().Male("focus", "1950")
	for i, id := range []string{"w1", "w2", "w3", "w4"} {
		child := "c" + id[1:]
		status := family.StatusDivorced
		if i == 3 {
			status = family.StatusMarried
		}
		b.Female(id, "195"+id[1:]).Male(child, "198"+id[1:])
		b.Partnership(family.Partnership{
			ID: "m" + id[1:], Person1ID: "focus", Person2ID: id,
			Status: status, StartDate: "197" + id[1:],
			ChildIDs: []string{child},
		})
	}
	return b.Tree()
}
