package family

import (
	"cmp"
	"slices"
)

// Index is a read-only view of a [Tree] with precomputed relationship
// lookups. All returned slices are fresh copies in deterministic order.
type Index struct {
	tree         *Tree
	partnerships map[string][]*Partnership // person -> partnerships, by ID
	claims       map[string][]*Partnership // child -> claiming partnerships, by ID
}

// NewIndex builds an index over t. Partnerships that reference unknown
// persons or join a person with themselves are ignored.
func NewIndex(t *Tree) *Index {
	x := &Index{
		tree:         t,
		partnerships: make(map[string][]*Partnership),
		claims:       make(map[string][]*Partnership),
	}
	for _, id := range t.PartnershipIDs() {
		p := t.Partnerships[id]
		if p == nil || p.Person1ID == p.Person2ID {
			continue
		}
		if _, ok := t.Persons[p.Person1ID]; !ok {
			continue
		}
		if _, ok := t.Persons[p.Person2ID]; !ok {
			continue
		}
		x.partnerships[p.Person1ID] = append(x.partnerships[p.Person1ID], p)
		x.partnerships[p.Person2ID] = append(x.partnerships[p.Person2ID], p)
		seen := make(map[string]bool, len(p.ChildIDs))
		for _, c := range p.ChildIDs {
			if seen[c] {
				continue
			}
			seen[c] = true
			if _, ok := t.Persons[c]; ok {
				x.claims[c] = append(x.claims[c], p)
			}
		}
	}
	return x
}

// Tree returns the indexed tree.
func (x *Index) Tree() *Tree { return x.tree }

// Person returns the person with id, or nil.
func (x *Index) Person(id string) *Person { return x.tree.Persons[id] }

// Has reports whether id names a person in the tree.
func (x *Index) Has(id string) bool {
	_, ok := x.tree.Persons[id]
	return ok
}

// Partnerships returns the valid partnerships personID takes part in.
func (x *Index) Partnerships(personID string) []*Partnership {
	return slices.Clone(x.partnerships[personID])
}

// Partners returns the distinct partners of personID in partnership order.
func (x *Index) Partners(personID string) []string {
	var out []string
	for _, p := range x.partnerships[personID] {
		if o := p.Other(personID); !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	return out
}

// Claims returns the partnerships whose child list includes childID.
func (x *Index) Claims(childID string) []*Partnership {
	return slices.Clone(x.claims[childID])
}

// Claimed reports whether any partnership claims childID.
func (x *Index) Claimed(childID string) bool {
	return len(x.claims[childID]) > 0
}

// Children returns the children of personID sorted by birth. For a person
// with partnerships these are the union of the partnerships' child lists;
// otherwise the person's own ChildIDs that list the person as a parent.
func (x *Index) Children(personID string) []string {
	var out []string
	add := func(id string) {
		if x.Has(id) && id != personID && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if ps := x.partnerships[personID]; len(ps) > 0 {
		for _, p := range ps {
			for _, c := range p.ChildIDs {
				add(c)
			}
		}
	} else if p := x.Person(personID); p != nil {
		for _, c := range p.ChildIDs {
			if cp := x.Person(c); cp != nil && cp.HasParent(personID) {
				add(c)
			}
		}
	}
	x.SortByBirth(out)
	return out
}

// Parents returns the recorded parents of childID that exist in the tree.
// When none are recorded, the partners of the first claiming partnership
// are returned instead.
func (x *Index) Parents(childID string) []string {
	var out []string
	if p := x.Person(childID); p != nil {
		for _, id := range p.ParentIDs {
			if x.Has(id) && id != childID && !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	if len(out) == 0 {
		if cs := x.claims[childID]; len(cs) > 0 {
			out = append(out, cs[0].Person1ID, cs[0].Person2ID)
		}
	}
	return out
}

// ParentPartnership returns the partnership that claims childID, preferring
// one whose partners are both recorded parents. Returns nil when no
// partnership claims the child.
func (x *Index) ParentPartnership(childID string) *Partnership {
	cs := x.claims[childID]
	if len(cs) == 0 {
		return nil
	}
	parents := x.Parents(childID)
	if len(parents) == 2 {
		for _, p := range cs {
			if p.Joins(parents[0], parents[1]) {
				return p
			}
		}
	}
	return cs[0]
}

// Siblings returns the persons claimed by any partnership of personID's
// parents, excluding personID, sorted by birth. Half-siblings are included.
func (x *Index) Siblings(personID string) []string {
	var out []string
	for _, parent := range x.Parents(personID) {
		for _, p := range x.partnerships[parent] {
			for _, c := range p.ChildIDs {
				if c != personID && x.Has(c) && !slices.Contains(out, c) {
					out = append(out, c)
				}
			}
		}
	}
	x.SortByBirth(out)
	return out
}

// SortByBirth sorts ids in place by birth date, then ID. Persons without a
// birth date sort after those with one.
func (x *Index) SortByBirth(ids []string) {
	slices.SortStableFunc(ids, x.CompareBirth)
}

// CompareBirth orders two persons by birth date, then ID.
func (x *Index) CompareBirth(a, b string) int {
	ba, bb := x.birth(a), x.birth(b)
	switch {
	case ba == "" && bb != "":
		return 1
	case ba != "" && bb == "":
		return -1
	}
	if c := cmp.Compare(ba, bb); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func (x *Index) birth(id string) string {
	if p := x.Person(id); p != nil {
		return p.BirthDate
	}
	return ""
}
