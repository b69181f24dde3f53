package model

import (
	"cmp"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout/selection"
)

// Options controls how unions are built.
type Options struct {
	// Expanded turns the secondary unions of a person with three or more
	// partnerships into chain unions.
	Expanded bool
}

type builder struct {
	x   *family.Index
	sel *selection.Selection
	m   *Model

	pair map[[2]string]string // ordered partner pair -> union
}

// Build creates the union graph for sel. Partnerships are processed in
// priority order so that the first union a person lands in is the one
// that matters most to the focus.
func Build(x *family.Index, sel *selection.Selection, opts Options) *Model {
	m := &Model{
		FocusID:   sel.FocusID,
		Expanded:  opts.Expanded,
		Index:     x,
		Persons:   make(map[string]*family.Person, len(sel.Persons)),
		Unions:    make(map[string]*Union),
		Clusters:  make(map[string]*Cluster),
		card:      make(map[string]string),
		parent:    make(map[string]string),
		partnerOf: make(map[string][]string),
	}
	for id := range sel.Persons {
		m.Persons[id] = x.Person(id)
	}
	b := &builder{x: x, sel: sel, m: m, pair: make(map[[2]string]string)}

	for _, p := range b.partnerships() {
		b.addPartnership(p)
	}
	for _, id := range m.PersonIDs() {
		if _, ok := m.card[id]; !ok {
			b.addSingle(id)
		}
	}
	b.adoptOrphans()
	if opts.Expanded {
		b.chain()
	}
	b.finish()
	return m
}

// partnerships returns the visible partnerships in priority order: the
// focus's parents first, then primary, active, most recent, and by ID.
func (b *builder) partnerships() []*family.Partnership {
	var fa, fb string
	if parents := b.x.Parents(b.sel.FocusID); len(parents) == 2 {
		fa, fb = parents[0], parents[1]
	}
	tree := b.x.Tree()
	var out []*family.Partnership
	for _, id := range b.sel.PartnershipIDs() {
		p := tree.Partnerships[id]
		if p == nil || p.Person1ID == p.Person2ID || !b.sel.HasPerson(p.Person1ID) || !b.sel.HasPerson(p.Person2ID) {
			continue
		}
		out = append(out, p)
	}
	rank := func(ok bool) int {
		if ok {
			return 0
		}
		return 1
	}
	slices.SortStableFunc(out, func(p, q *family.Partnership) int {
		if fa != "" {
			if c := cmp.Compare(rank(p.Joins(fa, fb)), rank(q.Joins(fa, fb))); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(rank(p.IsPrimary), rank(q.IsPrimary)); c != 0 {
			return c
		}
		if c := cmp.Compare(rank(p.Status.Active()), rank(q.Status.Active())); c != 0 {
			return c
		}
		if c := compareStartDesc(p.StartDate, q.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(p.ID, q.ID)
	})
	return out
}

// compareStartDesc orders newer dates first and missing dates last.
func compareStartDesc(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmp.Compare(b, a)
}

// orderPartners puts the male partner on the left when genders differ,
// otherwise the lower ID.
func (b *builder) orderPartners(p, q string) (string, string) {
	pm := b.isMale(p)
	qm := b.isMale(q)
	switch {
	case pm && !qm:
		return p, q
	case qm && !pm:
		return q, p
	case q < p:
		return q, p
	}
	return p, q
}

func (b *builder) isMale(id string) bool {
	person := b.m.Persons[id]
	return person != nil && person.Gender == family.GenderMale
}

func pairKey(a, c string) [2]string {
	if c < a {
		a, c = c, a
	}
	return [2]string{a, c}
}

func coupleID(a, c string) string {
	k := pairKey(a, c)
	return "u:" + k[0] + "+" + k[1]
}

func (b *builder) addPartnership(p *family.Partnership) {
	pa, pb := b.orderPartners(p.Person1ID, p.Person2ID)
	key := pairKey(pa, pb)
	if id, ok := b.pair[key]; ok {
		b.claim(id, p.ChildIDs)
		return
	}

	ua, okA := b.m.card[pa]
	_, okB := b.m.card[pb]
	switch {
	case !okA && !okB:
		u := b.newUnion(coupleID(pa, pb), pa, pb, p)
		u.ClusterID = u.ID
		b.m.Clusters[u.ID] = &Cluster{ID: u.ID, Units: []string{u.ID}}
		b.m.card[pa], b.m.card[pb] = u.ID, u.ID
		b.pair[key] = u.ID
		b.claim(u.ID, p.ChildIDs)
	case okA && okB:
		// Both already have cards: their children join the union holding
		// partner A, which was built for a higher-priority partnership.
		b.pair[key] = ua
		b.claim(ua, p.ChildIDs)
	case okA:
		b.addSecondary(pa, pb, pa, SideRight, p)
	default:
		b.addSecondary(pa, pb, pb, SideLeft, p)
	}
}

// addSecondary attaches a partnership where only shared already has a
// card. The new partner's card goes next to the shared person's unit, on
// the side that keeps partner A left of partner B.
func (b *builder) addSecondary(pa, pb, shared string, side Side, p *family.Partnership) {
	u := b.newUnion(coupleID(pa, pb), pa, pb, p)
	u.Kind = KindSecondary
	u.Shared = shared
	u.Side = side

	host := b.m.Unions[b.m.card[shared]]
	u.ClusterID = host.ClusterID
	c := b.m.Clusters[host.ClusterID]
	pos := slices.Index(c.Units, host.ID)
	if side == SideRight {
		j := pos + 1
		for j < len(c.Units) && b.m.Unions[c.Units[j]].Shared == shared {
			j++
		}
		c.Units = slices.Insert(c.Units, j, u.ID)
	} else {
		j := pos
		for j > 0 && b.m.Unions[c.Units[j-1]].Shared == shared {
			j--
		}
		c.Units = slices.Insert(c.Units, j, u.ID)
	}

	b.m.card[u.NewPartner()] = u.ID
	b.pair[pairKey(pa, pb)] = u.ID
	b.claim(u.ID, p.ChildIDs)
}

func (b *builder) addSingle(id string) {
	u := b.newUnion("u:"+id+":single", id, "", nil)
	u.ClusterID = u.ID
	b.m.Clusters[u.ID] = &Cluster{ID: u.ID, Units: []string{u.ID}}
	b.m.card[id] = u.ID

	var children []string
	if p := b.m.Persons[id]; p != nil {
		for _, c := range p.ChildIDs {
			if cp := b.m.Persons[c]; cp != nil && cp.HasParent(id) {
				children = append(children, c)
			}
		}
	}
	b.claim(u.ID, children)
}

// adoptOrphans attaches visible children whose claiming partnership is not
// visible to the union of a visible parent, preferring a single-parent
// union.
func (b *builder) adoptOrphans() {
	for _, id := range b.m.PersonIDs() {
		if _, ok := b.m.parent[id]; ok {
			continue
		}
		var target string
		for _, parent := range b.x.Parents(id) {
			uid, ok := b.m.card[parent]
			if !ok {
				continue
			}
			if b.m.Unions[uid].Single() {
				target = uid
				break
			}
			if target == "" {
				target = uid
			}
		}
		if target != "" {
			b.claim(target, []string{id})
		}
	}
}

func (b *builder) newUnion(id, pa, pb string, p *family.Partnership) *Union {
	u := &Union{ID: id, PartnerA: pa, PartnerB: pb}
	if p != nil {
		u.PartnershipID = p.ID
		u.Status = p.Status
	}
	b.m.Unions[id] = u
	b.m.Order = append(b.m.Order, id)
	return u
}

// claim gives each visible, unclaimed child to the union. The first claim
// wins.
func (b *builder) claim(unionID string, children []string) {
	u := b.m.Unions[unionID]
	for _, c := range children {
		if !b.sel.HasPerson(c) || u.HasPartner(c) {
			continue
		}
		if _, taken := b.m.parent[c]; taken {
			continue
		}
		b.m.parent[c] = unionID
		u.Children = append(u.Children, c)
	}
}

// chain renames the secondary unions of clusters that contain a person with
// three or more visible partnerships. When both partners of the primary
// union have several partnerships, their chains merge under partner A.
// Otherwise a secondary partner with three or more partnerships chains the
// unions attached to their own card.
func (b *builder) chain() {
	count := make(map[string]int)
	for _, id := range b.m.Order {
		u := b.m.Unions[id]
		if u.PartnershipID == "" {
			continue
		}
		count[u.PartnerA]++
		count[u.PartnerB]++
	}
	for _, cid := range b.m.ClusterIDs() {
		c := b.m.Clusters[cid]
		primary := b.m.Unions[cid]
		if len(c.Units) < 2 || primary.Single() {
			continue
		}
		var secondaries []string
		for _, id := range b.m.Order {
			if u := b.m.Unions[id]; u.ClusterID == cid && u.Secondary() {
				secondaries = append(secondaries, id)
			}
		}

		a, p := primary.PartnerA, primary.PartnerB
		if count[a] >= 3 || count[p] >= 3 {
			owner := a
			if count[a] < 2 {
				owner = p
			}
			for i, id := range secondaries {
				b.chainUnion(id, owner, i+1)
			}
			continue
		}
		index := make(map[string]int)
		for _, id := range secondaries {
			if shared := b.m.Unions[id].Shared; count[shared] >= 3 {
				index[shared]++
				b.chainUnion(id, shared, index[shared])
			}
		}
	}
}

func (b *builder) chainUnion(id, owner string, index int) {
	u := b.m.Unions[id]
	u.Kind = KindChain
	u.ChainOwner = owner
	u.ChainIndex = index
	b.rename(id, "chain:"+owner+":"+u.PartnershipID)
}

func (b *builder) rename(old, id string) {
	u := b.m.Unions[old]
	delete(b.m.Unions, old)
	u.ID = id
	b.m.Unions[id] = u
	replace := func(s []string) {
		if i := slices.Index(s, old); i >= 0 {
			s[i] = id
		}
	}
	replace(b.m.Order)
	replace(b.m.Clusters[u.ClusterID].Units)
	for k, v := range b.m.card {
		if v == old {
			b.m.card[k] = id
		}
	}
	for k, v := range b.m.parent {
		if v == old {
			b.m.parent[k] = id
		}
	}
}

// finish sorts children and derives edges and partner lookups.
func (b *builder) finish() {
	for _, id := range b.m.Order {
		u := b.m.Unions[id]
		b.x.SortByBirth(u.Children)
		for _, partner := range u.Partners() {
			b.m.partnerOf[partner] = append(b.m.partnerOf[partner], id)
		}
		for _, c := range u.Children {
			b.m.Edges = append(b.m.Edges, Edge{From: id, To: c})
		}
	}
}
