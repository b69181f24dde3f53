package measure

import "slices"

// Branch is the corridor of one married child of the focus (or of a
// branch person, for nested branches) together with everything placed
// below them. Sibling branches never share horizontal space.
type Branch struct {
	ID           string
	PersonID     string
	ClusterID    string
	ParentID     string
	SiblingIndex int

	// Units are every union inside the corridor in placement order.
	Units    []string
	Children []*Branch
}

// Walk calls fn for b and every nested branch, depth first.
func (b *Branch) Walk(fn func(*Branch)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// branches splits the clusters placed under personID into branches when
// at least two of them belong to a child who has a partner and children
// of their own. Sibling indexes follow placement order.
func (w *measurer) branches(personID, parentID string) []*Branch {
	m := w.m
	cu := m.CardUnion(personID)
	if cu == "" {
		return nil
	}
	type candidate struct{ person, cluster string }
	var qualifying []candidate
	for _, uid := range m.Clusters[m.Unions[cu].ClusterID].Units {
		u := m.Unions[uid]
		if !u.HasPartner(personID) {
			continue
		}
		for _, cid := range w.ms.Blocks[uid].Children {
			child := ""
			for _, p := range m.Clusters[cid].Cards(m) {
				if pu, ok := m.ParentUnion(p); ok && pu == uid {
					child = p
					break
				}
			}
			if child != "" && w.hasFamily(child, cid) && !slices.ContainsFunc(qualifying, func(c candidate) bool { return c.cluster == cid }) {
				qualifying = append(qualifying, candidate{child, cid})
			}
		}
	}
	if len(qualifying) < 2 {
		return nil
	}

	out := make([]*Branch, 0, len(qualifying))
	for i, q := range qualifying {
		b := &Branch{
			ID:           "branch:" + q.person,
			PersonID:     q.person,
			ClusterID:    q.cluster,
			ParentID:     parentID,
			SiblingIndex: i,
			Units:        w.corridor(q.cluster, nil, make(map[string]bool)),
		}
		for _, id := range b.Units {
			w.ms.BranchOf[id] = b.ID
		}
		b.Children = w.branches(q.person, b.ID)
		out = append(out, b)
	}
	return out
}

// hasFamily reports whether personID is a partner in a couple union of
// cluster cid that has children.
func (w *measurer) hasFamily(personID, cid string) bool {
	for _, uid := range w.m.Clusters[cid].Units {
		u := w.m.Unions[uid]
		if !u.Single() && u.HasPartner(personID) && len(u.Children) > 0 {
			return true
		}
	}
	return false
}

// corridor collects the units of a cluster and of every cluster placed
// below it. Each cluster is collected once.
func (w *measurer) corridor(cid string, acc []string, seen map[string]bool) []string {
	if seen[cid] {
		return acc
	}
	seen[cid] = true
	for _, uid := range w.m.Clusters[cid].Units {
		acc = append(acc, uid)
		for _, child := range w.ms.Blocks[uid].Children {
			acc = w.corridor(child, acc, seen)
		}
	}
	return acc
}
