// Package model turns a selected part of a family tree into unions: the
// unit that owns the cards of a couple (or a single parent) and the
// children that descend from it.
//
// Every visible person owns exactly one card, held by exactly one union.
// A person with several partnerships keeps their card in the first union
// built for them; later partnerships become secondary unions that only own
// the new partner's card and sit next to the first union in a cluster.
package model

import (
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
)

// Kind is the role a union plays inside its cluster.
type Kind int

const (
	// KindPrimary owns the cards of both partners, or of a single parent.
	KindPrimary Kind = iota
	// KindSecondary owns only the card of a partner new to the cluster.
	KindSecondary
	// KindChain is a secondary union in expanded mode, where a person with
	// three or more partnerships shows all of them side by side.
	KindChain
)

func (k Kind) String() string {
	switch k {
	case KindSecondary:
		return "secondary"
	case KindChain:
		return "chain"
	default:
		return "primary"
	}
}

// Side is where a secondary union sits relative to the shared person.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

// Union is a couple or single parent together with their children.
type Union struct {
	ID            string
	PartnerA      string
	PartnerB      string // empty for a single parent
	PartnershipID string // empty for a single parent
	Status        family.Status
	Kind          Kind

	// Shared is the partner whose card is owned by another union of the
	// same cluster. Only set for secondary and chain unions.
	Shared string
	Side   Side

	// ChainOwner and ChainIndex identify chain unions. Index 1 is the
	// highest-priority partnership after the primary one.
	ChainOwner string
	ChainIndex int

	ClusterID string
	Children  []string
}

// Single reports whether the union has one partner.
func (u *Union) Single() bool { return u.PartnerB == "" }

// Secondary reports whether the union borrows one partner's card.
func (u *Union) Secondary() bool { return u.Kind != KindPrimary }

// Partners returns the partners left to right.
func (u *Union) Partners() []string {
	if u.Single() {
		return []string{u.PartnerA}
	}
	return []string{u.PartnerA, u.PartnerB}
}

// HasPartner reports whether id is a partner of u.
func (u *Union) HasPartner(id string) bool {
	return id != "" && (u.PartnerA == id || u.PartnerB == id)
}

// NewPartner returns the partner whose card a secondary union owns.
func (u *Union) NewPartner() string {
	if u.Shared == u.PartnerA {
		return u.PartnerB
	}
	return u.PartnerA
}

// Cards returns the persons whose cards u owns, left to right.
func (u *Union) Cards() []string {
	if u.Secondary() {
		return []string{u.NewPartner()}
	}
	return u.Partners()
}

// Cluster is a primary union with the secondary unions attached to it,
// left to right. Its ID is the primary union's ID.
type Cluster struct {
	ID    string
	Units []string
}

// Edge links a union to one of its children.
type Edge struct {
	From string
	To   string
}

// Model is the union graph of a selection.
type Model struct {
	FocusID  string
	Expanded bool
	Index    *family.Index

	Persons  map[string]*family.Person
	Unions   map[string]*Union
	Clusters map[string]*Cluster
	// Order lists union IDs in build order, which is partnership priority
	// followed by single parents by ID.
	Order []string
	Edges []Edge

	card      map[string]string
	parent    map[string]string
	partnerOf map[string][]string
}

// Union returns the union with id, or nil.
func (m *Model) Union(id string) *Union { return m.Unions[id] }

// CardUnion returns the union that owns personID's card.
func (m *Model) CardUnion(personID string) string { return m.card[personID] }

// ParentUnion returns the union personID descends from, if visible.
func (m *Model) ParentUnion(personID string) (string, bool) {
	u, ok := m.parent[personID]
	return u, ok
}

// PartnerUnions returns every union personID is a partner in, in build
// order. This includes secondary unions where the person's card lives
// elsewhere.
func (m *Model) PartnerUnions(personID string) []string {
	return slices.Clone(m.partnerOf[personID])
}

// ClusterOf returns the cluster a union belongs to.
func (m *Model) ClusterOf(unionID string) *Cluster {
	if u := m.Unions[unionID]; u != nil {
		return m.Clusters[u.ClusterID]
	}
	return nil
}

// PersonIDs returns the visible persons in ascending order.
func (m *Model) PersonIDs() []string { return slices.Sorted(maps.Keys(m.Persons)) }

// ClusterIDs returns the cluster IDs in ascending order.
func (m *Model) ClusterIDs() []string { return slices.Sorted(maps.Keys(m.Clusters)) }

// Cards returns the persons of a cluster left to right.
func (c *Cluster) Cards(m *Model) []string {
	var out []string
	for _, id := range c.Units {
		out = append(out, m.Unions[id].Cards()...)
	}
	return out
}
