// Package measure organizes unions into the placement forest and computes
// the width every subtree needs.
//
// Layout is split into two regions. Region A holds generation -1 and below
// it (the focus's parents, aunts and uncles, the focus and all
// descendants) and is placed as a forest of clusters. Region B holds the
// ancestors from generation -2 upward and is placed afterwards around the
// locked region A.
package measure

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/model"
)

// InRegionA reports whether a generation is placed by the first solver
// phase.
func InRegionA(gen int) bool { return gen >= -1 }

// Side tags a block by where it sits relative to the focus.
type Side int

const (
	SideBoth Side = iota
	SideAncestor
	SideDescendant
)

func (s Side) String() string {
	switch s {
	case SideAncestor:
		return "ancestor"
	case SideDescendant:
		return "descendant"
	default:
		return "both"
	}
}

// Lineage classifies an ancestor union by which parent of the focus it
// descends to.
type Lineage int

const (
	LineageOther Lineage = iota
	LineagePaternal
	LineageMaternal
)

// Block is the measured footprint of one union.
type Block struct {
	UnionID    string
	Generation int
	Side       Side

	// CoupleWidth spans the cards the union owns.
	CoupleWidth float64
	// Width is the widest of CoupleWidth and the union's children laid
	// side by side.
	Width float64
	// EnvelopeWidth is the whole cluster's width for a primary union and
	// Width for every other union.
	EnvelopeWidth float64

	// Children are the region A clusters placed under this union,
	// identified by their primary union. Region B blocks have none.
	Children []string
	BranchID string
}

// Measurement is the output of [Measure].
type Measurement struct {
	Blocks map[string]*Block

	// Parent maps a region A cluster to the union it hangs under.
	Parent map[string]string
	// Roots are the region A clusters without a parent, left to right.
	Roots []string
	// Ancestors are the region B unions in build order.
	Ancestors []string
	Lineage   map[string]Lineage

	// FocusParents is the union the focus descends from, if visible.
	FocusParents string
	Paternal     string
	Maternal     string

	Branches []*Branch
	BranchOf map[string]string

	// Warnings lists clusters that could not hang under their parents'
	// union because it would have placed them below themselves.
	Warnings []string
}

// ChildClusters returns the clusters placed under a union, left to right.
func (ms *Measurement) ChildClusters(unionID string) []string {
	if b := ms.Blocks[unionID]; b != nil {
		return b.Children
	}
	return nil
}

type measurer struct {
	m   *model.Model
	g   *generation.Generations
	cfg config.Config
	ms  *Measurement

	measured map[string]bool
}

// Measure builds the placement forest, measures every block and marks
// branch corridors below the focus.
func Measure(m *model.Model, g *generation.Generations, cfg config.Config) *Measurement {
	ms := &Measurement{
		Blocks:   make(map[string]*Block, len(m.Unions)),
		Parent:   make(map[string]string),
		Lineage:  make(map[string]Lineage),
		BranchOf: make(map[string]string),
	}
	w := &measurer{m: m, g: g, cfg: cfg, ms: ms, measured: make(map[string]bool)}

	for _, id := range m.Order {
		u := m.Unions[id]
		gen := g.Union(id)
		n := float64(len(u.Cards()))
		b := &Block{
			UnionID:     id,
			Generation:  gen,
			CoupleWidth: n*cfg.CardWidth + (n-1)*cfg.HorizontalGap,
		}
		switch {
		case gen < 0:
			b.Side = SideAncestor
		case gen > 0:
			b.Side = SideDescendant
		}
		ms.Blocks[id] = b
		if !InRegionA(gen) {
			ms.Ancestors = append(ms.Ancestors, id)
		}
	}

	if fp, ok := m.ParentUnion(m.FocusID); ok {
		ms.FocusParents = fp
		u := m.Unions[fp]
		ms.Paternal, ms.Maternal = u.PartnerA, u.PartnerB
	}

	w.forest()
	w.roots()
	for _, id := range m.Order {
		w.width(id)
	}
	for _, id := range m.Order {
		b := ms.Blocks[id]
		b.EnvelopeWidth = b.Width
		if c := m.Clusters[id]; c != nil && InRegionA(b.Generation) {
			b.EnvelopeWidth = w.envelope(id)
		}
	}
	w.lineage()
	ms.Branches = w.branches(m.FocusID, "")
	for id, br := range ms.BranchOf {
		ms.Blocks[id].BranchID = br
	}
	return ms
}

func (w *measurer) clusterGen(cid string) int { return w.g.Union(cid) }

// forest picks a parent union for every region A cluster: the focus's
// parents for the focus's cluster, otherwise the parents of partner A,
// then partner B, then of the secondary partners left to right.
func (w *measurer) forest() {
	m := w.m
	ids := m.ClusterIDs()
	slices.SortStableFunc(ids, func(a, b string) int { return cmp.Compare(w.clusterGen(a), w.clusterGen(b)) })

	focusCluster := ""
	if cu := m.CardUnion(m.FocusID); cu != "" {
		focusCluster = m.Unions[cu].ClusterID
	}
	for _, cid := range ids {
		gen := w.clusterGen(cid)
		if !InRegionA(gen) {
			continue
		}
		var candidates []string
		if cid == focusCluster {
			candidates = append(candidates, m.FocusID)
		}
		primary := m.Unions[cid]
		candidates = append(candidates, primary.Partners()...)
		for _, uid := range m.Clusters[cid].Units {
			if u := m.Unions[uid]; u.Secondary() {
				candidates = append(candidates, u.NewPartner())
			}
		}
		for _, p := range candidates {
			pu, ok := m.ParentUnion(p)
			if !ok {
				continue
			}
			pg := w.g.Union(pu)
			if pg != gen-1 || !InRegionA(pg) || m.Unions[pu].ClusterID == cid {
				continue
			}
			w.ms.Parent[cid] = pu
			break
		}
	}
	// Inconsistent generations can make a cluster its own ancestor. The
	// first cluster of such a loop becomes a root.
	for _, cid := range ids {
		if pu, ok := w.ms.Parent[cid]; ok && w.below(cid) {
			delete(w.ms.Parent, cid)
			w.ms.Warnings = append(w.ms.Warnings,
				fmt.Sprintf("cluster %s not placed under union %s: it would sit below itself", cid, pu))
		}
	}

	for _, id := range m.Order {
		b := w.ms.Blocks[id]
		if !InRegionA(b.Generation) {
			continue
		}
		for _, c := range m.Unions[id].Children {
			cid := m.ClusterOf(m.CardUnion(c)).ID
			if w.ms.Parent[cid] == id && !slices.Contains(b.Children, cid) {
				b.Children = append(b.Children, cid)
			}
		}
	}
}

// below reports whether following parents up from cid leads back to cid.
func (w *measurer) below(cid string) bool {
	seen := map[string]bool{cid: true}
	for up := cid; ; {
		pu, ok := w.ms.Parent[up]
		if !ok {
			return false
		}
		up = w.m.Unions[pu].ClusterID
		if up == cid {
			return true
		}
		if seen[up] {
			return false
		}
		seen[up] = true
	}
}

// roots orders the parentless region A clusters: the father's siblings,
// the focus's parents, the mother's siblings, then everything else by ID.
func (w *measurer) roots() {
	m := w.m
	var out []string
	add := func(cid string) {
		if cid == "" || slices.Contains(out, cid) || !InRegionA(w.clusterGen(cid)) {
			return
		}
		if _, hasParent := w.ms.Parent[cid]; hasParent {
			return
		}
		out = append(out, cid)
	}
	clusterOf := func(personID string) string {
		if cu := m.CardUnion(personID); cu != "" {
			return m.Unions[cu].ClusterID
		}
		return ""
	}
	siblings := func(personID string) {
		if personID == "" {
			return
		}
		for _, s := range m.Index.Siblings(personID) {
			if _, ok := m.Persons[s]; ok {
				add(clusterOf(s))
			}
		}
	}

	siblings(w.ms.Paternal)
	if w.ms.FocusParents != "" {
		add(m.Unions[w.ms.FocusParents].ClusterID)
	} else {
		add(clusterOf(m.FocusID))
	}
	siblings(w.ms.Maternal)
	for _, cid := range m.ClusterIDs() {
		add(cid)
	}
	w.ms.Roots = out
}

func (w *measurer) width(id string) float64 {
	b := w.ms.Blocks[id]
	if w.measured[id] {
		return b.Width
	}
	w.measured[id] = true
	b.Width = b.CoupleWidth
	if !InRegionA(b.Generation) || len(b.Children) == 0 {
		return b.Width
	}
	span := w.cfg.HorizontalGap * float64(len(b.Children)-1)
	for _, cid := range b.Children {
		span += w.envelope(cid)
	}
	b.Width = max(b.Width, span)
	return b.Width
}

func (w *measurer) envelope(cid string) float64 {
	units := w.m.Clusters[cid].Units
	total := w.cfg.HorizontalGap * float64(len(units)-1)
	for _, id := range units {
		total += w.width(id)
	}
	return total
}

// lineage marks each ancestor union as paternal or maternal by walking up
// from the focus's parents. A union reached from both sides is neither.
func (w *measurer) lineage() {
	m := w.m
	seen := make(map[string]Lineage)
	walk := func(start string, line Lineage) {
		if start == "" {
			return
		}
		stack := []string{start}
		visited := map[string]bool{start: true}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pu, ok := m.ParentUnion(p)
			if !ok || InRegionA(w.g.Union(pu)) {
				continue
			}
			switch prev, marked := seen[pu]; {
			case !marked:
				seen[pu] = line
			case prev != line:
				seen[pu] = LineageOther
			}
			for _, q := range m.Unions[pu].Partners() {
				if !visited[q] {
					visited[q] = true
					stack = append(stack, q)
				}
			}
		}
	}
	walk(w.ms.Paternal, LineagePaternal)
	walk(w.ms.Maternal, LineageMaternal)
	for _, id := range w.ms.Ancestors {
		w.ms.Lineage[id] = seen[id]
	}
}
