// Package selection walks a family tree outward from a focus person and
// decides which persons and partnerships are visible.
//
// The walk covers descendants, ancestors and siblings of the focus under
// depth limits, optionally widened to aunts, uncles and cousins, and to the
// ancestors of the focus's partners. Every walk carries its own visited set
// so cyclic input terminates.
package selection

import (
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
)

// Options bounds the walk.
type Options struct {
	AncestorDepth   int
	DescendantDepth int

	// IncludeSpouseAncestors climbs the ancestors of the focus's partners.
	IncludeSpouseAncestors bool
	// IncludeParentSiblings adds aunts and uncles. Requires AncestorDepth >= 2.
	IncludeParentSiblings bool
	// IncludeParentSiblingDescendants adds cousins below aunts and uncles.
	IncludeParentSiblingDescendants bool
}

// Selection is the visible part of a tree.
type Selection struct {
	FocusID      string
	Persons      map[string]bool
	Partnerships map[string]bool

	// AncestorDepth and DescendantDepth report how far the walk actually
	// reached, which is less than requested for shallow trees.
	AncestorDepth   int
	DescendantDepth int
}

// Empty reports whether nothing was selected, which happens when the focus
// is not in the tree.
func (s *Selection) Empty() bool { return len(s.Persons) == 0 }

// HasPerson reports whether id is visible.
func (s *Selection) HasPerson(id string) bool { return s.Persons[id] }

// HasPartnership reports whether id is visible.
func (s *Selection) HasPartnership(id string) bool { return s.Partnerships[id] }

// PersonIDs returns the visible persons in ascending order.
func (s *Selection) PersonIDs() []string { return slices.Sorted(maps.Keys(s.Persons)) }

// PartnershipIDs returns the visible partnerships in ascending order.
func (s *Selection) PartnershipIDs() []string { return slices.Sorted(maps.Keys(s.Partnerships)) }

type walker struct {
	x    *family.Index
	opts Options
	sel  *Selection

	descVisited map[string]bool
	ancVisited  map[string]bool
}

// Select runs the walk. An unknown focus yields an empty selection.
func Select(x *family.Index, focusID string, opts Options) *Selection {
	sel := &Selection{
		FocusID:      focusID,
		Persons:      make(map[string]bool),
		Partnerships: make(map[string]bool),
	}
	if !x.Has(focusID) {
		return sel
	}
	w := &walker{
		x:           x,
		opts:        opts,
		sel:         sel,
		descVisited: make(map[string]bool),
		ancVisited:  make(map[string]bool),
	}

	w.addPerson(focusID)
	w.addPartners(focusID)
	w.descendants(focusID, 0, opts.DescendantDepth, true)
	w.ancestors(focusID, 1)

	if opts.AncestorDepth >= 1 {
		w.siblings(focusID)
	}
	if opts.IncludeParentSiblings && opts.AncestorDepth >= 2 {
		w.parentSiblings(focusID)
	}
	if opts.IncludeSpouseAncestors {
		for _, partner := range x.Partners(focusID) {
			w.ancestors(partner, 1)
		}
	}

	w.sweepPartnerships()
	return sel
}

func (w *walker) addPerson(id string) {
	w.sel.Persons[id] = true
}

// addPartners adds every partner of id together with the partnership.
func (w *walker) addPartners(id string) {
	for _, p := range w.x.Partnerships(id) {
		w.sel.Partnerships[p.ID] = true
		w.addPerson(p.Other(id))
	}
}

// descendants adds children of id down to limit generations below it.
// Each descendant brings their partners. fromFocus records the depth
// reached for the focus line only.
func (w *walker) descendants(id string, depth, limit int, fromFocus bool) {
	if depth >= limit || w.descVisited[id] {
		return
	}
	w.descVisited[id] = true
	for _, child := range w.x.Children(id) {
		w.addPerson(child)
		w.addPartners(child)
		if fromFocus && depth+1 > w.sel.DescendantDepth {
			w.sel.DescendantDepth = depth + 1
		}
		w.descendants(child, depth+1, limit, fromFocus)
	}
}

// ancestors climbs from id, level generations above the focus line.
func (w *walker) ancestors(id string, level int) {
	if level > w.opts.AncestorDepth || w.ancVisited[id] {
		return
	}
	w.ancVisited[id] = true

	parents := w.x.Parents(id)
	if len(parents) == 0 {
		return
	}
	if level > w.sel.AncestorDepth {
		w.sel.AncestorDepth = level
	}

	if pp := w.x.ParentPartnership(id); pp != nil && len(parents) == 2 && pp.Joins(parents[0], parents[1]) {
		w.sel.Partnerships[pp.ID] = true
		w.addPerson(pp.Person1ID)
		w.addPerson(pp.Person2ID)
		w.ancestors(pp.Person1ID, level+1)
		w.ancestors(pp.Person2ID, level+1)
		return
	}
	for _, parent := range parents {
		w.addPerson(parent)
		w.addPartners(parent)
		w.ancestors(parent, level+1)
	}
}

// siblings adds the focus's siblings, their partners and descendants. A
// half-sibling also brings the partnership that claims them so the
// step-parent is visible.
func (w *walker) siblings(id string) {
	for _, sib := range w.x.Siblings(id) {
		w.addSibling(sib, w.opts.DescendantDepth)
	}
}

func (w *walker) addSibling(sib string, limit int) {
	w.addPerson(sib)
	w.addPartners(sib)
	if pp := w.x.ParentPartnership(sib); pp != nil {
		w.sel.Partnerships[pp.ID] = true
		w.addPerson(pp.Person1ID)
		w.addPerson(pp.Person2ID)
	}
	w.descendants(sib, 0, limit, false)
}

// parentSiblings adds aunts and uncles and, optionally, cousins.
func (w *walker) parentSiblings(id string) {
	limit := 0
	if w.opts.IncludeParentSiblingDescendants {
		limit = max(1, w.opts.DescendantDepth)
	}
	for _, parent := range w.x.Parents(id) {
		if !w.sel.Persons[parent] {
			continue
		}
		for _, sib := range w.x.Siblings(parent) {
			w.addSibling(sib, limit)
		}
	}
}

// sweepPartnerships keeps partnerships already chosen and adds any other
// partnership between two visible persons that has a visible child.
func (w *walker) sweepPartnerships() {
	tree := w.x.Tree()
	for _, id := range tree.PartnershipIDs() {
		p := tree.Partnerships[id]
		if !w.sel.Persons[p.Person1ID] || !w.sel.Persons[p.Person2ID] {
			delete(w.sel.Partnerships, id)
			continue
		}
		if w.sel.Partnerships[id] {
			continue
		}
		if slices.ContainsFunc(p.ChildIDs, w.sel.HasPerson) {
			w.sel.Partnerships[id] = true
		}
	}
}
