// Package generation assigns every union and person a generation number
// relative to the focus (0), with ancestors negative and descendants
// positive.
package generation

import (
	"fmt"
	"slices"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/layout/model"
)

// Generations maps unions and persons to generation numbers.
type Generations struct {
	Unions  map[string]int
	Persons map[string]int
	Min     int
	Max     int

	// Unreachable lists unions not connected to the focus. They were
	// numbered from 0 on their own.
	Unreachable []string
}

// Person returns the generation of a person's card.
func (g *Generations) Person(id string) int { return g.Persons[id] }

// Union returns the generation of a union.
func (g *Generations) Union(id string) int { return g.Unions[id] }

// Rows returns every generation from Min to Max.
func (g *Generations) Rows() []int {
	if len(g.Unions) == 0 {
		return nil
	}
	rows := make([]int, 0, g.Max-g.Min+1)
	for r := g.Min; r <= g.Max; r++ {
		rows = append(rows, r)
	}
	return rows
}

// Assign numbers the model breadth-first from the union holding the
// focus's card: a parent union is one generation up, a child's union one
// down, and every union a person takes part in shares their generation.
func Assign(m *model.Model) *Generations {
	g := &Generations{
		Unions:  make(map[string]int, len(m.Unions)),
		Persons: make(map[string]int, len(m.Persons)),
	}
	if len(m.Unions) == 0 {
		return g
	}

	var queue []string
	visit := func(id string, gen int) {
		if _, done := g.Unions[id]; done || id == "" {
			return
		}
		g.Unions[id] = gen
		queue = append(queue, id)
	}
	drain := func() {
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			gen := g.Unions[id]
			u := m.Unions[id]
			for _, p := range u.Partners() {
				visit(m.CardUnion(p), gen)
				for _, pu := range m.PartnerUnions(p) {
					visit(pu, gen)
				}
				if parent, ok := m.ParentUnion(p); ok {
					visit(parent, gen-1)
				}
			}
			for _, c := range u.Children {
				visit(m.CardUnion(c), gen+1)
			}
		}
	}

	if focus := m.CardUnion(m.FocusID); focus != "" {
		visit(focus, 0)
		drain()
	}
	for _, id := range m.Order {
		if _, done := g.Unions[id]; !done {
			g.Unreachable = append(g.Unreachable, id)
			visit(id, 0)
			drain()
		}
	}

	first := true
	for _, gen := range g.Unions {
		if first || gen < g.Min {
			g.Min = gen
		}
		if first || gen > g.Max {
			g.Max = gen
		}
		first = false
	}
	for id := range m.Persons {
		g.Persons[id] = g.Unions[m.CardUnion(id)]
	}
	return g
}

// Graph builds the person/union graph with generations as rows.
func Graph(m *model.Model, g *Generations) *dag.DAG {
	d := dag.New()
	for _, id := range m.PersonIDs() {
		_ = d.AddNode(dag.Node{ID: id, Row: g.Persons[id], Kind: dag.NodeKindPerson, Label: m.Persons[id].Label()})
	}
	for _, id := range m.Order {
		_ = d.AddNode(dag.Node{ID: id, Row: g.Unions[id], Kind: dag.NodeKindUnion})
	}
	for _, id := range m.Order {
		u := m.Unions[id]
		for _, p := range u.Partners() {
			_ = d.AddEdge(dag.Edge{From: p, To: id, Kind: dag.EdgeKindPartner})
		}
		for _, c := range u.Children {
			_ = d.AddEdge(dag.Edge{From: id, To: c, Kind: dag.EdgeKindDescent})
		}
	}
	return d
}

// Validate returns a description of every generation inconsistency. An
// empty result means every child is exactly one generation below its
// parent union and partners share a generation. Problems never stop the
// layout.
func Validate(m *model.Model, g *Generations) []string {
	var out []string
	for _, err := range Graph(m, g).Violations() {
		out = append(out, err.Error())
	}
	for _, id := range g.Unreachable {
		out = append(out, fmt.Sprintf("union %s is not connected to the focus", id))
	}
	slices.Sort(out)
	return out
}
