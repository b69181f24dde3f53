// Package place computes tentative horizontal positions: every subtree is
// laid out within the width measured for it, children centered under
// their parents, and ancestors centered over their children.
package place

import (
	"cmp"
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/generation"
	"github.com/matzehuels/kintree/pkg/layout/measure"
	"github.com/matzehuels/kintree/pkg/layout/model"
)

type placer struct {
	m   *model.Model
	g   *generation.Generations
	ms  *measure.Measurement
	cfg config.Config
	geo Geometry
	pos Positions

	placed map[string]bool
}

// Place returns tentative positions for every union. Region A roots are
// laid out left to right from x = 0.
func Place(m *model.Model, g *generation.Generations, ms *measure.Measurement, cfg config.Config) Positions {
	p := &placer{m: m, g: g, ms: ms, cfg: cfg, geo: Geometry{M: m, Cfg: cfg}, pos: make(Positions, len(m.Unions)), placed: make(map[string]bool)}
	cursor := 0.0
	for _, root := range ms.Roots {
		p.cluster(root, cursor)
		cursor += ms.Blocks[root].EnvelopeWidth + cfg.HorizontalGap
	}
	p.ancestors()
	return p.pos
}

// cluster lays out the units of a cluster from left, each centered over
// the clusters placed beneath it. A cluster is laid out once.
func (p *placer) cluster(cid string, left float64) {
	if p.placed[cid] {
		return
	}
	p.placed[cid] = true
	cursor := left
	for _, uid := range p.m.Clusters[cid].Units {
		b := p.ms.Blocks[uid]
		span := -p.cfg.HorizontalGap
		for _, k := range b.Children {
			span += p.ms.Blocks[k].EnvelopeWidth + p.cfg.HorizontalGap
		}
		start := cursor + (b.Width-span)/2
		for _, k := range b.Children {
			p.cluster(k, start)
			start += p.ms.Blocks[k].EnvelopeWidth + p.cfg.HorizontalGap
		}
		p.pos[uid] = cursor + (b.Width-b.CoupleWidth)/2
		cursor += b.Width + p.cfg.HorizontalGap
	}
}

// ancestors centers each region B union over its children, one row at a
// time from the parents' parents upward, then pushes overlapping unions
// apart.
func (p *placer) ancestors() {
	rows := make(map[int][]string)
	for _, id := range p.ms.Ancestors {
		gen := p.g.Union(id)
		rows[gen] = append(rows[gen], id)
	}
	for gen := -2; gen >= p.g.Min; gen-- {
		PackRow(p.geo, p.pos, rows[gen], func(id string) float64 { return p.target(id) })
	}
}

// target is the position that centers a union over its children, or keeps
// it where it is when no child is placed.
func (p *placer) target(id string) float64 {
	lo, hi, ok := p.geo.ChildSpan(p.pos, id, p.m.Unions[id].Children)
	if !ok {
		return p.pos[id]
	}
	return (lo+hi)/2 - p.geo.Width(id)/2
}

// PackRow places units at their targets, then sweeps left to right so no
// two overlap. Units are ordered by target, ties broken by the order given.
func PackRow(geo Geometry, pos Positions, units []string, target func(string) float64) {
	type item struct {
		id string
		x  float64
		i  int
	}
	items := make([]item, len(units))
	for i, id := range units {
		items[i] = item{id, target(id), i}
	}
	slices.SortFunc(items, func(a, b item) int {
		if c := cmp.Compare(a.x, b.x); c != 0 {
			return c
		}
		return cmp.Compare(a.i, b.i)
	})
	edge := 0.0
	for i, it := range items {
		x := it.x
		if i > 0 && x < edge {
			x = edge
		}
		pos[it.id] = x
		edge = x + geo.Width(it.id) + geo.Cfg.HorizontalGap
	}
}
