package place

import (
	"slices"

	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/layout/model"
)

// Positions maps a union to the left edge of its first owned card.
type Positions map[string]float64

// Clone returns an independent copy.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Geometry derives card coordinates from union positions.
type Geometry struct {
	M   *model.Model
	Cfg config.Config
}

// CardLeft returns the left edge of a person's card.
func (g Geometry) CardLeft(pos Positions, personID string) (float64, bool) {
	uid := g.M.CardUnion(personID)
	x, ok := pos[uid]
	if !ok {
		return 0, false
	}
	i := slices.Index(g.M.Unions[uid].Cards(), personID)
	return x + float64(i)*(g.Cfg.CardWidth+g.Cfg.HorizontalGap), true
}

// CardCenter returns the horizontal center of a person's card.
func (g Geometry) CardCenter(pos Positions, personID string) (float64, bool) {
	x, ok := g.CardLeft(pos, personID)
	return x + g.Cfg.CardWidth/2, ok
}

// Width returns the width of the cards a union owns.
func (g Geometry) Width(unionID string) float64 {
	n := float64(len(g.M.Unions[unionID].Cards()))
	return n*g.Cfg.CardWidth + (n-1)*g.Cfg.HorizontalGap
}

// Center returns the center of the cards a union owns.
func (g Geometry) Center(pos Positions, unionID string) float64 {
	return pos[unionID] + g.Width(unionID)/2
}

// ChildSpan returns the leftmost and rightmost card centers among the
// children of a union that have a position.
func (g Geometry) ChildSpan(pos Positions, unionID string, children []string) (lo, hi float64, ok bool) {
	for _, c := range children {
		x, placed := g.CardCenter(pos, c)
		if !placed {
			continue
		}
		if !ok || x < lo {
			lo = x
		}
		if !ok || x > hi {
			hi = x
		}
		ok = true
	}
	return lo, hi, ok
}

// Cards returns the left edge of every placed card.
func (g Geometry) Cards(pos Positions) map[string]float64 {
	out := make(map[string]float64, len(g.M.Persons))
	for id := range g.M.Persons {
		if x, ok := g.CardLeft(pos, id); ok {
			out[id] = x
		}
	}
	return out
}
