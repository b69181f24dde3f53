package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the total number of descent-edge crossings for the
// given left-to-right row orderings. orders maps a row to the IDs on it;
// unions on row r connect to persons on row r+1. Rows without entries are
// treated as empty.
func CountCrossings(g *DAG, unionOrders, personOrders map[int][]string) int {
	crossings := 0
	for _, r := range slices.Sorted(maps.Keys(unionOrders)) {
		crossings += CountLayerCrossings(g, unionOrders[r], personOrders[r+1])
	}
	return crossings
}

// CountLayerCrossings counts descent-edge crossings between unions in upper
// and persons in lower using a Fenwick tree, in O(E log V).
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// This is equivalent to counting inversions in the sequence of target
// positions when edges are sorted by source position.
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, nodeID := range upper {
		for _, child := range g.DescentChildren(nodeID) {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
