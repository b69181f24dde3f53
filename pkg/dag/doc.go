// Package dag provides a row-layered graph of persons and unions used to
// check generation assignments and measure edge crossings.
//
// # Overview
//
// Family layouts place every person and union on a horizontal row given by
// its generation. Two relations connect them:
//
//   - Descent edges run from a union to each of its children, exactly one
//     row down.
//   - Partner edges run from a person to each union they are a partner in,
//     on the same row.
//
// [DAG.Validate] reports every edge that breaks its row rule together with
// any cycle (a person listed among their own descendants). Violations are
// collected rather than returned one at a time so callers can present them
// as a list.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "u:a+b", Row: -1, Kind: dag.NodeKindUnion})
//	g.AddNode(dag.Node{ID: "c", Row: 0, Kind: dag.NodeKindPerson})
//	g.AddEdge(dag.Edge{From: "u:a+b", To: "c", Kind: dag.EdgeKindDescent})
//	if err := g.Validate(); err != nil {
//	    // errors.Is(err, dag.ErrNonConsecutiveRows) etc.
//	}
//
// # Crossings
//
// [CountLayerCrossings] counts descent-edge crossings between a row of unions
// and the row of persons below it for given left-to-right orders, using a
// Fenwick tree. The layout reports the total as a quality metric.
package dag
