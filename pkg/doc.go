// Package pkg holds the kintree libraries.
//
// # Overview
//
// Kintree lays out a family tree around one focus person: a window of
// ancestors and descendants, partners side by side in a stable order, and
// orthogonal connectors from each couple to its children. The pkg
// directory is organized into three areas:
//
//  1. Domain: [family] (tree documents), [dag] (the layered union graph)
//     and [layout] with its stage packages
//  2. Infrastructure: [cache], [store], [observability], [errors]
//  3. Delivery: [pipeline] (cached layout and rendering) and [server]
//     (HTTP)
//
// # Architecture
//
// The data flow through a layout:
//
//	family.Tree + focus + policy
//	         ↓
//	    selection  → which persons are shown
//	         ↓
//	    model      → unions (couples and single parents)
//	         ↓
//	    generation → one row per generation
//	         ↓
//	    measure    → subtree widths
//	         ↓
//	    place      → initial x positions
//	         ↓
//	    solve      → constraint refinement
//	         ↓
//	    route      → connector polylines
//	         ↓
//	    layout.Result (JSON, DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/kintree/pkg/family"
//	    "github.com/matzehuels/kintree/pkg/layout"
//	    "github.com/matzehuels/kintree/pkg/layout/config"
//	)
//
//	tree, _ := family.ReadTreeFile("smith.json")
//	res := layout.Compute(tree, "p1", layout.DefaultPolicy(), config.Default())
//	for id, pos := range res.Positions {
//	    fmt.Println(id, pos.X, pos.Y)
//	}
//
// For caching, rendering and batch runs use [pipeline.Runner].
package pkg
