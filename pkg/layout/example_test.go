package layout_test

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/family/familytest"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/layout/config"
)

func ExampleCompute() {
	res := layout.Compute(familytest.Nuclear(), "p1", layout.DefaultPolicy(), config.Default())

	for _, id := range slices.Sorted(maps.Keys(res.Positions)) {
		p := res.Positions[id]
		fmt.Printf("%s (%.0f, %.0f)\n", id, p.X, p.Y)
	}
	c := res.Connections[0]
	fmt.Printf("stem at %.0f, bus %.0f..%.0f at y %.0f\n", c.StemX, c.BranchLeftX, c.BranchRightX, c.BranchY)
	fmt.Println("valid:", res.Diagnostics.ValidationPassed)
	// Output:
	// c1 (40, 190)
	// c2 (230, 190)
	// p1 (40, 40)
	// p2 (230, 40)
	// stem at 215, bus 120..310 at y 150
	// valid: true
}

func ExampleComputeDebug() {
	_, snaps := layout.ComputeDebug(familytest.AncestorChain(), "focus", layout.Policy{AncestorDepth: 3}, config.Default())
	for _, s := range snaps {
		fmt.Println(s.Stage)
	}
	// Output:
	// select
	// model
	// generation
	// measure
	// place
	// solve
	// route
	// emit
}
