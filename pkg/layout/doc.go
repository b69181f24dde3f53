// Package layout computes the geometry of a family tree diagram around a
// focus person.
//
// [Compute] runs eight stages, each in its own package:
//
//  1. selection: pick the visible persons and partnerships
//  2. model: build unions, the indivisible couple or single-parent units
//  3. generation: number unions and persons relative to the focus
//  4. measure: organize clusters into a forest and measure subtree widths
//  5. place: assign tentative x positions top-down
//  6. solve: refine positions in two phases, locking the focus's side first
//  7. route: draw stems, buses, drops and spouse lines
//  8. emit: produce card positions and diagnostics (this package)
//
// The computation is pure and deterministic: the same tree, focus, policy
// and configuration always produce the same [Result], and independent
// calls may run concurrently. Problems are reported through
// [Diagnostics] rather than errors.
//
// # Usage
//
//	res := layout.Compute(tree, "p1", layout.DefaultPolicy(), config.Default())
//	for id, pos := range res.Positions {
//	    fmt.Println(id, pos.X, pos.Y)
//	}
//
// [ComputeDebug] runs the same stages and also returns a [Snapshot] per
// stage for visualization tooling.
package layout
