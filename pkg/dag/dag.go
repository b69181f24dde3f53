package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrNonConsecutiveRows is reported by [DAG.Validate] when a descent
	// edge does not go exactly one row down (From.Row+1 != To.Row).
	ErrNonConsecutiveRows = errors.New("descent edge must connect consecutive rows")

	// ErrPartnerRowMismatch is reported by [DAG.Validate] when a partner
	// edge joins a person and a union on different rows.
	ErrPartnerRowMismatch = errors.New("partner edge must stay within one row")

	// ErrGraphHasCycle is reported by [DAG.Validate] when a person is their
	// own ancestor. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeKind distinguishes persons from unions.
type NodeKind int

const (
	// NodeKindPerson is a single individual.
	NodeKindPerson NodeKind = iota
	// NodeKindUnion is a couple or single parent that children descend from.
	NodeKindUnion
)

func (k NodeKind) String() string {
	if k == NodeKindUnion {
		return "union"
	}
	return "person"
}

// EdgeKind distinguishes the two relations the graph stores.
type EdgeKind int

const (
	// EdgeKindDescent links a union to one of its children (one row down).
	EdgeKindDescent EdgeKind = iota
	// EdgeKindPartner links a person to a union they are a partner in
	// (same row).
	EdgeKindPartner
)

// Node is a vertex with an assigned row. For family graphs the row is the
// generation number, so it may be negative.
type Node struct {
	ID    string
	Row   int
	Kind  NodeKind
	Label string
}

// Edge is a directed relation between two nodes.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// EdgeError describes a single invalid edge.
type EdgeError struct {
	Edge Edge
	Err  error
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.Edge.From, e.Edge.To, e.Err)
}

func (e *EdgeError) Unwrap() error { return e.Err }

// CycleError describes a detected cycle by the node path that closes it.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrGraphHasCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrGraphHasCycle }

// DAG is a row-layered graph of persons and unions. Descent edges go from a
// union to a child one row below; partner edges go from a person to a union
// on the same row. Following both kinds from a person walks their
// descendants, so a cycle means a person is their own ancestor.
//
// The zero value is not usable; use New. DAG is not safe for concurrent use
// without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	rows     map[int][]*Node
}

// New creates an empty graph.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by row.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	d.nodes[node.ID] = node
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Row constraints
// are not checked here; use Validate after building the graph.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of edges leaving id.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the sources of edges entering id.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// DescentChildren returns the children of a union reached by descent edges.
func (d *DAG) DescentChildren(id string) []string {
	var out []string
	for _, e := range d.edges {
		if e.From == id && e.Kind == EdgeKindDescent {
			out = append(out, e.To)
		}
	}
	return out
}

// NodesInRow returns the nodes assigned to row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// Validate checks every edge against its row constraint and searches for
// cycles. All violations are reported, joined with [errors.Join]; each is
// an [*EdgeError] or a [*CycleError] wrapping one of the sentinel errors.
// Returns nil for a valid graph.
func (d *DAG) Validate() error {
	return errors.Join(d.Violations()...)
}

// Violations returns every constraint violation in deterministic order:
// edge errors in insertion order, then at most one cycle.
func (d *DAG) Violations() []error {
	var errs []error
	for _, e := range d.edges {
		src, dst := d.nodes[e.From], d.nodes[e.To]
		switch {
		case e.Kind == EdgeKindDescent && dst.Row != src.Row+1:
			errs = append(errs, &EdgeError{Edge: e, Err: ErrNonConsecutiveRows})
		case e.Kind == EdgeKindPartner && dst.Row != src.Row:
			errs = append(errs, &EdgeError{Edge: e, Err: ErrPartnerRowMismatch})
		}
	}
	if cycle := d.findCycle(); cycle != nil {
		errs = append(errs, cycle)
	}
	return errs
}

func (d *DAG) findCycle() *CycleError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var found *CycleError

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			if found != nil {
				return
			}
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				start := slices.Index(stack, child)
				found = &CycleError{Path: append(slices.Clone(stack[start:]), child)}
				return
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		if color[id] == white {
			dfs(id)
			if found != nil {
				return found
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
