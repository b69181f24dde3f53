package layout

import "github.com/matzehuels/kintree/pkg/layout/route"

// Position is the top-left corner of a person's card.
type Position = route.Point

// Result is the complete output of a layout computation.
type Result struct {
	FocusID     string              `json:"focusId"`
	Positions   map[string]Position `json:"positions"`
	Connections []route.Connection  `json:"connections"`
	SpouseLines []route.SpouseLine  `json:"spouseLines"`
	Diagnostics Diagnostics         `json:"diagnostics"`

	Generations map[string]int `json:"generations"`
	MinGen      int            `json:"minGen"`
	MaxGen      int            `json:"maxGen"`
	Unions      []Union        `json:"unions"`

	Branches          []Branch `json:"branches,omitempty"`
	TopLevelBranchIDs []string `json:"topLevelBranchIds,omitempty"`

	Bounds Bounds `json:"bounds"`
}

// Union describes one layout union in the result.
type Union struct {
	ID            string   `json:"id"`
	Kind          string   `json:"kind"`
	PartnerA      string   `json:"partnerA"`
	PartnerB      string   `json:"partnerB,omitempty"`
	PartnershipID string   `json:"partnershipId,omitempty"`
	ChainIndex    int      `json:"chainIndex,omitempty"`
	Generation    int      `json:"generation"`
	Children      []string `json:"children,omitempty"`
}

// Branch is a corridor of the focus's descendants. Branches at the same
// level never overlap and are ordered by SiblingIndex.
type Branch struct {
	ID           string   `json:"id"`
	PersonID     string   `json:"personId"`
	SiblingIndex int      `json:"siblingIndex"`
	MinX         float64  `json:"minX"`
	MaxX         float64  `json:"maxX"`
	SubBranches  []Branch `json:"subBranches,omitempty"`
}

// Bounds is the extent of all cards.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Diagnostics summarizes what happened during a layout.
type Diagnostics struct {
	TotalPersons     int      `json:"totalPersons"`
	TotalUnions      int      `json:"totalUnions"`
	ValidationPassed bool     `json:"validationPassed"`
	Errors           []string `json:"errors"`

	// GenerationWarnings are generation inconsistencies and the clusters
	// they forced out of the placement forest. They never stop the layout
	// and do not fail validation.
	GenerationWarnings []string `json:"generationWarnings,omitempty"`

	AncestorDepth   int  `json:"ancestorDepth"`
	DescendantDepth int  `json:"descendantDepth"`
	Iterations      int  `json:"iterations"`
	Converged       bool `json:"converged"`
	PhaseBSkipped   bool `json:"phaseBSkipped,omitempty"`

	// Crossings counts parent-child line crossings between adjacent rows.
	Crossings    int `json:"crossings"`
	LanesSkipped int `json:"lanesSkipped"`
}

// Person returns the position of a person, if laid out.
func (r *Result) Person(id string) (Position, bool) {
	p, ok := r.Positions[id]
	return p, ok
}

// Branch returns the branch with the given ID, searching nested branches.
func (r *Result) Branch(id string) (Branch, bool) {
	var find func([]Branch) (Branch, bool)
	find = func(bs []Branch) (Branch, bool) {
		for _, b := range bs {
			if b.ID == id {
				return b, true
			}
			if sub, ok := find(b.SubBranches); ok {
				return sub, true
			}
		}
		return Branch{}, false
	}
	return find(r.Branches)
}
