package family

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/kintree/pkg/errors"
)

// CurrentVersion is the document version written by [WriteTree].
const CurrentVersion = 1

// Tree is a complete genealogical document.
type Tree struct {
	Version      int                     `json:"version" bson:"version"`
	Persons      map[string]*Person      `json:"persons" bson:"persons"`
	Partnerships map[string]*Partnership `json:"partnerships" bson:"partnerships"`
}

// NewTree returns an empty tree at the current document version.
func NewTree() *Tree {
	return &Tree{
		Version:      CurrentVersion,
		Persons:      make(map[string]*Person),
		Partnerships: make(map[string]*Partnership),
	}
}

// AddPerson inserts p, failing on empty or duplicate IDs.
func (t *Tree) AddPerson(p Person) error {
	if err := errors.ValidateID("person", p.ID); err != nil {
		return err
	}
	if _, ok := t.Persons[p.ID]; ok {
		return errors.New(errors.ErrCodeInvalidTree, "duplicate person %q", p.ID)
	}
	t.Persons[p.ID] = &p
	return nil
}

// AddPartnership inserts p, failing on empty or duplicate IDs.
func (t *Tree) AddPartnership(p Partnership) error {
	if err := errors.ValidateID("partnership", p.ID); err != nil {
		return err
	}
	if _, ok := t.Partnerships[p.ID]; ok {
		return errors.New(errors.ErrCodeInvalidTree, "duplicate partnership %q", p.ID)
	}
	t.Partnerships[p.ID] = &p
	return nil
}

// Person returns the person with the given ID.
func (t *Tree) Person(id string) (*Person, bool) {
	p, ok := t.Persons[id]
	return p, ok
}

// Partnership returns the partnership with the given ID.
func (t *Tree) Partnership(id string) (*Partnership, bool) {
	p, ok := t.Partnerships[id]
	return p, ok
}

// PersonIDs returns all person IDs in ascending order.
func (t *Tree) PersonIDs() []string {
	return slices.Sorted(maps.Keys(t.Persons))
}

// PartnershipIDs returns all partnership IDs in ascending order.
func (t *Tree) PartnershipIDs() []string {
	return slices.Sorted(maps.Keys(t.Partnerships))
}

// Validate checks referential integrity: map keys match IDs, partnerships
// join two distinct known persons, and every referenced person exists.
// Layout tolerates dangling references; Validate is for import paths that
// want to reject them.
func (t *Tree) Validate() error {
	for _, id := range t.PersonIDs() {
		p := t.Persons[id]
		if p == nil || p.ID != id {
			return errors.New(errors.ErrCodeInvalidTree, "person key %q does not match its id", id)
		}
		if len(p.ParentIDs) > 2 {
			return errors.New(errors.ErrCodeInvalidTree, "person %q has %d parents (max 2)", id, len(p.ParentIDs))
		}
		for _, ref := range slices.Concat(p.ParentIDs, p.ChildIDs) {
			if _, ok := t.Persons[ref]; !ok {
				return errors.New(errors.ErrCodeInvalidTree, "person %q references unknown person %q", id, ref)
			}
		}
		for _, ref := range p.PartnershipIDs {
			if _, ok := t.Partnerships[ref]; !ok {
				return errors.New(errors.ErrCodeInvalidTree, "person %q references unknown partnership %q", id, ref)
			}
		}
	}
	for _, id := range t.PartnershipIDs() {
		p := t.Partnerships[id]
		if p == nil || p.ID != id {
			return errors.New(errors.ErrCodeInvalidTree, "partnership key %q does not match its id", id)
		}
		if p.Person1ID == p.Person2ID {
			return errors.New(errors.ErrCodeInvalidTree, "partnership %q joins %q with itself", id, p.Person1ID)
		}
		if !p.Status.Valid() {
			return errors.New(errors.ErrCodeInvalidTree, "partnership %q has unknown status %q", id, p.Status)
		}
		for _, ref := range slices.Concat([]string{p.Person1ID, p.Person2ID}, p.ChildIDs) {
			if _, ok := t.Persons[ref]; !ok {
				return errors.New(errors.ErrCodeInvalidTree, "partnership %q references unknown person %q", id, ref)
			}
		}
	}
	return nil
}

// ReadTree decodes a tree document. Missing maps are initialized so callers
// can index them without nil checks.
func ReadTree(r io.Reader) (*Tree, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tree")
	}
	t.Normalize()
	return &t, nil
}

// ReadTreeFile reads a tree document from path.
func ReadTreeFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "tree file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTree(f)
}

// WriteTree encodes t as indented JSON.
func WriteTree(w io.Writer, t *Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// MarshalTree returns the canonical compact encoding of t.
func MarshalTree(t *Tree) ([]byte, error) {
	return json.Marshal(t)
}

// Normalize fills defaults after decoding: the current version, empty maps,
// and IDs taken from map keys. Nil entries are dropped.
func (t *Tree) Normalize() {
	if t.Version == 0 {
		t.Version = CurrentVersion
	}
	if t.Persons == nil {
		t.Persons = make(map[string]*Person)
	}
	if t.Partnerships == nil {
		t.Partnerships = make(map[string]*Partnership)
	}
	for id, p := range t.Persons {
		if p == nil {
			delete(t.Persons, id)
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
	}
	for id, p := range t.Partnerships {
		if p == nil {
			delete(t.Partnerships, id)
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
	}
}
