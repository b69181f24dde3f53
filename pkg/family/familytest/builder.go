// Package familytest provides builders and canned trees for tests of the
// layout pipeline and its callers.
package familytest

import (
	"fmt"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
)

// Builder assembles a [family.Tree] while keeping the redundant links
// (parentIds, childIds, partnershipIds) consistent. It panics on references
// to unknown persons, like other test helpers do on misuse.
type Builder struct {
	tree *family.Tree
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{tree: family.NewTree()}
}

// Male adds a male person.
func (b *Builder) Male(id, birth string) *Builder {
	return b.Person(family.Person{ID: id, Name: id, Gender: family.GenderMale, BirthDate: birth})
}

// Female adds a female person.
func (b *Builder) Female(id, birth string) *Builder {
	return b.Person(family.Person{ID: id, Name: id, Gender: family.GenderFemale, BirthDate: birth})
}

// Person adds p as is.
func (b *Builder) Person(p family.Person) *Builder {
	if err := b.tree.AddPerson(p); err != nil {
		panic(err)
	}
	return b
}

// Married joins a and b in a married partnership with the given children.
func (b *Builder) Married(id, a, c string, children ...string) *Builder {
	return b.Partnership(family.Partnership{
		ID: id, Person1ID: a, Person2ID: c, Status: family.StatusMarried, ChildIDs: children,
	})
}

// Partnership adds p and links partners and children to it.
func (b *Builder) Partnership(p family.Partnership) *Builder {
	p.ChildIDs = slices.Clone(p.ChildIDs)
	if err := b.tree.AddPartnership(p); err != nil {
		panic(err)
	}
	for _, id := range []string{p.Person1ID, p.Person2ID} {
		person := b.must(id)
		person.PartnershipIDs = append(person.PartnershipIDs, p.ID)
		for _, c := range p.ChildIDs {
			if !slices.Contains(person.ChildIDs, c) {
				person.ChildIDs = append(person.ChildIDs, c)
			}
		}
	}
	for _, c := range p.ChildIDs {
		child := b.must(c)
		for _, id := range []string{p.Person1ID, p.Person2ID} {
			if !child.HasParent(id) && len(child.ParentIDs) < 2 {
				child.ParentIDs = append(child.ParentIDs, id)
			}
		}
	}
	return b
}

// Child records child as a child of parent without any partnership.
func (b *Builder) Child(parent, child string) *Builder {
	p, c := b.must(parent), b.must(child)
	p.ChildIDs = append(p.ChildIDs, child)
	c.ParentIDs = append(c.ParentIDs, parent)
	return b
}

// Tree returns the built tree.
func (b *Builder) Tree() *family.Tree { return b.tree }

func (b *Builder) must(id string) *family.Person {
	p, ok := b.tree.Persons[id]
	if !ok {
		panic(fmt.Sprintf("familytest: unknown person %q", id))
	}
	return p
}
