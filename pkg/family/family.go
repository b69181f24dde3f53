package family

import "slices"

// Gender is a person's recorded gender. The empty value means unspecified.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = ""
)

// Status describes the state of a partnership.
type Status string

const (
	StatusMarried   Status = "married"
	StatusPartners  Status = "partners"
	StatusDivorced  Status = "divorced"
	StatusSeparated Status = "separated"
)

// Active reports whether the partnership is ongoing. Unknown and empty
// statuses count as active.
func (s Status) Active() bool {
	return s != StatusDivorced && s != StatusSeparated
}

// Valid reports whether s is one of the known statuses or empty.
func (s Status) Valid() bool {
	switch s {
	case "", StatusMarried, StatusPartners, StatusDivorced, StatusSeparated:
		return true
	}
	return false
}

// Person is a single individual in a tree.
type Person struct {
	ID             string   `json:"id" bson:"id"`
	Name           string   `json:"name,omitempty" bson:"name,omitempty"`
	Gender         Gender   `json:"gender,omitempty" bson:"gender,omitempty"`
	BirthDate      string   `json:"birthDate,omitempty" bson:"birthDate,omitempty"`
	DeathDate      string   `json:"deathDate,omitempty" bson:"deathDate,omitempty"`
	ParentIDs      []string `json:"parentIds,omitempty" bson:"parentIds,omitempty"`
	ChildIDs       []string `json:"childIds,omitempty" bson:"childIds,omitempty"`
	PartnershipIDs []string `json:"partnershipIds,omitempty" bson:"partnershipIds,omitempty"`
}

// HasParent reports whether id is listed among the person's parents.
func (p *Person) HasParent(id string) bool {
	return slices.Contains(p.ParentIDs, id)
}

// Label returns the display name, falling back to the ID.
func (p *Person) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Partnership is a relationship between exactly two persons.
type Partnership struct {
	ID        string   `json:"id" bson:"id"`
	Person1ID string   `json:"person1Id" bson:"person1Id"`
	Person2ID string   `json:"person2Id" bson:"person2Id"`
	Status    Status   `json:"status,omitempty" bson:"status,omitempty"`
	StartDate string   `json:"startDate,omitempty" bson:"startDate,omitempty"`
	IsPrimary bool     `json:"isPrimary,omitempty" bson:"isPrimary,omitempty"`
	ChildIDs  []string `json:"childIds,omitempty" bson:"childIds,omitempty"`
}

// Has reports whether personID is one of the two partners.
func (p *Partnership) Has(personID string) bool {
	return p.Person1ID == personID || p.Person2ID == personID
}

// Other returns the partner of personID, or "" if personID is not a partner.
func (p *Partnership) Other(personID string) string {
	switch personID {
	case p.Person1ID:
		return p.Person2ID
	case p.Person2ID:
		return p.Person1ID
	}
	return ""
}

// Joins reports whether the partnership is between a and b in either order.
func (p *Partnership) Joins(a, b string) bool {
	return (p.Person1ID == a && p.Person2ID == b) || (p.Person1ID == b && p.Person2ID == a)
}

// Claims reports whether childID is in the partnership's child list.
func (p *Partnership) Claims(childID string) bool {
	return slices.Contains(p.ChildIDs, childID)
}
