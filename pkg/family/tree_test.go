package family

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
)

const sampleDoc = `{
  "version": 1,
  "persons": {
    "p1": {"id": "p1", "name": "Ada", "gender": "female", "partnershipIds": ["m1"], "childIds": ["c1"]},
    "p2": {"name": "Bob", "gender": "male", "partnershipIds": ["m1"], "childIds": ["c1"]},
    "c1": {"id": "c1", "parentIds": ["p1", "p2"]}
  },
  "partnerships": {
    "m1": {"id": "m1", "person1Id": "p1", "person2Id": "p2", "status": "married", "childIds": ["c1"]}
  }
}`

func TestReadTree(t *testing.T) {
	tree, err := ReadTree(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(tree.Persons) != 3 {
		t.Errorf("persons = %d, want 3", len(tree.Persons))
	}
	if tree.Persons["p2"].ID != "p2" {
		t.Errorf("missing id should be filled from key, got %q", tree.Persons["p2"].ID)
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadTreeDefaults(t *testing.T) {
	tree, err := ReadTree(strings.NewReader(`{"persons": {"a": null}}`))
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if tree.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", tree.Version, CurrentVersion)
	}
	if tree.Partnerships == nil {
		t.Error("Partnerships should be initialized")
	}
	if _, ok := tree.Persons["a"]; ok {
		t.Error("null person entries should be dropped")
	}
}

func TestReadTreeInvalidJSON(t *testing.T) {
	_, err := ReadTree(strings.NewReader(`{"persons": [`))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestReadTreeFileMissing(t *testing.T) {
	_, err := ReadTreeFile("testdata/does-not-exist.json")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tree)
	}{
		{"unknown parent", func(t *Tree) { t.Persons["c1"].ParentIDs = []string{"ghost"} }},
		{"three parents", func(t *Tree) { t.Persons["c1"].ParentIDs = []string{"p1", "p2", "p1"} }},
		{"unknown partnership", func(t *Tree) { t.Persons["p1"].PartnershipIDs = []string{"m9"} }},
		{"self partnership", func(t *Tree) { t.Partnerships["m1"].Person2ID = "p1" }},
		{"bad status", func(t *Tree) { t.Partnerships["m1"].Status = "engaged" }},
		{"unknown child", func(t *Tree) { t.Partnerships["m1"].ChildIDs = []string{"ghost"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ReadTree(strings.NewReader(sampleDoc))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(tree)
			if err := tree.Validate(); !errors.Is(err, errors.ErrCodeInvalidTree) {
				t.Errorf("Validate() = %v, want INVALID_TREE", err)
			}
		})
	}
}

func TestAddDuplicates(t *testing.T) {
	tree := NewTree()
	if err := tree.AddPerson(Person{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddPerson(Person{ID: "a"}); err == nil {
		t.Error("duplicate person should fail")
	}
	if err := tree.AddPerson(Person{}); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("empty id: %v", err)
	}
	if err := tree.AddPartnership(Partnership{ID: "m"}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddPartnership(Partnership{ID: "m"}); err == nil {
		t.Error("duplicate partnership should fail")
	}
}

func TestMarshalTreeCanonical(t *testing.T) {
	a, err := ReadTree(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTree(&buf, a); err != nil {
		t.Fatal(err)
	}
	b, err := ReadTree(&buf)
	if err != nil {
		t.Fatal(err)
	}

	da, _ := MarshalTree(a)
	db, _ := MarshalTree(b)
	if !bytes.Equal(da, db) {
		t.Errorf("round trip changed canonical encoding:\n%s\n%s", da, db)
	}
}

func TestStatusActive(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusMarried, true},
		{StatusPartners, true},
		{"", true},
		{StatusDivorced, false},
		{StatusSeparated, false},
	}
	for _, tt := range tests {
		if got := tt.status.Active(); got != tt.want {
			t.Errorf("%q.Active() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
