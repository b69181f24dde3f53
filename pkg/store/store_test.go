package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref, kind, name string
	}{
		{"tree.json", KindFile, "tree.json"},
		{"/data/smith.json", KindFile, "/data/smith.json"},
		{"mongo:smith", KindMongo, "smith"},
		{"C:/trees/x.json", KindFile, "C:/trees/x.json"},
	}
	for _, tt := range tests {
		kind, name := ParseRef(tt.ref)
		if kind != tt.kind || name != tt.name {
			t.Errorf("ParseRef(%q) = %q, %q; want %q, %q", tt.ref, kind, name, tt.kind, tt.name)
		}
	}
}

func TestFileSaveLoadList(t *testing.T) {
	ctx := context.Background()
	f := NewFile(t.TempDir())
	tree := familytest.Nuclear()

	if err := f.Save(ctx, "smith", tree); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := f.Save(ctx, "jones.json", familytest.BothSides()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := f.Load(ctx, "smith")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("loaded tree differs (-saved +loaded):\n%s", diff)
	}

	names, err := f.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"jones", "smith"}, names); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestFileLoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(dir)

	tests := []struct {
		name string
		code errors.Code
	}{
		{"missing", errors.ErrCodeTreeNotFound},
		{"broken", errors.ErrCodeInvalidFormat},
		{"../escape", errors.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Load(ctx, tt.name)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load(%q) = %v, want code %s", tt.name, err, tt.code)
			}
		})
	}
}

func TestFileWithoutRoot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tree.json")
	f := NewFile("")

	if err := f.Save(ctx, path, familytest.Nuclear()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := f.Load(ctx, path); err != nil {
		t.Errorf("Load: %v", err)
	}
	if names, err := f.List(ctx); err != nil || len(names) != 0 {
		t.Errorf("List = %v, %v; want nothing", names, err)
	}
}

func TestRegistryOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	if err := NewFile("").Save(ctx, path, familytest.Nuclear()); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(NewFile(""), nil)
	tree, src, name, err := r.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Kind() != KindFile || name != path || len(tree.Persons) != 4 {
		t.Errorf("Open = %s %s with %d persons", src.Kind(), name, len(tree.Persons))
	}

	if _, _, _, err := r.Open(ctx, "mongo:smith"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Open without mongo = %v, want UNSUPPORTED", err)
	}
}

func TestNewMongoRequiresURI(t *testing.T) {
	if _, err := NewMongo(context.Background(), MongoOptions{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("NewMongo = %v, want INVALID_CONFIG", err)
	}
}

func TestNewMongoBadURI(t *testing.T) {
	if _, err := NewMongo(context.Background(), MongoOptions{URI: "http://localhost"}); err == nil {
		t.Error("NewMongo accepted a non-mongodb URI")
	}
}

func TestMongoError(t *testing.T) {
	if err := mongoError(mongo.ErrNoDocuments, "load tree %s", "x"); !errors.Is(err, errors.ErrCodeTreeNotFound) {
		t.Errorf("ErrNoDocuments mapped to %v", err)
	}
	if err := mongoError(context.DeadlineExceeded, "list trees"); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("deadline mapped to %v", err)
	}
}

func TestTreeDocumentLayout(t *testing.T) {
	doc := treeDocument{ID: "smith", Tree: *familytest.Nuclear()}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"_id", "version", "persons", "partnerships"} {
		if _, ok := m[key]; !ok {
			t.Errorf("document has no %q field: %v", key, m)
		}
	}
	if m["_id"] != "smith" {
		t.Errorf("_id = %v", m["_id"])
	}
}
