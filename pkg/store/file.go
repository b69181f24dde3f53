package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// KindFile is the file source's kind.
const KindFile = "file"

// File reads JSON tree documents. With an empty root, names are paths;
// otherwise they are file names under root, with or without ".json".
type File struct {
	root string
}

// NewFile returns a file source rooted at root.
func NewFile(root string) *File {
	return &File{root: root}
}

func (f *File) Kind() string { return KindFile }

func (f *File) path(name string) (string, error) {
	if f.root == "" {
		if name == "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "tree path is required")
		}
		return name, nil
	}
	if err := errors.ValidateTreeName(strings.TrimSuffix(name, ".json")); err != nil {
		return "", err
	}
	if filepath.Ext(name) != ".json" {
		name += ".json"
	}
	return filepath.Join(f.root, name), nil
}

func (f *File) Load(ctx context.Context, name string) (*family.Tree, error) {
	path, err := f.path(name)
	if err != nil {
		return nil, err
	}
	t, err := family.ReadTreeFile(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return nil, errors.Wrap(errors.ErrCodeTreeNotFound, err, "tree %s not found", name)
	}
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (f *File) Save(ctx context.Context, name string, t *family.Tree) error {
	path, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := family.WriteTree(out, t); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

// List returns the tree names under root, without extension. A source
// without a root lists nothing.
func (f *File) List(ctx context.Context) ([]string, error) {
	if f.root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(f.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ Source = (*File)(nil)
