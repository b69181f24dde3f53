// Package store loads and saves family tree documents.
//
// A tree reference is either a JSON file path or "mongo:<name>" for a
// document in the configured MongoDB collection. [Open] resolves a
// reference against a [Registry] of sources.
package store

import (
	"context"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Source is a place trees are kept.
type Source interface {
	// Kind names the backend ("file", "mongo").
	Kind() string
	Load(ctx context.Context, name string) (*family.Tree, error)
	Save(ctx context.Context, name string, t *family.Tree) error
	List(ctx context.Context) ([]string, error)
}

// Registry maps reference schemes to sources. The file source serves
// references without a scheme.
type Registry struct {
	sources map[string]Source
}

// NewRegistry registers sources by their Kind.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range sources {
		if s != nil {
			r.sources[s.Kind()] = s
		}
	}
	return r
}

// Source returns the source for a kind.
func (r *Registry) Source(kind string) (Source, bool) {
	s, ok := r.sources[kind]
	return s, ok
}

// ParseRef splits a reference into source kind and name. References
// without a known scheme are file paths.
func ParseRef(ref string) (kind, name string) {
	if k, n, ok := strings.Cut(ref, ":"); ok && k == KindMongo {
		return k, n
	}
	return KindFile, ref
}

// Open loads the tree a reference points to.
func (r *Registry) Open(ctx context.Context, ref string) (*family.Tree, Source, string, error) {
	kind, name := ParseRef(ref)
	s, ok := r.sources[kind]
	if !ok {
		return nil, nil, "", errors.New(errors.ErrCodeUnsupported, "no %s store configured for %q", kind, ref)
	}
	t, err := s.Load(ctx, name)
	if err != nil {
		return nil, nil, "", err
	}
	return t, s, name, nil
}
