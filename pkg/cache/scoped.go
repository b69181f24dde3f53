package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each caller
// (CLI, HTTP service) its own namespace in a shared backend.
//
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(treeHash, kind string, params any) string {
	return k.prefix + k.inner.LayoutKey(treeHash, kind, params)
}

// TreePrefix implements Keyer.
func (k *ScopedKeyer) TreePrefix(treeHash string) string {
	return k.prefix + k.inner.TreePrefix(treeHash)
}
