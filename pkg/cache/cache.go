// Package cache stores computed layouts between runs.
//
// Backends implement [Cache]: [NullCache] disables caching, [FileCache]
// keeps entries on disk for the CLI and [RedisCache] shares them between
// service instances. Keys come from a [Keyer] so every entry for one tree
// shares a prefix, and [Invalidator] drops them all at once when the tree
// changes. There is no process-wide cache; callers own their Cache value
// and pass it where it is needed.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLDebug  = time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Invalidator is implemented by caches that can drop every entry under a
// key prefix.
type Invalidator interface {
	// Invalidate deletes every entry whose key starts with prefix and
	// returns how many were removed.
	Invalidate(ctx context.Context, prefix string) (int, error)
}

// Invalidate drops every entry under prefix if c supports it. Caches that
// don't report zero removals.
func Invalidate(ctx context.Context, c Cache, prefix string) (int, error) {
	if inv, ok := c.(Invalidator); ok {
		return inv.Invalidate(ctx, prefix)
	}
	return 0, nil
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies one layout of a tree. params holds everything
	// else the layout depends on (focus, policy, config, options) and is
	// hashed as JSON.
	LayoutKey(treeHash string, kind string, params any) string
	// TreePrefix is the prefix shared by every key of a tree.
	TreePrefix(treeHash string) string
}

// DefaultKeyer produces keys of the form layout:<tree hash>:<kind>:<params hash>.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(treeHash, kind string, params any) string {
	return hashKey("layout:"+treeHash+":"+kind, params)
}

// TreePrefix implements Keyer.
func (DefaultKeyer) TreePrefix(treeHash string) string {
	return "layout:" + treeHash + ":"
}
