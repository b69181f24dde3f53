package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/store"
)

// Cache key kinds.
const (
	kindResult = "result"
	kindDebug  = "debug"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner holds no results of its own. Multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached layouts. Zero means cache.TTLLayout.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load resolves a tree reference against the registry's stores.
func (r *Runner) Load(ctx context.Context, reg *store.Registry, ref string) (*family.Tree, error) {
	kind, name := store.ParseRef(ref)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, kind, name)

	start := time.Now()
	t, _, _, err := reg.Open(ctx, ref)
	persons := 0
	if t != nil {
		persons = len(t.Persons)
	}
	hooks.OnLoadComplete(ctx, kind, name, persons, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("loaded tree", "source", kind, "name", name, "persons", persons)
	return t, nil
}

// Execute computes the layout (through the cache) and renders the
// requested artifacts.
func (r *Runner) Execute(ctx context.Context, tree *family.Tree, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hash, err := TreeHash(tree)
	if err != nil {
		return nil, err
	}
	return r.execute(ctx, tree, hash, opts)
}

func (r *Runner) execute(ctx context.Context, tree *family.Tree, hash string, opts Options) (*Result, error) {
	start := time.Now()
	res, hit, err := r.layout(ctx, tree, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result := &Result{
		Layout:    res,
		TreeHash:  hash,
		Stats:     newStats(res),
		CacheInfo: CacheInfo{LayoutHit: hit},
	}
	result.Stats.LayoutTime = time.Since(start)

	renderStart := time.Now()
	artifacts, err := Render(tree, res, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("computed layout",
		"focus", opts.Focus,
		"persons", result.Stats.Persons,
		"cached", hit,
		"duration", result.Stats.LayoutTime)
	if !res.Diagnostics.ValidationPassed {
		r.Logger.Warn("layout failed validation", "focus", opts.Focus, "errors", len(res.Diagnostics.Errors))
	}
	return result, nil
}

// LayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, tree *family.Tree, opts Options) (layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Result{}, false, err
	}
	hash, err := TreeHash(tree)
	if err != nil {
		return layout.Result{}, false, err
	}
	return r.layout(ctx, tree, hash, opts)
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, tree *family.Tree, opts Options) (layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, tree, opts)
	return res, err
}

func (r *Runner) layout(ctx context.Context, tree *family.Tree, hash string, opts Options) (res layout.Result, hit bool, err error) {
	if err := r.checkFocus(ctx, tree, opts.Focus); err != nil {
		return layout.Result{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Focus)
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, opts.Focus, len(res.Positions), res.Diagnostics.ValidationPassed, time.Since(start), err)
	}()

	key := r.Keyer.LayoutKey(hash, kindResult, opts.keyParams())
	if !opts.Refresh && r.get(ctx, key, &res) {
		return res, true, nil
	}

	res = layout.Compute(tree, opts.Focus, opts.Policy, opts.Config, opts.layoutOptions()...)
	r.put(ctx, key, res, r.layoutTTL())
	return res, false, nil
}

// debugEntry is the cached form of a debug run.
type debugEntry struct {
	Result    layout.Result     `json:"result"`
	Snapshots []layout.Snapshot `json:"snapshots"`
}

// Debug computes a layout together with the per-stage snapshots.
func (r *Runner) Debug(ctx context.Context, tree *family.Tree, opts Options) (layout.Result, []layout.Snapshot, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Result{}, nil, err
	}
	hash, err := TreeHash(tree)
	if err != nil {
		return layout.Result{}, nil, err
	}
	if err := r.checkFocus(ctx, tree, opts.Focus); err != nil {
		return layout.Result{}, nil, err
	}

	var entry debugEntry
	key := r.Keyer.LayoutKey(hash, kindDebug, opts.keyParams())
	if !opts.Refresh && r.get(ctx, key, &entry) {
		return entry.Result, entry.Snapshots, nil
	}

	entry.Result, entry.Snapshots = layout.ComputeDebug(tree, opts.Focus, opts.Policy, opts.Config, opts.layoutOptions()...)
	r.put(ctx, key, entry, cache.TTLDebug)
	r.Logger.Debug("recorded layout stages", "focus", opts.Focus, "snapshots", len(entry.Snapshots))
	return entry.Result, entry.Snapshots, nil
}

// Batch runs Execute for every focus person concurrently. Results are in
// the order of focusIDs; the first failure cancels the rest.
func (r *Runner) Batch(ctx context.Context, tree *family.Tree, focusIDs []string, opts Options) ([]*Result, error) {
	if len(focusIDs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no focus persons given")
	}
	hash, err := TreeHash(tree)
	if err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	results := make([]*Result, len(focusIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range focusIDs {
		o := opts
		o.Focus = id
		o.validated = false
		g.Go(func() error {
			if err := o.ValidateAndSetDefaults(); err != nil {
				return err
			}
			res, err := r.execute(ctx, tree, hash, o)
			if err != nil {
				return fmt.Errorf("focus %s: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Invalidate drops every cached layout of tree and returns how many
// entries were removed.
func (r *Runner) Invalidate(ctx context.Context, tree *family.Tree) (int, error) {
	hash, err := TreeHash(tree)
	if err != nil {
		return 0, err
	}
	prefix := r.Keyer.TreePrefix(hash)
	n, err := cache.Invalidate(ctx, r.Cache, prefix)
	if err != nil {
		return n, fmt.Errorf("invalidate %s: %w", prefix, err)
	}
	observability.Cache().OnCacheInvalidate(ctx, prefix, n)
	r.Logger.Debug("invalidated cached layouts", "prefix", prefix, "removed", n)
	return n, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// checkFocus rejects a focus the tree does not contain. The layout itself
// returns an empty result for it; callers of the pipeline get an error.
func (r *Runner) checkFocus(ctx context.Context, tree *family.Tree, focus string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := tree.Person(focus); !ok {
		return errors.New(errors.ErrCodePersonNotFound, "person %q not found in tree", focus)
	}
	return nil
}

// get decodes a cached entry into v. Read and decode failures count as misses.
func (r *Runner) get(ctx context.Context, key string, v any) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, key)
		return false
	}
	observability.Cache().OnCacheHit(ctx, key)
	r.Logger.Debug("cache hit", "key", key)
	return true
}

// put stores v under key. Failures are logged and otherwise ignored.
func (r *Runner) put(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Debug("layout not cacheable", "key", key, "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

func (r *Runner) layoutTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLLayout
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
