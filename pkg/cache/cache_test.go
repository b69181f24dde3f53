package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if n, err := Invalidate(ctx, c, ""); n != 0 || err != nil {
		t.Errorf("Invalidate = %d, %v", n, err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("hit on empty cache")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v; want v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	k := NewDefaultKeyer()

	keys := []string{
		k.LayoutKey("treeA", "layout", "p1"),
		k.LayoutKey("treeA", "layout", "p2"),
		k.LayoutKey("treeA", "debug", "p1"),
		k.LayoutKey("treeB", "layout", "p1"),
	}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	n, err := Invalidate(ctx, c, k.TreePrefix("treeA"))
	if err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if n != 3 {
		t.Errorf("Invalidate removed %d, want 3", n)
	}
	for _, key := range keys[:3] {
		if _, hit, _ := c.Get(ctx, key); hit {
			t.Errorf("%s survived invalidation", key)
		}
	}
	if _, hit, _ := c.Get(ctx, keys[3]); !hit {
		t.Error("other tree's entry was invalidated")
	}

	n, err = c.Clear(ctx)
	if err != nil || n != 1 {
		t.Errorf("Clear = %d, %v; want 1", n, err)
	}
}

func TestFileCacheInvalidateMissingDir(t *testing.T) {
	c := &FileCache{dir: filepath.Join(t.TempDir(), "gone")}
	if n, err := c.Invalidate(context.Background(), ""); n != 0 || err != nil {
		t.Errorf("Invalidate = %d, %v", n, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	type params struct {
		Focus string
		Depth int
	}
	a := k.LayoutKey("abc", "layout", params{"p1", 2})
	b := k.LayoutKey("abc", "layout", params{"p1", 3})
	if a == b {
		t.Error("different params produced the same key")
	}
	if a != k.LayoutKey("abc", "layout", params{"p1", 2}) {
		t.Error("LayoutKey is not deterministic")
	}
	if a == k.LayoutKey("abc", "debug", params{"p1", 2}) {
		t.Error("different kinds produced the same key")
	}
	if !strings.HasPrefix(a, k.TreePrefix("abc")) {
		t.Errorf("%s does not start with tree prefix %s", a, k.TreePrefix("abc"))
	}
	if strings.HasPrefix(a, k.TreePrefix("ab")) {
		t.Error("tree prefix matches a different tree")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "api:")
	inner := NewDefaultKeyer()

	if got, want := scoped.TreePrefix("abc"), "api:"+inner.TreePrefix("abc"); got != want {
		t.Errorf("TreePrefix = %s, want %s", got, want)
	}
	key := scoped.LayoutKey("abc", "layout", 1)
	if key != "api:"+inner.LayoutKey("abc", "layout", 1) {
		t.Errorf("LayoutKey = %s", key)
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct{ prefix, want string }{
		{"", "*"},
		{"layout:abc:", "layout:abc:*"},
		{"a*b?[c]\\", `a\*b\?\[c\]\\*`},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.prefix); got != tt.want {
			t.Errorf("matchPattern(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://localhost"); err == nil {
		t.Error("NewRedisCache accepted a non-redis URL")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransient(t *testing.T) {
	if !IsRetryable(transient(timeoutErr{})) {
		t.Error("timeout not retryable")
	}
	if IsRetryable(transient(errors.New("WRONGTYPE"))) {
		t.Error("command error retryable")
	}
	if transient(nil) != nil {
		t.Error("transient(nil) != nil")
	}
}

var errFlaky = errors.New("flaky")

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, time.Millisecond, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, time.Millisecond, func() error { calls++; return errFlaky })
	if err != errFlaky || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(errFlaky)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, time.Millisecond, func() error { calls++; return Retryable(errFlaky) })
	if err != errFlaky || calls != retryAttempts {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, time.Second, func() error { return Retryable(errFlaky) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
