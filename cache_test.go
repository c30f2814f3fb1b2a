package brace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, cfg CacheConfig) *RenderCache {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	c, err := NewRenderCache(cfg, nil)
	require.NoError(t, err)
	return c
}

func TestCacheKeyDeterministic(t *testing.T) {
	c := newTestCache(t, CacheConfig{})
	mtime := time.Now()
	data := map[string]any{"b": 2, "a": 1}

	k1 := c.Key("page.html", mtime, data)
	k2 := c.Key("page.html", mtime, map[string]any{"a": 1, "b": 2})
	assert.Equal(t, k1, k2, "map insertion order must not affect the key")
}

func TestCacheKeyDistinct(t *testing.T) {
	c := newTestCache(t, CacheConfig{})
	mtime := time.Now()
	data := map[string]any{"a": 1}

	base := c.Key("page.html", mtime, data)
	assert.NotEqual(t, base, c.Key("other.html", mtime, data))
	assert.NotEqual(t, base, c.Key("page.html", mtime.Add(time.Nanosecond), data))
	assert.NotEqual(t, base, c.Key("page.html", mtime, map[string]any{"a": 2}))
}

func TestCacheStoreGetRoundTrip(t *testing.T) {
	c := newTestCache(t, CacheConfig{})
	key := c.Key("p", time.Now(), nil)

	_, err := c.Get(key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, c.HasValid(key))

	require.NoError(t, c.Store(key, []byte("<p>hello</p>")))
	assert.True(t, c.HasValid(key))

	b, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(b))
}

func TestCacheStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, CacheConfig{Dir: dir})
	key := c.Key("p", time.Now(), nil)
	require.NoError(t, c.Store(key, []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key+cacheEntryExt, entries[0].Name())
}

func TestCacheTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, CacheConfig{Dir: dir, TTL: time.Minute})
	key := c.Key("p", time.Now(), nil)
	require.NoError(t, c.Store(key, []byte("x")))
	assert.True(t, c.HasValid(key))

	// Age the entry past its TTL.
	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(dir, key+cacheEntryExt), old, old))

	assert.False(t, c.HasValid(key))
	_, err := c.Get(key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Expired entries are removed lazily on read.
	_, statErr := os.Stat(filepath.Join(dir, key+cacheEntryExt))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, CacheConfig{Dir: dir})
	key := c.Key("p", time.Now(), nil)
	require.NoError(t, c.Store(key, []byte("x")))

	old := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, key+cacheEntryExt), old, old))
	assert.True(t, c.HasValid(key))
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, CacheConfig{Dir: dir})
	require.NoError(t, c.Store(c.Key("a", time.Now(), nil), []byte("1")))
	require.NoError(t, c.Store(c.Key("b", time.Now(), nil), []byte("2")))

	require.NoError(t, c.Clear())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheDevModeClearsOnConstruction(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "deadbeef"+cacheEntryExt)
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	newTestCache(t, CacheConfig{Dir: dir, DevMode: true})
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestCacheCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	newTestCache(t, CacheConfig{Dir: dir})
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCacheRequiresDirectory(t *testing.T) {
	_, err := NewRenderCache(CacheConfig{}, nil)
	assert.Error(t, err)
}

func TestKeyLocksSerialize(t *testing.T) {
	locks := newKeyLocks()
	locks.Lock("k")

	acquired := make(chan struct{})
	go func() {
		locks.Lock("k")
		locks.Unlock("k")
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	locks.Unlock("k")
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}
