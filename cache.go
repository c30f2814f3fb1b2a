package brace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const cacheEntryExt = ".html"

// CacheConfig is the externally supplied cache surface: enable flag, TTL in
// wall time (0 = never expire), the entry directory and the development-mode
// flag that clears all entries on construction.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Dir     string
	DevMode bool
}

// RenderCache stores rendered output as one file per key under Dir. The key
// is a pure function of (template path, source mtime, render data), so any
// source edit or data change addresses a different entry. Entry creation
// time is the file's mtime.
type RenderCache struct {
	dir     string
	ttl     time.Duration
	devMode bool
	locks   *keyLocks
	log     *slog.Logger
}

// NewRenderCache creates the cache directory if needed. In development mode
// all existing entries are cleared immediately.
func NewRenderCache(cfg CacheConfig, log *slog.Logger) (*RenderCache, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("render cache: directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("render cache: creating %q: %w", cfg.Dir, err)
	}
	c := &RenderCache{
		dir:     cfg.Dir,
		ttl:     cfg.TTL,
		devMode: cfg.DevMode,
		locks:   newKeyLocks(),
		log:     log,
	}
	if cfg.DevMode {
		if err := c.Clear(); err != nil {
			log.Warn("render cache: dev-mode clear failed", "dir", cfg.Dir, "error", err)
		}
	}
	return c, nil
}

// Key derives the deterministic entry key for one (path, mtime, data)
// triple. Data is serialized as canonical JSON (map keys sorted), so
// identical triples always hash identically.
func (c *RenderCache) Key(path string, mtime time.Time, data map[string]any) string {
	h := sha256.New()
	io.WriteString(h, path)
	h.Write([]byte{0})
	io.WriteString(h, strconv.FormatInt(mtime.UnixNano(), 10))
	h.Write([]byte{0})
	if b, err := json.Marshal(data); err == nil {
		h.Write(b)
	} else {
		// Unserializable values still need a stable-enough key.
		fmt.Fprintf(h, "%#v", data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HasValid reports whether an entry exists for key and is inside its TTL.
func (c *RenderCache) HasValid(key string) bool {
	info, err := os.Stat(c.entryPath(key))
	if err != nil {
		return false
	}
	return c.ttl == 0 || time.Since(info.ModTime()) < c.ttl
}

// Get returns the stored content for key, or ErrCacheMiss when no entry
// exists or it has expired. Expired entries are removed lazily here.
func (c *RenderCache) Get(key string) ([]byte, error) {
	p := c.entryPath(key)
	info, err := os.Stat(p)
	if err != nil {
		return nil, ErrCacheMiss
	}
	if c.ttl > 0 && time.Since(info.ModTime()) >= c.ttl {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			c.log.Warn("render cache: removing expired entry", "key", key, "error", err)
		}
		return nil, ErrCacheMiss
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("render cache: reading entry %s: %w", key, err)
	}
	return b, nil
}

// Store writes content for key atomically: a temp file in the cache
// directory followed by a rename, so concurrent readers never observe a
// partial entry.
func (c *RenderCache) Store(key string, content []byte) error {
	tmp, err := os.CreateTemp(c.dir, "."+key+".tmp*")
	if err != nil {
		return fmt.Errorf("render cache: creating temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("render cache: writing entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("render cache: closing entry %s: %w", key, err)
	}
	if err := os.Rename(tmpName, c.entryPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("render cache: publishing entry %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry in the cache directory.
func (c *RenderCache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheEntryExt))
	if err != nil {
		return fmt.Errorf("render cache: listing entries: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("render cache: removing %q: %w", m, err)
		}
	}
	return nil
}

func (c *RenderCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+cacheEntryExt)
}

// lock serializes in-process work per cache key so a simultaneous miss does
// not compile the same template twice; cross-process safety comes from the
// atomic rename in Store.
func (c *RenderCache) lock(key string) {
	c.locks.Lock(key)
}

func (c *RenderCache) unlock(key string) {
	c.locks.Unlock(key)
}

// ----------------------------- Per-key locks ----------------------------------

type keyLocks struct {
	lks map[string]*sync.Mutex
	lk  sync.RWMutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{lks: map[string]*sync.Mutex{}}
}

func (f *keyLocks) Lock(key string) {
	f.lk.Lock()
	lk, ex := f.lks[key]
	if !ex {
		lk = new(sync.Mutex)
		f.lks[key] = lk
	}
	f.lk.Unlock()
	lk.Lock()
}

func (f *keyLocks) Unlock(key string) {
	f.lk.RLock()
	lk := f.lks[key]
	f.lk.RUnlock()
	lk.Unlock()
}
