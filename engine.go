package brace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ----------------------------- Engine -----------------------------------------

// Engine renders template files with two cache layers: an in-memory
// compiled-template cache with mtime staleness checks, and the optional
// file-backed RenderCache for finished output. Cache failures never block a
// successful render; they are logged and the fresh result is returned.
type Engine struct {
	filters FilterMap
	cache   *RenderCache
	log     *slog.Logger

	mu       sync.RWMutex
	compiled map[string]*compiledTemplate

	hits     atomic.Int64
	misses   atomic.Int64
	compiles atomic.Int64
}

type compiledTemplate struct {
	tmpl    *Template
	modTime time.Time
}

type engineOptions struct {
	cache   CacheConfig
	filters FilterMap
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithCache enables the file-backed render cache.
func WithCache(cfg CacheConfig) Option {
	return func(eo *engineOptions) { eo.cache = cfg }
}

// WithEngineFilters overlays extra filters on the default registry for every
// template the engine compiles.
func WithEngineFilters(extra FilterMap) Option {
	return func(eo *engineOptions) { eo.filters = eo.filters.merge(extra) }
}

// WithLogger sets the structured logger; slog.Default() otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(eo *engineOptions) { eo.log = log }
}

// New builds an Engine. With a development-mode cache config, all previously
// cached output is cleared here.
func New(opts ...Option) (*Engine, error) {
	eo := engineOptions{filters: DefaultFilters()}
	for _, o := range opts {
		o(&eo)
	}
	if eo.log == nil {
		eo.log = slog.Default()
	}
	e := &Engine{
		filters:  eo.filters,
		log:      eo.log,
		compiled: make(map[string]*compiledTemplate),
	}
	if eo.cache.Enabled {
		c, err := NewRenderCache(eo.cache, eo.log)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

// Render renders the template file at path against data, consulting the
// render cache when enabled. Concurrent misses for the same key are
// serialized so the template renders once.
func (e *Engine) Render(path string, data map[string]any) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("template %q: %w", path, err)
	}

	var key string
	if e.cache != nil {
		key = e.cache.Key(path, info.ModTime(), data)
		e.cache.lock(key)
		defer e.cache.unlock(key)

		if b, err := e.cache.Get(key); err == nil {
			e.hits.Add(1)
			return string(b), nil
		} else if !errors.Is(err, ErrCacheMiss) {
			// Read failure falls through to a fresh render.
			e.log.Warn("render cache read failed", "path", path, "error", err)
		}
		e.misses.Add(1)
	}

	tmpl, err := e.compileFile(path, info.ModTime())
	if err != nil {
		return "", err
	}
	out, err := tmpl.RenderString(data)
	if err != nil {
		return "", fmt.Errorf("rendering %q: %w", path, err)
	}

	if e.cache != nil {
		if err := e.cache.Store(key, []byte(out)); err != nil {
			e.log.Warn("render cache store failed", "path", path, "error", err)
		}
	}
	return out, nil
}

// RenderWriter renders path against data into w.
func (e *Engine) RenderWriter(w io.Writer, path string, data map[string]any) error {
	out, err := e.Render(path, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// CompileString compiles a template source with the engine's filter
// registry, bypassing both caches.
func (e *Engine) CompileString(src string) (*Template, error) {
	return compileWith(src, e.filters)
}

// ClearCache removes all render cache entries. A no-op when caching is
// disabled.
func (e *Engine) ClearCache() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Clear()
}

// compileFile returns the compiled template for path, reusing the in-memory
// copy while the source is unchanged.
func (e *Engine) compileFile(path string, mtime time.Time) (*Template, error) {
	e.mu.RLock()
	c, ok := e.compiled[path]
	e.mu.RUnlock()
	if ok && !c.modTime.Before(mtime) {
		return c.tmpl, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %q: %w", path, err)
	}
	tmpl, err := compileWith(string(src), e.filters)
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", path, err)
	}
	e.compiles.Add(1)

	e.mu.Lock()
	e.compiled[path] = &compiledTemplate{tmpl: tmpl, modTime: mtime}
	e.mu.Unlock()
	return tmpl, nil
}

// invalidate drops the compiled copy of path. Render cache entries key on
// the source mtime, so they age out on their own once the file changes.
func (e *Engine) invalidate(path string) {
	e.mu.Lock()
	delete(e.compiled, path)
	e.mu.Unlock()
	if e.cache != nil && e.cache.devMode {
		if err := e.cache.Clear(); err != nil {
			e.log.Warn("render cache clear failed", "path", path, "error", err)
		}
	}
}

// Stats reports cache hit/miss and compile counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Compiles int64
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:     e.hits.Load(),
		Misses:   e.misses.Load(),
		Compiles: e.compiles.Load(),
	}
}
