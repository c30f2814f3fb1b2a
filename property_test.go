//go:build property
// +build property

package brace

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRenderProperties checks language-level invariants over generated input.
func TestRenderProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: brace-free text renders as itself, whatever the data.
	properties.Property("literal identity", prop.ForAll(
		func(text string, key string, val string) bool {
			for _, r := range text {
				if r == '{' || r == '}' {
					return true // only brace-free sources qualify
				}
			}
			tmpl, err := Compile(text)
			if err != nil {
				return false
			}
			out, err := tmpl.RenderString(map[string]any{key: val})
			return err == nil && out == text
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
	))

	// Property: rendering is deterministic for a fixed (template, data) pair.
	properties.Property("deterministic render", prop.ForAll(
		func(val string) bool {
			tmpl, err := Compile("{v|trim|upper}")
			if err != nil {
				return false
			}
			a, err1 := tmpl.RenderString(map[string]any{"v": val})
			b, err2 := tmpl.RenderString(map[string]any{"v": val})
			return err1 == nil && err2 == nil && a == b
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestCacheKeyProperties checks the key derivation contract.
func TestCacheKeyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	cache, err := NewRenderCache(CacheConfig{Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	mtime := time.Now()

	properties.Property("key is deterministic", prop.ForAll(
		func(path string, k string, v string) bool {
			data := map[string]any{k: v}
			return cache.Key(path, mtime, data) == cache.Key(path, mtime, data)
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AnyString(),
	))

	properties.Property("different data yields different keys", prop.ForAll(
		func(path string, k string, v1 string, v2 string) bool {
			if v1 == v2 {
				return true
			}
			a := cache.Key(path, mtime, map[string]any{k: v1})
			b := cache.Key(path, mtime, map[string]any{k: v2})
			return a != b
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
