package brace

import (
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter is a pure single-value transform applied via |name syntax. Filters
// are bound at parse time, so an unknown name fails compilation.
type Filter func(v any) (any, error)

// FilterMap maps filter names to transforms.
type FilterMap map[string]Filter

var (
	sanitizeOnce   sync.Once
	sanitizePolicy *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	sanitizeOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy
}

// DefaultFilters returns the built-in registry. raw marks a value as trusted
// so the renderer skips HTML escaping; sanitize strips unsafe markup with a
// user-generated-content policy and implies raw.
func DefaultFilters() FilterMap {
	titleCaser := cases.Title(language.Und)
	return FilterMap{
		"length": filterLength,
		"count":  filterLength,
		"upper": func(v any) (any, error) {
			return strings.ToUpper(toString(v)), nil
		},
		"uppercase": func(v any) (any, error) {
			return strings.ToUpper(toString(v)), nil
		},
		"lower": func(v any) (any, error) {
			return strings.ToLower(toString(v)), nil
		},
		"lowercase": func(v any) (any, error) {
			return strings.ToLower(toString(v)), nil
		},
		"capitalize": func(v any) (any, error) {
			return capitalize(toString(v)), nil
		},
		"trim": func(v any) (any, error) {
			return strings.TrimSpace(toString(v)), nil
		},
		"title": func(v any) (any, error) {
			return titleCaser.String(toString(v)), nil
		},
		"round": filterRound,
		"stars": filterStars,
		"raw": func(v any) (any, error) {
			return v, nil
		},
		"sanitize": func(v any) (any, error) {
			return ugcPolicy().Sanitize(toString(v)), nil
		},
	}
}

// merge overlays extra filters on top of m, returning a fresh map.
func (m FilterMap) merge(extra FilterMap) FilterMap {
	out := make(FilterMap, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// filterLength counts runes of strings and elements of collections.
func filterLength(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x), nil
	case []byte:
		return utf8.RuneCount(x), nil
	case map[string]any:
		return len(x), nil
	default:
		if seq, ok := asSequence(v); ok {
			return len(seq), nil
		}
		return 0, nil
	}
}

// filterRound rounds half away from zero to the nearest integer. Non-numeric
// input passes through unchanged.
func filterRound(v any) (any, error) {
	f, ok := toFloat(v)
	if !ok {
		return v, nil
	}
	return int64(math.Round(f)), nil
}

// filterStars renders a 0-5 rating as filled stars padded with empty stars.
func filterStars(v any) (any, error) {
	f, ok := toFloat(v)
	if !ok {
		f = 0
	}
	n := int(math.Round(f))
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n), nil
}

// capitalize upper-cases the first rune only, leaving the rest untouched.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	u := unicode.ToUpper(r)
	if u == r {
		return s
	}
	return string(u) + s[size:]
}
