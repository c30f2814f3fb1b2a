package brace

import "strconv"

// ----------------------------- Path resolution --------------------------------

// scopeEntry is one loop-local binding. The renderer pushes an entry when it
// enters a loop body and pops it on exit; the caller's data is never touched.
type scopeEntry struct {
	name  string
	value any
}

// lookup resolves a dotted path against the render context. Only the first
// segment consults the scope stack (innermost binding wins, shadowing outer
// names and root data); the remaining segments walk strictly inside the
// resolved value. A missing segment yields ok=false, never an error.
func (ctx *renderCtx) lookup(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	var cur any
	found := false
	head := path[0]
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if ctx.scopes[i].name == head {
			cur = ctx.scopes[i].value
			found = true
			break
		}
	}
	if !found {
		if ctx.data == nil {
			return nil, false
		}
		v, ok := ctx.data[head]
		if !ok {
			return nil, false
		}
		cur = v
	}

	for _, seg := range path[1:] {
		v, ok := access(cur, seg)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// access steps one segment into a container value. Only plain maps and
// slices participate; any other value ends resolution.
func access(v any, key string) (any, bool) {
	switch c := v.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	case []any:
		return index(c, key)
	case []map[string]any:
		return index(c, key)
	case []string:
		return index(c, key)
	default:
		return nil, false
	}
}

func index[T any](s []T, key string) (any, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(s) {
		return nil, false
	}
	return s[i], true
}

// asSequence normalizes a value into an ordered element list for foreach.
// Maps are unordered and deliberately excluded.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}
