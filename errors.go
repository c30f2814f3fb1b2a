package brace

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by RenderCache.Get when no entry exists for a key
// or the entry has expired.
var ErrCacheMiss = errors.New("cache entry missing or expired")

// ParseError describes a structural template error: an unmatched or
// misordered block directive, an unknown directive keyword or an unknown
// filter name. Pos is the byte offset of the offending fragment in the
// template source.
type ParseError struct {
	Pos      int
	Fragment string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("parse error at offset %d: %s: %q", e.Pos, e.Message, e.Fragment)
}
