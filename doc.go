// Package brace implements a small brace-delimited template language for
// HTML generation: {name} output expressions with a filter pipeline,
// {% if %} / {% elseif %} / {% else %} conditionals, {% foreach %} loops
// over collections and {% for %} integer range loops.
//
// Rendered output is HTML-escaped unless a value is piped through the raw
// or sanitize filters. Rendering degrades gracefully: a missing name or
// path segment produces empty output instead of an error, and a foreach
// over absent data renders nothing.
//
// The Engine adds a compiled-template cache and an optional file-backed
// render cache keyed on template path, source modification time and a hash
// of the render data, so any edit to a template or change in data
// addresses a different cache entry.
package brace
