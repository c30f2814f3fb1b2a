package brace

import (
	"io"
	"strings"
)

// ----------------------------- Public compile API -----------------------------

// Template is a compiled template, safe for concurrent renders.
type Template struct {
	root node
}

type compileOptions struct {
	filters FilterMap
}

// CompileOption adjusts compilation.
type CompileOption func(*compileOptions)

// WithFilters overlays extra filters on the default registry for this
// compilation. Names registered here resolve in |pipe syntax.
func WithFilters(extra FilterMap) CompileOption {
	return func(co *compileOptions) { co.filters = co.filters.merge(extra) }
}

// Compile parses src into a render-ready node tree. Structural errors
// (unmatched blocks, unknown directives, unknown filters) are reported as
// *ParseError; nothing is ever partially compiled.
func Compile(src string, opts ...CompileOption) (*Template, error) {
	co := compileOptions{filters: DefaultFilters()}
	for _, o := range opts {
		o(&co)
	}
	return compileWith(src, co.filters)
}

func compileWith(src string, filters FilterMap) (*Template, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	root, err := parseTokens(toks, filters)
	if err != nil {
		return nil, err
	}
	return &Template{root: root}, nil
}

// Render executes the template against data into w. data is read-only for
// the renderer; loop scopes live on a transient stack.
func (t *Template) Render(w io.Writer, data map[string]any) error {
	if t.root == nil {
		return nil
	}
	ctx := renderCtxPool.Get().(*renderCtx)
	ctx.reset(data)
	defer renderCtxPool.Put(ctx)
	return t.root.render(ctx, w)
}

// RenderString renders into a pooled builder and returns the result.
func (t *Template) RenderString(data map[string]any) (string, error) {
	sb := stringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	defer stringBuilderPool.Put(sb)
	if err := t.Render(sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
