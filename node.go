package brace

import (
	"fmt"
	"io"
)

// ----------------------------- Node tree & rendering --------------------------

type node interface {
	render(*renderCtx, io.Writer) error
}

// renderCtx carries the root data and the loop-scope stack through one
// render. Contexts are pooled; see pool.go.
type renderCtx struct {
	data   map[string]any
	scopes []scopeEntry
}

func (ctx *renderCtx) reset(data map[string]any) {
	ctx.data = data
	ctx.scopes = ctx.scopes[:0]
}

func (ctx *renderCtx) push(name string, value any) {
	ctx.scopes = append(ctx.scopes, scopeEntry{name: name, value: value})
}

func (ctx *renderCtx) pop() {
	ctx.scopes = ctx.scopes[:len(ctx.scopes)-1]
}

type textNode struct{ text string }

func (n textNode) render(_ *renderCtx, w io.Writer) error {
	_, err := io.WriteString(w, n.text)
	return err
}

// outputNode writes a resolved path through its filter pipeline. Output is
// HTML-escaped unless the pipeline carries a raw-marking filter. An
// unresolved path writes nothing.
type outputNode struct {
	path  []string
	pipes []pipe
	raw   bool
}

func (n outputNode) render(ctx *renderCtx, w io.Writer) error {
	v, ok := ctx.lookup(n.path)
	if !ok {
		return nil
	}
	for _, p := range n.pipes {
		var err error
		v, err = p.fn(v)
		if err != nil {
			return fmt.Errorf("filter %q: %w", p.name, err)
		}
	}
	s := toString(v)
	if !n.raw {
		s = htmlEscape(s)
	}
	_, err := io.WriteString(w, s)
	return err
}

type branch struct {
	cond condExpr
	body node
}

// ifNode renders the body of the first branch whose condition holds, or the
// else body when none do.
type ifNode struct {
	branches []branch
	elseBody node
}

func (n ifNode) render(ctx *renderCtx, w io.Writer) error {
	for _, b := range n.branches {
		if b.cond.eval(ctx) {
			if b.body == nil {
				return nil
			}
			return b.body.render(ctx, w)
		}
	}
	if n.elseBody != nil {
		return n.elseBody.render(ctx, w)
	}
	return nil
}

// foreachNode iterates a collection in source order, binding each element
// under the alias in a transient scope. A non-sequence or absent collection
// renders nothing.
type foreachNode struct {
	path  []string
	alias string
	body  node
}

func (n foreachNode) render(ctx *renderCtx, w io.Writer) error {
	v, ok := ctx.lookup(n.path)
	if !ok || n.body == nil {
		return nil
	}
	seq, ok := asSequence(v)
	if !ok {
		return nil
	}
	for _, item := range seq {
		ctx.push(n.alias, item)
		err := n.body.render(ctx, w)
		ctx.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// forNode iterates the inclusive integer range [from, to] ascending.
type forNode struct {
	name     string
	from, to int
	body     node
}

func (n forNode) render(ctx *renderCtx, w io.Writer) error {
	if n.body == nil {
		return nil
	}
	for i := n.from; i <= n.to; i++ {
		ctx.push(n.name, i)
		err := n.body.render(ctx, w)
		ctx.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

type seqNode []node

func (s seqNode) render(ctx *renderCtx, w io.Writer) error {
	for _, n := range s {
		if err := n.render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// sequence collapses a node list: nil for empty bodies, the single node
// when there is only one.
func sequence(nodes []node) node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return seqNode(nodes)
}

// ----------------------------- Conditions -------------------------------------

// operand is one side of a condition: a literal or a dotted path.
type operand struct {
	lit  any
	path []string
}

func (o operand) value(ctx *renderCtx) any {
	if o.path == nil {
		return o.lit
	}
	v, ok := ctx.lookup(o.path)
	if !ok {
		return nil
	}
	return v
}

// condExpr is `path`, `not path` or `left == right`.
type condExpr struct {
	negate bool
	eq     bool
	lhs    operand
	rhs    operand
}

func (c condExpr) eval(ctx *renderCtx) bool {
	var res bool
	if c.eq {
		res = looseEqual(c.lhs.value(ctx), c.rhs.value(ctx))
	} else {
		res = truthy(c.lhs.value(ctx))
	}
	if c.negate {
		return !res
	}
	return res
}

// looseEqual compares numerically when both sides are numeric, otherwise by
// display form. An unresolved side compares as the empty string.
func looseEqual(l, r any) bool {
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	return toString(l) == toString(r)
}
