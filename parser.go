package brace

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------- Block parser -----------------------------------

// frame is one open block on the parse stack. The root frame has kind
// tokenLiteral and collects top-level nodes. if frames additionally track
// sealed branches and the condition of the branch being collected.
type frame struct {
	open     *token
	kind     tokenKind
	nodes    []node
	branches []branch
	cond     condExpr
	inElse   bool
}

// parseTokens builds the node tree with an explicit stack of open blocks.
// Filters are resolved against the registry here so an unknown filter name
// fails the parse instead of surfacing mid-render.
func parseTokens(toks []token, filters FilterMap) (node, error) {
	stack := []*frame{{kind: tokenLiteral}}
	top := func() *frame { return stack[len(stack)-1] }
	appendNode := func(n node) {
		f := top()
		f.nodes = append(f.nodes, n)
	}

	for i := range toks {
		tok := &toks[i]
		switch tok.kind {
		case tokenLiteral:
			appendNode(textNode{text: tok.text})

		case tokenOutput:
			n, err := compileOutput(tok, filters)
			if err != nil {
				return nil, err
			}
			appendNode(n)

		case tokenIfOpen:
			cond, err := parseCond(tok)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &frame{open: tok, kind: tokenIfOpen, cond: cond})

		case tokenElseIf:
			f := top()
			if f.kind != tokenIfOpen {
				return nil, unexpectedClose(tok, f, len(stack)-1)
			}
			if f.inElse {
				return nil, &ParseError{Pos: tok.pos, Fragment: tok.text, Message: "elseif after else"}
			}
			cond, err := parseCond(tok)
			if err != nil {
				return nil, err
			}
			f.branches = append(f.branches, branch{cond: f.cond, body: sequence(f.nodes)})
			f.nodes = nil
			f.cond = cond

		case tokenElse:
			f := top()
			if f.kind != tokenIfOpen {
				return nil, unexpectedClose(tok, f, len(stack)-1)
			}
			if f.inElse {
				return nil, &ParseError{Pos: tok.pos, Fragment: tok.text, Message: "duplicate else"}
			}
			f.branches = append(f.branches, branch{cond: f.cond, body: sequence(f.nodes)})
			f.nodes = nil
			f.inElse = true

		case tokenIfClose:
			f := top()
			if f.kind != tokenIfOpen {
				return nil, unexpectedClose(tok, f, len(stack)-1)
			}
			n := ifNode{branches: f.branches}
			if f.inElse {
				n.elseBody = sequence(f.nodes)
			} else {
				n.branches = append(n.branches, branch{cond: f.cond, body: sequence(f.nodes)})
			}
			stack = stack[:len(stack)-1]
			appendNode(n)

		case tokenForeachOpen:
			stack = append(stack, &frame{open: tok, kind: tokenForeachOpen})

		case tokenForeachClose:
			f := top()
			if f.kind != tokenForeachOpen {
				return nil, unexpectedClose(tok, f, len(stack)-1)
			}
			stack = stack[:len(stack)-1]
			appendNode(foreachNode{
				path:  splitPath(f.open.text),
				alias: f.open.alias,
				body:  sequence(f.nodes),
			})

		case tokenForOpen:
			stack = append(stack, &frame{open: tok, kind: tokenForOpen})

		case tokenForClose:
			f := top()
			if f.kind != tokenForOpen {
				return nil, unexpectedClose(tok, f, len(stack)-1)
			}
			stack = stack[:len(stack)-1]
			appendNode(forNode{
				name: f.open.alias,
				from: f.open.from,
				to:   f.open.to,
				body: sequence(f.nodes),
			})
		}
	}

	if len(stack) > 1 {
		f := top()
		return nil, &ParseError{
			Pos:      f.open.pos,
			Fragment: f.open.text,
			Message:  fmt.Sprintf("unclosed %s block at depth %d (missing {%% %s %%})", f.kind, len(stack)-1, closerFor(f.kind)),
		}
	}
	return sequence(stack[0].nodes), nil
}

func unexpectedClose(tok *token, f *frame, depth int) error {
	if f.kind == tokenLiteral {
		return &ParseError{Pos: tok.pos, Fragment: tok.text, Message: fmt.Sprintf("%s without an open block", tok.kind)}
	}
	return &ParseError{
		Pos:      tok.pos,
		Fragment: tok.text,
		Message:  fmt.Sprintf("%s inside %s block at depth %d (expected {%% %s %%})", tok.kind, f.kind, depth, closerFor(f.kind)),
	}
}

func closerFor(kind tokenKind) string {
	switch kind {
	case tokenIfOpen:
		return "endif"
	case tokenForeachOpen:
		return "endforeach"
	case tokenForOpen:
		return "endfor"
	}
	return "end"
}

// ----------------------------- Expression compilation -------------------------

type pipe struct {
	name string
	fn   Filter
}

// compileOutput splits `path|f1|f2` and binds each filter from the registry.
// raw and sanitize mark the pipeline as trusted, skipping HTML escaping.
func compileOutput(tok *token, filters FilterMap) (outputNode, error) {
	parts := strings.Split(tok.text, "|")
	n := outputNode{path: splitPath(strings.TrimSpace(parts[0]))}
	for _, name := range parts[1:] {
		name = strings.TrimSpace(name)
		fn, ok := filters[name]
		if !ok {
			return outputNode{}, &ParseError{Pos: tok.pos, Fragment: tok.text, Message: fmt.Sprintf("unknown filter %q", name)}
		}
		if name == "raw" || name == "sanitize" {
			n.raw = true
		}
		n.pipes = append(n.pipes, pipe{name: name, fn: fn})
	}
	return n, nil
}

// parseCond handles `name`, `not name` and `left == right` where either side
// is a path or a literal.
func parseCond(tok *token) (condExpr, error) {
	fields := strings.Fields(tok.text)
	var c condExpr
	if len(fields) > 1 && fields[0] == "not" {
		c.negate = true
		fields = fields[1:]
	}
	switch len(fields) {
	case 1:
		c.lhs = parseOperand(fields[0])
		return c, nil
	case 3:
		if fields[1] != "==" {
			return condExpr{}, &ParseError{Pos: tok.pos, Fragment: tok.text, Message: fmt.Sprintf("unsupported operator %q", fields[1])}
		}
		c.eq = true
		c.lhs = parseOperand(fields[0])
		c.rhs = parseOperand(fields[2])
		return c, nil
	default:
		return condExpr{}, &ParseError{Pos: tok.pos, Fragment: tok.text, Message: "condition syntax: name, not name, or left == right"}
	}
}

func parseOperand(s string) operand {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return operand{lit: s[1 : len(s)-1]}
		}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return operand{lit: i}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return operand{lit: f}
	}
	switch s {
	case "true":
		return operand{lit: true}
	case "false":
		return operand{lit: false}
	}
	return operand{path: splitPath(s)}
}

func splitPath(s string) []string {
	segs := strings.Split(s, ".")
	for i := range segs {
		segs[i] = strings.TrimSpace(segs[i])
	}
	return segs
}
