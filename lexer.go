package brace

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------- Tokens ----------------------------------------

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenOutput
	tokenIfOpen
	tokenElseIf
	tokenElse
	tokenIfClose
	tokenForeachOpen
	tokenForeachClose
	tokenForOpen
	tokenForClose
)

func (k tokenKind) String() string {
	switch k {
	case tokenLiteral:
		return "literal"
	case tokenOutput:
		return "output"
	case tokenIfOpen:
		return "if"
	case tokenElseIf:
		return "elseif"
	case tokenElse:
		return "else"
	case tokenIfClose:
		return "endif"
	case tokenForeachOpen:
		return "foreach"
	case tokenForeachClose:
		return "endforeach"
	case tokenForOpen:
		return "for"
	case tokenForClose:
		return "endfor"
	default:
		return "unknown"
	}
}

// token is one lexed unit of a template source. text holds literal text for
// tokenLiteral, the expression for tokenOutput, and the raw directive
// fragment otherwise. pos is the byte offset of the token in the source.
type token struct {
	kind  tokenKind
	text  string
	pos   int
	alias string // foreach item alias / for loop variable
	from  int    // for range start, inclusive
	to    int    // for range end, inclusive
}

// ----------------------------- Lexer -----------------------------------------

// tokenize scans src left to right and emits literal, output and directive
// tokens. A brace pair whose contents do not match the output-expression
// grammar (a dotted path with optional |filter pipes) is passed through as
// literal text, so raw CSS/JS blocks survive untouched.
func tokenize(src string) ([]token, error) {
	toks := make([]token, 0, 16)
	var lit strings.Builder
	litStart := 0

	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{kind: tokenLiteral, text: lit.String(), pos: litStart})
			lit.Reset()
		}
	}
	writeLit := func(i int, b byte) {
		if lit.Len() == 0 {
			litStart = i
		}
		lit.WriteByte(b)
	}

	i := 0
	for i < len(src) {
		c := src[i]
		if c != '{' {
			writeLit(i, c)
			i++
			continue
		}

		if strings.HasPrefix(src[i:], "{%") {
			end := strings.Index(src[i+2:], "%}")
			if end == -1 {
				return nil, &ParseError{Pos: i, Fragment: snippet(src[i:]), Message: "unterminated directive"}
			}
			frag := strings.TrimSpace(src[i+2 : i+2+end])
			tok, err := classifyDirective(frag, i)
			if err != nil {
				return nil, err
			}
			flush()
			toks = append(toks, tok)
			i += 2 + end + 2
			continue
		}

		end := strings.IndexByte(src[i+1:], '}')
		if end >= 0 {
			expr := strings.TrimSpace(src[i+1 : i+1+end])
			if isOutputExpr(expr) {
				flush()
				toks = append(toks, token{kind: tokenOutput, text: expr, pos: i})
				i += end + 2
				continue
			}
		}

		// Not a recognizable expression; the brace is display text.
		writeLit(i, c)
		i++
	}
	flush()
	return toks, nil
}

// classifyDirective turns the inside of a {% ... %} pair into a directive
// token. An unrecognized keyword is a parse error carrying the fragment.
func classifyDirective(frag string, pos int) (token, error) {
	fields := strings.Fields(frag)
	if len(fields) == 0 {
		return token{}, &ParseError{Pos: pos, Fragment: frag, Message: "empty directive"}
	}
	switch fields[0] {
	case "if", "elseif":
		cond := strings.TrimSpace(strings.TrimPrefix(frag, fields[0]))
		if cond == "" {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: fields[0] + " requires a condition"}
		}
		kind := tokenIfOpen
		if fields[0] == "elseif" {
			kind = tokenElseIf
		}
		return token{kind: kind, text: cond, pos: pos}, nil
	case "else":
		if len(fields) != 1 {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: "else takes no arguments"}
		}
		return token{kind: tokenElse, text: frag, pos: pos}, nil
	case "endif", "endforeach", "endfor":
		if len(fields) != 1 {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: fields[0] + " takes no arguments"}
		}
		kind := tokenIfClose
		switch fields[0] {
		case "endforeach":
			kind = tokenForeachClose
		case "endfor":
			kind = tokenForClose
		}
		return token{kind: kind, text: frag, pos: pos}, nil
	case "foreach":
		// foreach <path> as <alias>
		if len(fields) != 4 || fields[2] != "as" || !isIdent(fields[3]) || !isPathExpr(fields[1]) {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: "foreach syntax: foreach collection as item"}
		}
		return token{kind: tokenForeachOpen, text: fields[1], alias: fields[3], pos: pos}, nil
	case "for":
		// for <ident> in <start>..<end>
		if len(fields) < 4 || fields[2] != "in" || !isIdent(fields[1]) {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: "for syntax: for x in start..end"}
		}
		rng := strings.Join(fields[3:], "")
		from, to, err := parseRange(rng)
		if err != nil {
			return token{}, &ParseError{Pos: pos, Fragment: frag, Message: err.Error()}
		}
		return token{kind: tokenForOpen, text: rng, alias: fields[1], from: from, to: to, pos: pos}, nil
	default:
		return token{}, &ParseError{Pos: pos, Fragment: frag, Message: fmt.Sprintf("unknown directive %q", fields[0])}
	}
}

func parseRange(rng string) (from, to int, err error) {
	dots := strings.Index(rng, "..")
	if dots == -1 {
		return 0, 0, fmt.Errorf("range syntax: start..end")
	}
	from, err = strconv.Atoi(rng[:dots])
	if err != nil {
		return 0, 0, fmt.Errorf("range start %q is not an integer", rng[:dots])
	}
	to, err = strconv.Atoi(rng[dots+2:])
	if err != nil {
		return 0, 0, fmt.Errorf("range end %q is not an integer", rng[dots+2:])
	}
	return from, to, nil
}

// isOutputExpr reports whether expr matches path(|filter)*. Anything else
// between single braces is literal display text rather than a directive.
func isOutputExpr(expr string) bool {
	if expr == "" {
		return false
	}
	parts := strings.Split(expr, "|")
	if !isPathExpr(strings.TrimSpace(parts[0])) {
		return false
	}
	for _, f := range parts[1:] {
		if !isIdent(strings.TrimSpace(f)) {
			return false
		}
	}
	return true
}

func isPathExpr(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !isIdent(seg) && !isInteger(seg) {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// snippet trims a source fragment for error messages.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
