package brace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderExpr(t *testing.T, expr string, value any) string {
	t.Helper()
	tmpl, err := Compile("{" + expr + "}")
	require.NoError(t, err)
	out, err := tmpl.RenderString(map[string]any{"v": value})
	require.NoError(t, err)
	return out
}

func TestFilterCase(t *testing.T) {
	assert.Equal(t, "HI", renderExpr(t, "v|upper", "hi"))
	assert.Equal(t, "HI", renderExpr(t, "v|uppercase", "hi"))
	assert.Equal(t, "hi", renderExpr(t, "v|lower", "HI"))
	assert.Equal(t, "hi", renderExpr(t, "v|lowercase", "HI"))
}

func TestFilterCapitalize(t *testing.T) {
	assert.Equal(t, "Hello world", renderExpr(t, "v|capitalize", "hello world"))
	assert.Equal(t, "Hello", renderExpr(t, "v|capitalize", "Hello"))
	assert.Equal(t, "", renderExpr(t, "v|capitalize", ""))
}

func TestFilterTitle(t *testing.T) {
	assert.Equal(t, "Hello World", renderExpr(t, "v|title", "hello world"))
}

func TestFilterTrim(t *testing.T) {
	assert.Equal(t, "x", renderExpr(t, "v|trim", "  x \n"))
}

func TestFilterLength(t *testing.T) {
	assert.Equal(t, "3", renderExpr(t, "v|length", []any{1, 2, 3}))
	assert.Equal(t, "3", renderExpr(t, "v|count", []string{"a", "b", "c"}))
	assert.Equal(t, "5", renderExpr(t, "v|length", "héllo"))
	assert.Equal(t, "2", renderExpr(t, "v|length", map[string]any{"a": 1, "b": 2}))
	assert.Equal(t, "0", renderExpr(t, "v|length", 42))
}

func TestFilterRound(t *testing.T) {
	assert.Equal(t, "5", renderExpr(t, "v|round", 4.6))
	assert.Equal(t, "4", renderExpr(t, "v|round", 4.4))
	// Half rounds away from zero.
	assert.Equal(t, "5", renderExpr(t, "v|round", 4.5))
	assert.Equal(t, "-5", renderExpr(t, "v|round", -4.5))
	assert.Equal(t, "3", renderExpr(t, "v|round", 3))
	// Non-numeric input passes through unchanged.
	assert.Equal(t, "abc", renderExpr(t, "v|round", "abc"))
}

func TestFilterStars(t *testing.T) {
	assert.Equal(t, "★★★☆☆", renderExpr(t, "v|stars", 3))
	assert.Equal(t, "★★★★★", renderExpr(t, "v|stars", 5))
	assert.Equal(t, "☆☆☆☆☆", renderExpr(t, "v|stars", 0))
	assert.Equal(t, "★★★★☆", renderExpr(t, "v|stars", 4.4))
	// Out-of-range ratings clamp to the 0-5 scale.
	assert.Equal(t, "★★★★★", renderExpr(t, "v|stars", 9))
	assert.Equal(t, "☆☆☆☆☆", renderExpr(t, "v|stars", -1))
}

func TestFilterChaining(t *testing.T) {
	assert.Equal(t, "HI", renderExpr(t, "v|trim|upper", "  hi  "))
	// Left to right: upper then trim leaves the same result.
	assert.Equal(t, "HI", renderExpr(t, "v|upper|trim", "  hi  "))
}

func TestFilterAliasesShareBehavior(t *testing.T) {
	reg := DefaultFilters()
	for _, pair := range [][2]string{{"length", "count"}, {"upper", "uppercase"}, {"lower", "lowercase"}} {
		a, err1 := reg[pair[0]]("Mixed")
		b, err2 := reg[pair[1]]("Mixed")
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, a, b)
	}
}

func TestCustomFilters(t *testing.T) {
	tmpl, err := Compile("{v|shout}", WithFilters(FilterMap{
		"shout": func(v any) (any, error) { return toString(v) + "!", nil },
	}))
	require.NoError(t, err)
	out, err := tmpl.RenderString(map[string]any{"v": "go"})
	require.NoError(t, err)
	assert.Equal(t, "go!", out)
}

func TestStarsEscapeSafely(t *testing.T) {
	// Star glyphs are multi-byte UTF-8 and must survive HTML escaping.
	assert.Equal(t, "★★☆☆☆", renderExpr(t, "v|stars", 2))
}
