package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/apperr"
)

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"x"`, `"x"`},
		{`"x" OR "y" AND "z"`, `("x" OR ("y" AND "z"))`},
		{`"x" AND "y" OR "z"`, `(("x" AND "y") OR "z")`},
		{`"x" XOR "y" AND "z"`, `("x" XOR ("y" AND "z"))`},
		{`"x" OR "y" XOR "z"`, `("x" OR ("y" XOR "z"))`},
		{`NOT "x" AND "y"`, `(NOT "x" AND "y")`},
		{`NOT ("x" AND "y")`, `NOT ("x" AND "y")`},
		{`NOT NOT "x"`, `NOT NOT "x"`},
		{`"x" AND "y" AND "z"`, `(("x" AND "y") AND "z")`},
		{"  (\t\"x\"\n)  ", `"x"`},
		{`"with space" OR "q\"uote"`, `("with space" OR "q\"uote")`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := Parse(tt.in, resolve, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestParse_ResolvesNames(t *testing.T) {
	f, err := Parse(`"x" AND "missing"`, resolve, 0)
	require.NoError(t, err)

	b, ok := f.(Binary)
	require.True(t, ok)
	assert.Equal(t, Proposition{Name: "x", Tag: 1}, b.Left)
	assert.Equal(t, Proposition{Name: "missing"}, b.Right)
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []string{
		``,
		`   `,
		`x`,
		`"x" and "y"`,
		`"x" AND`,
		`AND "x"`,
		`("x"`,
		`"x")`,
		`"x" "y"`,
		`"unterminated`,
		`""`,
		`NOT`,
		`()`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, resolve, 0)
			assert.ErrorIs(t, err, apperr.ErrSyntax)
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	nested := strings.Repeat("(", 20) + `"x"` + strings.Repeat(")", 20)
	_, err := Parse(nested, resolve, 10)
	assert.ErrorIs(t, err, apperr.ErrTooDeep)

	negated := strings.Repeat("NOT ", 20) + `"x"`
	_, err = Parse(negated, resolve, 10)
	assert.ErrorIs(t, err, apperr.ErrTooDeep)

	chain := `"x"` + strings.Repeat(` AND "y"`, 20)
	_, err = Parse(chain, resolve, 10)
	assert.ErrorIs(t, err, apperr.ErrTooDeep)

	_, err = Parse(nested, resolve, 0)
	assert.NoError(t, err)
}
