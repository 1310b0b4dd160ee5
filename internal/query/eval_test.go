package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/shelf"
)

func scenarioShelf(t *testing.T) *shelf.Shelf {
	t.Helper()
	s := plainShelf(t, "a.txt", "b.txt", "sub/c.txt")
	_, err := s.Attach("/r/a.txt", tagNames["x"])
	require.NoError(t, err)
	_, err = s.Attach("/r/b.txt", tagNames["y"])
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	s := scenarioShelf(t)

	tests := []struct {
		in   string
		want []string
	}{
		{`"x" OR "y"`, []string{"a.txt", "b.txt"}},
		{`"x" AND "y"`, []string{}},
		{`NOT "x"`, []string{"b.txt", "c.txt"}},
		{`"x" XOR "y"`, []string{"a.txt", "b.txt"}},
		{`NOT "x" AND NOT "y"`, []string{"c.txt"}},
		{`("x" OR "y") AND NOT "y"`, []string{"a.txt"}},
		{`NOT "y" AND ("x" OR "y")`, []string{"a.txt"}},
		{`"z"`, []string{}},
		{`NOT "z"`, []string{"a.txt", "b.txt", "c.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := run(t, s, tt.in, Order{Key: ByName})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_DirectoryTagScenario(t *testing.T) {
	s := scenarioShelf(t)
	z := tagNames["z"]

	_, err := s.AttachDir("/r/sub", z)
	require.NoError(t, err)
	got, err := run(t, s, `"z"`, Order{Key: ByName})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, got)

	got, err = run(t, s, `"z" OR "x"`, Order{Key: ByName})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "c.txt"}, got)

	_, err = s.DetachDir("/r/sub", z)
	require.NoError(t, err)
	got, err = run(t, s, `"z"`, Order{Key: ByName})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEval_Algebra(t *testing.T) {
	s := scenarioShelf(t)
	_, err := s.Attach("/r/sub/c.txt", tagNames["x"])
	require.NoError(t, err)
	_, err = s.Attach("/r/sub/c.txt", tagNames["y"])
	require.NoError(t, err)

	err = s.View(func(v shelf.View) error {
		x, y := v.Retrieve(tagNames["x"]), v.Retrieve(tagNames["y"])
		eval := func(in string) shelf.FileSet {
			f, err := Parse(in, resolve, 0)
			require.NoError(t, err)
			set, err := Eval(f, v, 0)
			require.NoError(t, err)
			return set
		}
		assert.Equal(t, x.Intersect(y).IDs(), eval(`"x" AND "y"`).IDs())
		assert.Equal(t, x.Union(y).IDs(), eval(`"x" OR "y"`).IDs())
		assert.Equal(t, x.SymmetricDifference(y).IDs(), eval(`"x" XOR "y"`).IDs())
		assert.Equal(t, v.All().Difference(x).IDs(), eval(`NOT "x"`).IDs())
		assert.Equal(t, x.Difference(y).IDs(), eval(`"x" AND NOT "y"`).IDs())
		return nil
	})
	require.NoError(t, err)
}

func TestEval_DoesNotModifyIndex(t *testing.T) {
	s := scenarioShelf(t)
	err := s.View(func(v shelf.View) error {
		before := v.Retrieve(tagNames["x"]).IDs()
		_, err := Run(`"x" OR "y" XOR NOT "x"`, resolve, v, Order{}, 0)
		require.NoError(t, err)
		assert.Equal(t, before, v.Retrieve(tagNames["x"]).IDs())
		return nil
	})
	require.NoError(t, err)
}

func TestRun_UnknownTag(t *testing.T) {
	s := scenarioShelf(t)
	got, err := run(t, s, `"x" OR "nope"`, Order{})
	require.ErrorIs(t, err, apperr.ErrKey)
	assert.Nil(t, got)
}

func TestEval_DepthLimit(t *testing.T) {
	s := scenarioShelf(t)
	f, err := Parse(strings.Repeat("NOT ", 9)+`"x"`, resolve, 0)
	require.NoError(t, err)

	err = s.View(func(v shelf.View) error {
		_, err := Eval(f, v, 5)
		assert.ErrorIs(t, err, apperr.ErrTooDeep)
		_, err = Eval(f, v, 10)
		assert.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
}
