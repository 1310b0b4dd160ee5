package shelf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/apperr"
)

func TestRefresh_PreservesTagsOfSurvivingPaths(t *testing.T) {
	s, sc := newTestShelf(t, "a.txt", "b.txt", "sub/c.txt", "sub/d.txt")
	_, _ = s.Attach("/r/a.txt", tagX)
	_, _ = s.Attach("/r/b.txt", tagX)
	_, _ = s.AttachDir("/r/sub", tagZ)

	sc.remove("b.txt")
	sc.remove("sub/d.txt")
	sc.add("sub/e.txt", 99)
	sc.add("f.txt", 1)

	st, err := s.Refresh(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, RefreshStats{Added: 2, Removed: 2, Kept: 2}, st)

	assert.Equal(t, []string{"a.txt"}, names(s, s.Retrieve(tagX)))
	assert.Equal(t, []string{"c.txt", "e.txt"}, names(s, s.Retrieve(tagZ)))
	assert.Equal(t, 4, s.Stats().Files)
}

func TestRefresh_UpdatesMetadataInPlace(t *testing.T) {
	s, sc := newTestShelf(t, "a.txt")
	var before *File
	_ = s.View(func(v View) error {
		before, _ = v.Lookup("a.txt")
		return nil
	})
	require.NotNil(t, before)

	sc.remove("a.txt")
	sc.add("a.txt", 1234)
	_, err := s.Refresh(quietLogger())
	require.NoError(t, err)

	assert.Equal(t, int64(1234), before.Metadata().Size)
}

func TestRefresh_KeepsShadowedScopes(t *testing.T) {
	s, _ := newTestShelf(t, "A/a.txt", "A/B/b.txt")
	_, _ = s.AttachDir("/r/A", tagX)
	_, _ = s.AttachDir("/r/A/B", tagX)
	before := snapshot(s)

	_, err := s.Refresh(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(s))

	_, _ = s.DetachDir("/r/A", tagX)
	assert.Equal(t, []string{"b.txt"}, names(s, s.Retrieve(tagX)))
}

func TestRefresh_DropsVanishedDirectories(t *testing.T) {
	s, sc := newTestShelf(t, "a.txt", "gone/x.txt")
	_, _ = s.AttachDir("/r/gone", tagX)

	delete(sc.dirs, "gone")
	sc.dirs[""].subdirs = nil

	_, err := s.Refresh(quietLogger())
	require.NoError(t, err)
	assert.Empty(t, s.Retrieve(tagX))
	assert.Equal(t, 0, s.Stats().Declarations)
}

func TestRefresh_ScanFailureLeavesShelfUnchanged(t *testing.T) {
	s, sc := newTestShelf(t, "a.txt", "sub/c.txt")
	_, _ = s.Attach("/r/sub/c.txt", tagX)
	before := snapshot(s)

	sc.fail = "sub"
	_, err := s.Refresh(quietLogger())
	require.ErrorIs(t, err, apperr.ErrIO)
	assert.Equal(t, before, snapshot(s))
}
