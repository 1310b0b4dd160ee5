package tag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/apperr"
)

type memStore struct {
	tags    map[ID]Tag
	failing bool
}

func (m *memStore) InsertTag(t Tag) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.tags[t.ID] = t
	return nil
}

func (m *memStore) DeleteTag(id ID) error {
	delete(m.tags, id)
	return nil
}

func (m *memStore) AllTags() ([]Tag, error) {
	out := make([]Tag, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, t)
	}
	return out, nil
}

func TestCreateAndLookup(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	a, err := r.Create("alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, ID(1), a.ID)

	got, ok := r.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, a, got)

	byID, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "alpha", byID.Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestCreateRejectsDuplicatesAndBadParent(t *testing.T) {
	r, _ := NewRegistry(nil)
	_, err := r.Create("x", 0, 0)
	require.NoError(t, err)

	_, err = r.Create("x", 1, 0)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = r.Create("y", 0, 42)
	assert.ErrorIs(t, err, apperr.ErrKey)

	_, err = r.Create("   ", 0, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestListOrdersByPriorityThenID(t *testing.T) {
	r, _ := NewRegistry(nil)
	_, _ = r.Create("c", 2, 0)
	_, _ = r.Create("a", 1, 0)
	_, _ = r.Create("b", 1, 0)

	var names []string
	for _, tg := range r.List() {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDeleteReparentsChildren(t *testing.T) {
	r, _ := NewRegistry(nil)
	root, _ := r.Create("root", 0, 0)
	mid, _ := r.Create("mid", 0, root.ID)
	leaf, _ := r.Create("leaf", 0, mid.ID)

	require.NoError(t, r.Delete(mid.ID))
	_, ok := r.Lookup("mid")
	assert.False(t, ok)

	got, _ := r.Get(leaf.ID)
	assert.Equal(t, root.ID, got.Parent)

	assert.ErrorIs(t, r.Delete(mid.ID), apperr.ErrNotFound)
}

func TestStoreWriteThroughAndReload(t *testing.T) {
	s := &memStore{tags: map[ID]Tag{}}
	r, err := NewRegistry(s)
	require.NoError(t, err)
	_, _ = r.Create("one", 0, 0)
	_, _ = r.Create("two", 0, 0)
	assert.Len(t, s.tags, 2)

	again, err := NewRegistry(s)
	require.NoError(t, err)
	three, err := again.Create("three", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, ID(3), three.ID)
}

func TestStoreFailureLeavesRegistryUnchanged(t *testing.T) {
	s := &memStore{tags: map[ID]Tag{}, failing: true}
	r, _ := NewRegistry(s)
	_, err := r.Create("nope", 0, 0)
	require.Error(t, err)
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
	assert.Empty(t, r.List())
}
