// Package tag holds the canonical set of tags. Everything else refers to a tag
// by its ID, so a tag is never shared by pointer between owners.
package tag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/starford/ebi/internal/apperr"
)

// ID identifies a tag for the lifetime of the catalog. Zero means "no tag".
type ID uint64

// Tag is a named label. Priority defines the total order between tags.
type Tag struct {
	ID       ID     `json:"id"`
	Priority uint64 `json:"priority"`
	Name     string `json:"name"`
	Parent   ID     `json:"parent,omitempty"`
}

// Compare orders tags by priority, then by ID.
func Compare(a, b Tag) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Store persists tag definitions. A nil Store keeps the registry in memory.
type Store interface {
	InsertTag(t Tag) error
	DeleteTag(id ID) error
	AllTags() ([]Tag, error)
}

// Registry is the arena of tags.
type Registry struct {
	mu     sync.RWMutex
	tags   map[ID]Tag
	byName map[string]ID
	next   ID
	store  Store
}

// NewRegistry creates a registry, loading any tags already in store.
func NewRegistry(store Store) (*Registry, error) {
	r := &Registry{
		tags:   make(map[ID]Tag),
		byName: make(map[string]ID),
		next:   1,
		store:  store,
	}
	if store == nil {
		return r, nil
	}
	all, err := store.AllTags()
	if err != nil {
		return nil, fmt.Errorf("tag: load: %w", err)
	}
	for _, t := range all {
		r.tags[t.ID] = t
		r.byName[t.Name] = t.ID
		if t.ID >= r.next {
			r.next = t.ID + 1
		}
	}
	return r, nil
}

// Create registers a new tag. parent may be zero.
func (r *Registry) Create(name string, priority uint64, parent ID) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("tag: name is required: %w", apperr.ErrInvalid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return Tag{}, fmt.Errorf("tag: %q: %w", name, apperr.ErrAlreadyExists)
	}
	if parent != 0 {
		if _, ok := r.tags[parent]; !ok {
			return Tag{}, fmt.Errorf("tag: parent %d: %w", parent, apperr.ErrKey)
		}
	}
	t := Tag{ID: r.next, Priority: priority, Name: name, Parent: parent}
	if r.store != nil {
		if err := r.store.InsertTag(t); err != nil {
			return Tag{}, fmt.Errorf("tag: persist %q: %w", name, err)
		}
	}
	r.next++
	r.tags[t.ID] = t
	r.byName[name] = t.ID
	return t, nil
}

// Get returns the tag with the given ID.
func (r *Registry) Get(id ID) (Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[id]
	return t, ok
}

// Lookup resolves a tag by name.
func (r *Registry) Lookup(name string) (Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return Tag{}, false
	}
	return r.tags[id], true
}

// List returns every tag in priority order.
func (r *Registry) List() []Tag {
	r.mu.RLock()
	out := make([]Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, Compare)
	return out
}

// Delete removes a tag. Tags naming it as parent are re-parented to its parent.
func (r *Registry) Delete(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tags[id]
	if !ok {
		return fmt.Errorf("tag: %d: %w", id, apperr.ErrNotFound)
	}
	if r.store != nil {
		if err := r.store.DeleteTag(id); err != nil {
			return fmt.Errorf("tag: delete %q: %w", t.Name, err)
		}
	}
	delete(r.tags, id)
	delete(r.byName, t.Name)
	for cid, c := range r.tags {
		if c.Parent == id {
			c.Parent = t.Parent
			r.tags[cid] = c
		}
	}
	return nil
}
