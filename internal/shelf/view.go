package shelf

import "github.com/starford/ebi/internal/tag"

// View is a read-only window on a shelf, valid only inside the Shelf.View
// callback that produced it. Sets it returns must not be modified.
type View struct {
	s *Shelf
}

// View runs fn while holding the shelf's read lock, so that a whole query
// evaluation sees one consistent tree.
func (s *Shelf) View(fn func(v View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(View{s: s})
}

// Retrieve returns every file carrying t, directly or by cascade.
func (v View) Retrieve(t tag.ID) FileSet {
	return v.s.retrieve(t)
}

// All returns every file of the shelf.
func (v View) All() FileSet {
	return v.s.all()
}

// File resolves an ID from a set returned by this view.
func (v View) File(id FileID) *File {
	return v.s.files[id]
}

// Files resolves every member of set, in ID order.
func (v View) Files(set FileSet) []*File {
	out := make([]*File, 0, len(set))
	for _, id := range set.IDs() {
		out = append(out, v.s.files[id])
	}
	return out
}

// Lookup resolves a file path without modifying anything.
func (v View) Lookup(p string) (*File, error) {
	f, _, err := v.s.lookupFile(p)
	return f, err
}

// Declarations returns the directory tags declared at the directory p.
func (v View) Declarations(p string) ([]tag.ID, error) {
	idx, err := v.s.lookupDir(p)
	if err != nil {
		return nil, err
	}
	return sortedIDs(v.s.nodes[idx].dtags), nil
}
