package shelf

import "slices"

// FileID addresses a File in a shelf's file arena. IDs are reassigned by Refresh.
type FileID int

// FileSet is an unordered set of files. The combining operations never
// modify their operands; they always return a fresh set.
type FileSet map[FileID]struct{}

// NewFileSet builds a set from ids.
func NewFileSet(ids ...FileID) FileSet {
	s := make(FileSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s FileSet) Has(id FileID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of elements.
func (s FileSet) Len() int {
	return len(s)
}

// Clone returns a copy of the set. Cloning a nil set yields an empty set.
func (s FileSet) Clone() FileSet {
	out := make(FileSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns s ∪ o.
func (s FileSet) Union(o FileSet) FileSet {
	out := make(FileSet, len(s)+len(o))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns s ∩ o.
func (s FileSet) Intersect(o FileSet) FileSet {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(FileSet)
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Difference returns s − o.
func (s FileSet) Difference(o FileSet) FileSet {
	out := make(FileSet, len(s))
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference returns (s − o) ∪ (o − s).
func (s FileSet) SymmetricDifference(o FileSet) FileSet {
	out := make(FileSet)
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	for id := range o {
		if !s.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs returns the members in ascending order.
func (s FileSet) IDs() []FileID {
	out := make([]FileID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s FileSet) add(ids FileSet) {
	for id := range ids {
		s[id] = struct{}{}
	}
}

func (s FileSet) remove(ids FileSet) {
	for id := range ids {
		delete(s, id)
	}
}
