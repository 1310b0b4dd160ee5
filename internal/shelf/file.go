package shelf

import (
	"slices"
	"sync"

	"github.com/starford/ebi/internal/models"
	"github.com/starford/ebi/internal/tag"
)

// File is a leaf of the shelf tree.
//
// Path and Metadata are safe to call at any time. The tag accessors read
// state guarded by the shelf lock and must only be used inside Shelf.View.
type File struct {
	id   FileID
	node int
	path string // absolute
	name string

	mu   sync.RWMutex
	meta models.FileMetadata

	tags      map[tag.ID]struct{} // attached directly
	inherited map[tag.ID]struct{} // covered by a directory tag cascade
}

func newFile(id FileID, node int, path, name string, meta models.FileMetadata) *File {
	return &File{
		id:        id,
		node:      node,
		path:      path,
		name:      name,
		meta:      meta,
		tags:      make(map[tag.ID]struct{}),
		inherited: make(map[tag.ID]struct{}),
	}
}

// ID returns the file's arena index.
func (f *File) ID() FileID { return f.id }

// Path returns the absolute path of the file.
func (f *File) Path() string { return f.path }

// Name returns the final path component.
func (f *File) Name() string { return f.name }

// Metadata returns the metadata snapshot taken at the last scan.
func (f *File) Metadata() models.FileMetadata {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.meta
}

func (f *File) setMetadata(m models.FileMetadata) {
	f.mu.Lock()
	f.meta = m
	f.mu.Unlock()
}

// HasTag reports whether the file carries t directly or through a directory tag.
func (f *File) HasTag(t tag.ID) bool {
	if _, ok := f.tags[t]; ok {
		return true
	}
	_, ok := f.inherited[t]
	return ok
}

// Tags returns the directly attached tags, sorted by ID.
func (f *File) Tags() []tag.ID {
	return sortedIDs(f.tags)
}

// InheritedTags returns the tags received from directory scopes, sorted by ID.
func (f *File) InheritedTags() []tag.ID {
	return sortedIDs(f.inherited)
}

func sortedIDs(m map[tag.ID]struct{}) []tag.ID {
	out := make([]tag.ID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
