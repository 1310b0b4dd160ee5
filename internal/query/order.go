package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/models"
	"github.com/starford/ebi/internal/shelf"
)

// Key selects the attribute results are ordered by.
type Key int

const (
	ByName Key = iota
	BySize
	ByModified
	ByCreated
	ByAccessed
	Unordered
)

var keyNames = [...]string{
	ByName:     "name",
	BySize:     "size",
	ByModified: "modified",
	ByCreated:  "created",
	ByAccessed: "accessed",
	Unordered:  "unordered",
}

func (k Key) String() string {
	if k >= 0 && int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// ParseKey accepts the names printed by Key.String.
func ParseKey(s string) (Key, error) {
	for k, name := range keyNames {
		if strings.EqualFold(s, name) {
			return Key(k), nil
		}
	}
	return 0, fmt.Errorf("query: %w: unknown order %q", apperr.ErrInvalid, s)
}

// Order is a total ordering over result files. Files equal under Key are
// ordered by path ascending. With Dedup, files equal under Key collapse into
// the one with the smallest path.
type Order struct {
	Key   Key
	Desc  bool
	Dedup bool
}

type entry struct {
	f    *shelf.File
	meta models.FileMetadata
}

func (o Order) compareKey(a, b entry) int {
	var c int
	switch o.Key {
	case ByName:
		c = strings.Compare(a.f.Name(), b.f.Name())
	case BySize:
		c = cmp.Compare(a.meta.Size, b.meta.Size)
	case ByModified:
		c = compareTime(a.meta.Modified, b.meta.Modified)
	case ByCreated:
		c = compareTime(a.meta.Created, b.meta.Created)
	case ByAccessed:
		c = compareTime(a.meta.Accessed, b.meta.Accessed)
	}
	if o.Desc {
		return -c
	}
	return c
}

// compareTime orders a missing timestamp before any present one.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// Materialize sorts files by o, applying Dedup. files is reordered in place
// and the returned slice shares its backing array.
func Materialize(files []*shelf.File, o Order) []*shelf.File {
	entries := make([]entry, len(files))
	for i, f := range files {
		entries[i] = entry{f: f, meta: f.Metadata()}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := o.compareKey(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.f.Path(), b.f.Path())
	})
	if o.Dedup {
		entries = slices.CompactFunc(entries, func(a, b entry) bool {
			return o.compareKey(a, b) == 0
		})
	}
	out := files[:len(entries)]
	for i, e := range entries {
		out[i] = e.f
	}
	return out
}
