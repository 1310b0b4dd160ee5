package shelf

import "github.com/starford/ebi/internal/tag"

// node is one directory of the tree. Nodes live in the shelf's arena and
// refer to their parent and children by index, so mutating a deep node
// never requires touching its ancestors' maps.
type node struct {
	parent int // -1 for the root
	name   string
	path   string // absolute

	files map[string]FileID // owned files by name
	dirs  map[string]int    // child nodes by name

	tags      map[tag.ID]FileSet  // direct tags of files in this directory only
	dtags     map[tag.ID]struct{} // directory tags declared here
	dtagFiles map[tag.ID]FileSet  // cascade closure over the subtree
}

func newNode(parent int, name, path string) *node {
	return &node{
		parent:    parent,
		name:      name,
		path:      path,
		files:     make(map[string]FileID),
		dirs:      make(map[string]int),
		tags:      make(map[tag.ID]FileSet),
		dtags:     make(map[tag.ID]struct{}),
		dtagFiles: make(map[tag.ID]FileSet),
	}
}

func (n *node) declares(t tag.ID) bool {
	_, ok := n.dtags[t]
	return ok
}

// indexAdd records ids under t in m, creating the entry on demand.
func indexAdd(m map[tag.ID]FileSet, t tag.ID, ids FileSet) {
	if len(ids) == 0 {
		return
	}
	set, ok := m[t]
	if !ok {
		set = make(FileSet, len(ids))
		m[t] = set
	}
	set.add(ids)
}

// indexRemove drops ids from m[t] and prunes the entry once it is empty.
func indexRemove(m map[tag.ID]FileSet, t tag.ID, ids FileSet) {
	set, ok := m[t]
	if !ok {
		return
	}
	set.remove(ids)
	if len(set) == 0 {
		delete(m, t)
	}
}
