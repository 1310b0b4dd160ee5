// Package shelf maintains the tag index of one directory tree.
//
// A Shelf mirrors the tree below its root: one node per directory, one File
// per regular file. Tags are attached either to single files or to whole
// directories; a directory tag cascades to every file below it until a
// nested directory declares the same tag itself (shadowing). Each directory
// caches the closure of every directory tag covering its subtree, so the
// shelf-wide view of a tag is available at the root without a walk.
//
// Mutations take the shelf lock exclusively and reads take it shared. A
// failed path lookup returns before anything is modified.
package shelf

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/models"
	"github.com/starford/ebi/internal/tag"
)

// Scanner lists one directory level. dir is relative to the shelf root.
type Scanner interface {
	Scan(dir string) ([]models.FileEntry, []string, error)
}

// Shelf is the tag index over one directory tree.
type Shelf struct {
	mu      sync.RWMutex
	root    string
	scanner Scanner

	nodes []*node // nodes[0] is the root
	files []*File

	// tagged is the shelf-wide direct-tag index: the union of every node's tags.
	tagged map[tag.ID]FileSet
}

// Stats summarises the shelf contents.
type Stats struct {
	Root         string `json:"root"`
	Directories  int    `json:"directories"`
	Files        int    `json:"files"`
	Attachments  int    `json:"attachments"`
	Declarations int    `json:"declarations"`
}

// New scans root recursively and builds the tree. Any scan failure aborts
// construction and is reported as apperr.ErrIO.
func New(root string, scanner Scanner, logger *slog.Logger) (*Shelf, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("shelf: resolve root: %w", err)
	}
	t, err := build(abs, scanner)
	if err != nil {
		return nil, err
	}
	logger.Debug("shelf: built",
		slog.String("root", abs),
		slog.Int("directories", len(t.nodes)),
		slog.Int("files", len(t.files)))
	return &Shelf{
		root:    abs,
		scanner: scanner,
		nodes:   t.nodes,
		files:   t.files,
		tagged:  make(map[tag.ID]FileSet),
	}, nil
}

// Root returns the absolute root path.
func (s *Shelf) Root() string {
	return s.root
}

type tree struct {
	nodes []*node
	files []*File
}

func build(root string, scanner Scanner) (*tree, error) {
	t := &tree{}
	if _, err := t.scanDir(scanner, root, "", -1, ""); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *tree) scanDir(scanner Scanner, root, rel string, parent int, name string) (int, error) {
	entries, dirs, err := scanner.Scan(rel)
	if err != nil {
		return 0, fmt.Errorf("shelf: scan %q: %w: %w", rel, apperr.ErrIO, err)
	}
	idx := len(t.nodes)
	n := newNode(parent, name, filepath.Join(root, rel))
	t.nodes = append(t.nodes, n)

	for _, e := range entries {
		id := FileID(len(t.files))
		t.files = append(t.files, newFile(id, idx, filepath.Join(n.path, e.Name), e.Name, e.Metadata))
		n.files[e.Name] = id
	}
	for _, d := range dirs {
		child, err := t.scanDir(scanner, root, filepath.Join(rel, d), idx, d)
		if err != nil {
			return 0, err
		}
		n.dirs[d] = child
	}
	return idx, nil
}

// split turns p (absolute, or relative to the root) into path components
// below the root. The root itself yields no components.
func (s *Shelf) split(p string) ([]string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	rel, err := filepath.Rel(s.root, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("shelf: %s: %w", p, apperr.ErrPathNotFound)
	}
	if rel == "." {
		return nil, nil
	}
	return strings.Split(rel, string(filepath.Separator)), nil
}

func (s *Shelf) walk(p string, parts []string) (int, error) {
	idx := 0
	for _, part := range parts {
		child, ok := s.nodes[idx].dirs[part]
		if !ok {
			return 0, fmt.Errorf("shelf: %s: %w", p, apperr.ErrPathNotFound)
		}
		idx = child
	}
	return idx, nil
}

func (s *Shelf) lookupDir(p string) (int, error) {
	parts, err := s.split(p)
	if err != nil {
		return 0, err
	}
	return s.walk(p, parts)
}

func (s *Shelf) lookupFile(p string) (*File, *node, error) {
	parts, err := s.split(p)
	if err != nil {
		return nil, nil, err
	}
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("shelf: %s: %w", p, apperr.ErrFileNotFound)
	}
	idx, err := s.walk(p, parts[:len(parts)-1])
	if err != nil {
		return nil, nil, err
	}
	n := s.nodes[idx]
	id, ok := n.files[parts[len(parts)-1]]
	if !ok {
		return nil, nil, fmt.Errorf("shelf: %s: %w", p, apperr.ErrFileNotFound)
	}
	return s.files[id], n, nil
}

// Attach tags the file at p with t. It reports false when the file
// already carried t directly.
func (s *Shelf) Attach(p string, t tag.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, n, err := s.lookupFile(p)
	if err != nil {
		return false, err
	}
	if _, ok := f.tags[t]; ok {
		return false, nil
	}
	s.attach(f, n, t)
	return true, nil
}

func (s *Shelf) attach(f *File, n *node, t tag.ID) {
	f.tags[t] = struct{}{}
	one := NewFileSet(f.id)
	indexAdd(n.tags, t, one)
	indexAdd(s.tagged, t, one)
}

// Detach removes t from the file at p. It reports false when the file did
// not carry t directly. Directory tags are not affected.
func (s *Shelf) Detach(p string, t tag.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, n, err := s.lookupFile(p)
	if err != nil {
		return false, err
	}
	if _, ok := f.tags[t]; !ok {
		return false, nil
	}
	delete(f.tags, t)
	one := NewFileSet(f.id)
	indexRemove(n.tags, t, one)
	indexRemove(s.tagged, t, one)
	return true, nil
}

// DetachAll removes t from every file that carries it directly and reports
// whether any did.
func (s *Shelf) DetachAll(t tag.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, had := s.tagged[t]
	for id := range set {
		delete(s.files[id].tags, t)
	}
	for _, n := range s.nodes {
		delete(n.tags, t)
	}
	delete(s.tagged, t)
	return had
}

// AttachDir declares t as a directory tag at the directory p. Every file
// below p that is not already covered receives t. It reports false when p
// already declared t.
func (s *Shelf) AttachDir(p string, t tag.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookupDir(p)
	if err != nil {
		return false, err
	}
	return s.attachDir(idx, t), nil
}

func (s *Shelf) attachDir(idx int, t tag.ID) bool {
	n := s.nodes[idx]
	if n.declares(t) {
		return false
	}
	n.dtags[t] = struct{}{}
	if s.declaredAbove(idx, t) {
		// An enclosing scope already covers every file here.
		return true
	}
	covered := s.cascade(idx, t, func(d *node, set FileSet) {
		indexAdd(d.dtagFiles, t, set)
	})
	for i := s.nodes[idx].parent; i >= 0; i = s.nodes[i].parent {
		indexAdd(s.nodes[i].dtagFiles, t, covered)
	}
	for id := range covered {
		s.files[id].inherited[t] = struct{}{}
	}
	return true
}

// DetachDir withdraws the declaration of t at the directory p. Files lose t
// only if no enclosing directory still declares it; subtrees declaring t on
// their own are left alone. It reports false when p did not declare t.
func (s *Shelf) DetachDir(p string, t tag.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookupDir(p)
	if err != nil {
		return false, err
	}
	n := s.nodes[idx]
	if !n.declares(t) {
		return false, nil
	}
	delete(n.dtags, t)
	if s.declaredAbove(idx, t) {
		return true, nil
	}
	covered := s.cascade(idx, t, func(d *node, set FileSet) {
		indexRemove(d.dtagFiles, t, set)
	})
	for i := n.parent; i >= 0; i = s.nodes[i].parent {
		indexRemove(s.nodes[i].dtagFiles, t, covered)
	}
	for id := range covered {
		delete(s.files[id].inherited, t)
	}
	return true, nil
}

// DetachDirAll withdraws every declaration of t in the tree and reports
// whether there was one.
func (s *Shelf) DetachDirAll(t tag.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := false
	for _, n := range s.nodes {
		if n.declares(t) {
			had = true
			delete(n.dtags, t)
		}
		delete(n.dtagFiles, t)
	}
	for _, f := range s.files {
		delete(f.inherited, t)
	}
	return had
}

// Purge removes every trace of t from the shelf: direct attachments,
// directory declarations and their cascades. It reports whether t was in use.
func (s *Shelf) Purge(t tag.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, had := s.tagged[t]
	delete(s.tagged, t)
	for _, n := range s.nodes {
		if n.declares(t) {
			had = true
			delete(n.dtags, t)
		}
		delete(n.tags, t)
		delete(n.dtagFiles, t)
	}
	for _, f := range s.files {
		delete(f.tags, t)
		delete(f.inherited, t)
	}
	return had
}

// declaredAbove reports whether a strict ancestor of idx declares t.
func (s *Shelf) declaredAbove(idx int, t tag.ID) bool {
	for i := s.nodes[idx].parent; i >= 0; i = s.nodes[i].parent {
		if s.nodes[i].declares(t) {
			return true
		}
	}
	return false
}

// cascade walks the subtree at idx without descending into child
// directories that declare t themselves. apply receives each visited node
// with the files of its part of the walk; the whole walk is returned.
func (s *Shelf) cascade(idx int, t tag.ID, apply func(n *node, set FileSet)) FileSet {
	n := s.nodes[idx]
	set := make(FileSet, len(n.files))
	for _, id := range n.files {
		set[id] = struct{}{}
	}
	for _, child := range n.dirs {
		if !s.nodes[child].declares(t) {
			set.add(s.cascade(child, t, apply))
		}
	}
	apply(n, set)
	return set
}

// Retrieve returns every file carrying t, directly or by cascade.
func (s *Shelf) Retrieve(t tag.ID) FileSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retrieve(t)
}

func (s *Shelf) retrieve(t tag.ID) FileSet {
	return s.tagged[t].Union(s.nodes[0].dtagFiles[t])
}

func (s *Shelf) all() FileSet {
	out := make(FileSet, len(s.files))
	for _, f := range s.files {
		out[f.id] = struct{}{}
	}
	return out
}

// Stats returns counts over the current tree.
func (s *Shelf) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Root: s.root, Directories: len(s.nodes), Files: len(s.files)}
	for _, set := range s.tagged {
		st.Attachments += len(set)
	}
	for _, n := range s.nodes {
		st.Declarations += len(n.dtags)
	}
	return st
}
