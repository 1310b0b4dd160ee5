package shelf

import (
	"log/slog"
	"slices"

	"github.com/starford/ebi/internal/tag"
)

// RefreshStats reports how a refresh changed the set of files.
type RefreshStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}

// Refresh rescans the tree and reconciles it with the tag index. Files
// whose path still exists keep their direct tags and get fresh metadata;
// directories that still exist keep their directory tags; everything else
// is dropped. The scan runs without holding the lock, and a scan failure
// leaves the shelf unchanged.
func (s *Shelf) Refresh(logger *slog.Logger) (RefreshStats, error) {
	fresh, err := build(s.root, s.scanner)
	if err != nil {
		return RefreshStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldFiles := make(map[string]*File, len(s.files))
	for _, f := range s.files {
		oldFiles[f.path] = f
	}
	declared := make(map[string][]tag.ID)
	for _, n := range s.nodes {
		if len(n.dtags) > 0 {
			declared[n.path] = sortedIDs(n.dtags)
		}
	}

	var st RefreshStats
	type carried struct {
		f    *File
		tags []tag.ID
	}
	var reattach []carried
	for i, nf := range fresh.files {
		old, ok := oldFiles[nf.path]
		if !ok {
			st.Added++
			continue
		}
		st.Kept++
		tags := sortedIDs(old.tags)
		// Reuse the File so results handed out earlier observe the new metadata.
		old.id = nf.id
		old.node = nf.node
		old.tags = make(map[tag.ID]struct{})
		old.inherited = make(map[tag.ID]struct{})
		old.setMetadata(nf.Metadata())
		fresh.files[i] = old
		if len(tags) > 0 {
			reattach = append(reattach, carried{f: old, tags: tags})
		}
	}
	st.Removed = len(s.files) - st.Kept

	s.nodes = fresh.nodes
	s.files = fresh.files
	s.tagged = make(map[tag.ID]FileSet)

	for _, c := range reattach {
		for _, t := range c.tags {
			s.attach(c.f, s.nodes[c.f.node], t)
		}
	}

	byPath := make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		byPath[n.path] = i
	}
	paths := make([]string, 0, len(declared))
	for p := range declared {
		if _, ok := byPath[p]; ok {
			paths = append(paths, p)
		}
	}
	// Parents sort before their children, so nested declarations land as shadows.
	slices.Sort(paths)
	for _, p := range paths {
		for _, t := range declared[p] {
			s.attachDir(byPath[p], t)
		}
	}

	logger.Info("shelf: refresh done",
		slog.String("root", s.root),
		slog.Int("added", st.Added),
		slog.Int("removed", st.Removed),
		slog.Int("kept", st.Kept))
	return st, nil
}
