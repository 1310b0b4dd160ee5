package shelf

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/models"
)

// memScanner serves directory listings from memory. Keys are root-relative
// directory paths, "" being the root.
type memScanner struct {
	dirs map[string]*memDir
	fail string
}

type memDir struct {
	files   []models.FileEntry
	subdirs []string
}

func newMemScanner(files ...string) *memScanner {
	m := &memScanner{dirs: map[string]*memDir{"": {}}}
	for _, f := range files {
		m.add(f, int64(len(f)))
	}
	return m
}

func (m *memScanner) dir(p string) *memDir {
	if d, ok := m.dirs[p]; ok {
		return d
	}
	d := &memDir{}
	m.dirs[p] = d
	parent, name := path.Split(p)
	parent = strings.TrimSuffix(parent, "/")
	pd := m.dir(parent)
	pd.subdirs = append(pd.subdirs, name)
	slices.Sort(pd.subdirs)
	return d
}

func (m *memScanner) add(p string, size int64) {
	dir, name := path.Split(p)
	d := m.dir(strings.TrimSuffix(dir, "/"))
	d.files = append(d.files, models.FileEntry{Name: name, Metadata: models.FileMetadata{Size: size}})
}

func (m *memScanner) remove(p string) {
	dir, name := path.Split(p)
	d := m.dirs[strings.TrimSuffix(dir, "/")]
	d.files = slices.DeleteFunc(d.files, func(e models.FileEntry) bool { return e.Name == name })
}

func (m *memScanner) Scan(dir string) ([]models.FileEntry, []string, error) {
	if m.fail != "" && dir == m.fail {
		return nil, nil, fmt.Errorf("scan %s: permission denied", dir)
	}
	d, ok := m.dirs[dir]
	if !ok {
		return nil, nil, os.ErrNotExist
	}
	return slices.Clone(d.files), slices.Clone(d.subdirs), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestShelf(t *testing.T, files ...string) (*Shelf, *memScanner) {
	t.Helper()
	sc := newMemScanner(files...)
	s, err := New("/r", sc, quietLogger())
	require.NoError(t, err)
	return s, sc
}

// snapshot renders every index of the shelf; fmt prints maps in key order.
func snapshot(s *Shelf) []string {
	var out []string
	for _, n := range s.nodes {
		out = append(out, fmt.Sprintf("%s files=%v dirs=%v tags=%v dtags=%v closure=%v",
			n.path, n.files, n.dirs, n.tags, n.dtags, n.dtagFiles))
	}
	for _, f := range s.files {
		out = append(out, fmt.Sprintf("%s tags=%v inherited=%v", f.path, f.tags, f.inherited))
	}
	return append(out, fmt.Sprintf("tagged=%v", s.tagged))
}

// names resolves a set to sorted file names.
func names(s *Shelf, set FileSet) []string {
	out := []string{}
	for id := range set {
		out = append(out, s.files[id].name)
	}
	slices.Sort(out)
	return out
}
