package query

import (
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/ebi/internal/models"
	"github.com/starford/ebi/internal/shelf"
	"github.com/starford/ebi/internal/tag"
)

type fixture struct {
	dirs map[string]*fixtureDir
}

type fixtureDir struct {
	files   []models.FileEntry
	subdirs []string
}

func (fx *fixture) dir(p string) *fixtureDir {
	if d, ok := fx.dirs[p]; ok {
		return d
	}
	d := &fixtureDir{}
	fx.dirs[p] = d
	parent, name := path.Split(p)
	pd := fx.dir(strings.TrimSuffix(parent, "/"))
	pd.subdirs = append(pd.subdirs, name)
	slices.Sort(pd.subdirs)
	return d
}

func (fx *fixture) Scan(dir string) ([]models.FileEntry, []string, error) {
	d, ok := fx.dirs[dir]
	if !ok {
		return nil, nil, os.ErrNotExist
	}
	return slices.Clone(d.files), slices.Clone(d.subdirs), nil
}

// newShelf builds a shelf rooted at /r from root-relative file paths.
func newShelf(t *testing.T, files map[string]models.FileMetadata) *shelf.Shelf {
	t.Helper()
	fx := &fixture{dirs: map[string]*fixtureDir{"": {}}}
	for p, meta := range files {
		dir, name := path.Split(p)
		d := fx.dir(strings.TrimSuffix(dir, "/"))
		d.files = append(d.files, models.FileEntry{Name: name, Metadata: meta})
	}
	s, err := shelf.New("/r", fx, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func plainShelf(t *testing.T, files ...string) *shelf.Shelf {
	t.Helper()
	m := make(map[string]models.FileMetadata, len(files))
	for _, f := range files {
		m[f] = models.FileMetadata{Size: int64(len(f))}
	}
	return newShelf(t, m)
}

// tagNames is a fixed resolver over a handful of tags.
var tagNames = map[string]tag.ID{"x": 1, "y": 2, "z": 3}

func resolve(name string) (tag.ID, bool) {
	id, ok := tagNames[name]
	return id, ok
}

func baseNames(files []*shelf.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name()
	}
	return out
}

// run evaluates input against s and returns base names in order.
func run(t *testing.T, s *shelf.Shelf, input string, order Order) ([]string, error) {
	t.Helper()
	var out []string
	err := s.View(func(v shelf.View) error {
		files, err := Run(input, resolve, v, order, 64)
		if err != nil {
			return err
		}
		out = baseNames(files)
		return nil
	})
	return out, err
}
