// Package testutil provides shared test helpers for building shelves over
// temporary directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ebi/internal/catalog"
	"github.com/starford/ebi/internal/shelf"
	"github.com/starford/ebi/internal/storage"
	"github.com/starford/ebi/internal/tag"
	"github.com/starford/ebi/internal/tagservice"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite tag catalog that is closed on cleanup.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "ebi-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTree writes files (root-relative path to content) below a fresh
// temporary directory and returns its path.
func TestTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestService builds a shelf over root with a catalog-backed registry.
func TestService(t *testing.T, root string, opts tagservice.Options) *tagservice.Service {
	t.Helper()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	sh, err := shelf.New(fs.Root(), fs, Logger())
	if err != nil {
		t.Fatal(err)
	}
	reg, err := tag.NewRegistry(TestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	return tagservice.NewService(reg, sh, opts, Logger())
}
