// Package storage implements the directory scan that feeds shelf construction.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/ebi/internal/models"
)

// FS scans directories of the local file system below a fixed root.
type FS struct {
	root string // absolute path to the shelf root
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root path.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	r, err := filepath.Rel(f.root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// Scan lists one directory level of dir (relative to the root). Files come
// back with their metadata, subdirectories by name; both sorted by name.
// Symlinks are reported as files and never followed.
func (f *FS) Scan(dir string) ([]models.FileEntry, []string, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: scan %s: %w", dir, err)
	}

	var files []models.FileEntry
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		files = append(files, models.FileEntry{
			Name:     e.Name(),
			Metadata: readMetadata(filepath.Join(base, e.Name()), info),
		})
	}
	slices.SortFunc(files, func(a, b models.FileEntry) int { return strings.Compare(a.Name, b.Name) })
	slices.Sort(dirs)
	return files, dirs, nil
}
