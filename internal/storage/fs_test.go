package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, fs
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanRoot(t *testing.T) {
	dir, s := tempRoot(t)
	writeFile(t, filepath.Join(dir, "b.txt"), "bb")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "ccc")

	files, dirs, err := s.Scan("")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 2 || files[0].Name != "a.txt" || files[1].Name != "b.txt" {
		t.Fatalf("files = %+v", files)
	}
	if len(dirs) != 1 || dirs[0] != "sub" {
		t.Fatalf("dirs = %v", dirs)
	}
	if files[1].Metadata.Size != 2 {
		t.Errorf("size = %d, want 2", files[1].Metadata.Size)
	}
	if files[0].Metadata.Modified == nil {
		t.Error("expected modified time")
	}
}

func TestScanSubdir(t *testing.T) {
	dir, s := tempRoot(t)
	writeFile(t, filepath.Join(dir, "sub", "deep", "x.txt"), "x")

	files, dirs, err := s.Scan("sub")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %+v, want none", files)
	}
	if len(dirs) != 1 || dirs[0] != "deep" {
		t.Errorf("dirs = %v", dirs)
	}
}

func TestScanReadOnly(t *testing.T) {
	dir, s := tempRoot(t)
	p := filepath.Join(dir, "ro.txt")
	writeFile(t, p, "r")
	if err := os.Chmod(p, 0o444); err != nil {
		t.Fatal(err)
	}
	files, _, err := s.Scan("")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !files[0].Metadata.ReadOnly {
		t.Error("expected read-only flag")
	}
}

func TestScanMissingDir(t *testing.T) {
	_, s := tempRoot(t)
	if _, _, err := s.Scan("nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestTraversalBlocked(t *testing.T) {
	_, s := tempRoot(t)

	cases := []string{
		"../../etc",
		"../outside",
		"/etc",
	}
	for _, p := range cases {
		if _, _, err := s.Scan(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
	}
}

func TestSafePath_FilesystemRoot(t *testing.T) {
	s, err := NewFS("/")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	got, err := s.safePath("usr/lib")
	if err != nil {
		t.Fatalf("safePath: %v", err)
	}
	if got != "/usr/lib" {
		t.Errorf("safePath = %q, want /usr/lib", got)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/ebi-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "ebi-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
