package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "out", "run")
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	path := filepath.Join(dir, "obs.txt")
	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := io.WriteString(w, "0 0 0\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "0 0 0\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 6 {
		t.Errorf("size = %d, want 6", info.Size())
	}
}

func TestMemoryFileSystem_AddFileAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("logs/act.txt", []byte("0 1 2\n"))

	f, err := mfs.Open("logs/act.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "0 1 2\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "act.txt" {
		t.Errorf("name = %q, want act.txt", info.Name())
	}
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_, err := mfs.Open("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	_, err = mfs.ReadFile("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_CreateNeedsDirectory(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if _, err := mfs.Create("output/path.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist before MkdirAll, got %v", err)
	}

	if err := mfs.MkdirAll("output", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	w, err := mfs.Create("output/path.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("png"))

	// Content is published on Close.
	if data, _ := mfs.ReadFile("output/path.png"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}
	w.Close()
	if data, _ := mfs.ReadFile("output/path.png"); string(data) != "png" {
		t.Errorf("unexpected content %q", data)
	}
	if got := mfs.Files(); len(got) != 1 || got[0] != "output/path.png" {
		t.Errorf("Files() = %v", got)
	}
}

func TestMemoryFileSystem_StatDirectory(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.MkdirAll("a/b/c", os.ModePerm)

	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		info, err := mfs.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%q) failed: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%q should be a directory", dir)
		}
	}
}

var _ FileSystem = OSFileSystem{}
var _ FileSystem = (*MemoryFileSystem)(nil)
