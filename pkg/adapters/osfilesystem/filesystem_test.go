package osfilesystem

import (
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteReadRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "nested", "dir", "run.json")

	if err := fs.WriteFile(path, []byte(`{"frames":3}`)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"frames":3}` {
		t.Errorf("unexpected contents %q", data)
	}

	if exists, err := fs.Exists(path); err != nil || !exists {
		t.Fatalf("expected file to exist (err=%v)", err)
	}
	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected file to be removed")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "debug", "frames")

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if exists, err := fs.Exists(dir); err != nil || !exists {
		t.Errorf("expected directory to exist (err=%v)", err)
	}
}

func TestFileSystem_ReadDir(t *testing.T) {
	fs := New()
	tmpDir := t.TempDir()

	for _, name := range []string{"b.png", "a.jpg", "c.txt"} {
		if err := fs.WriteFile(filepath.Join(tmpDir, name), []byte("x")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := fs.MkdirAll(filepath.Join(tmpDir, "sub")); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	entries, err := fs.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"a.jpg", "b.png", "c.txt", "sub"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestFileSystem_ReadDirMissing(t *testing.T) {
	fs := New()
	if _, err := fs.ReadDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
