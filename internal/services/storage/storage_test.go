package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")

	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("expected %s to be a directory, err = %v", dir, err)
	}
}

func TestNewEmptyDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty directory, got nil")
	}
}

func TestSaveReadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	name := store.NewStoredName()
	if !strings.HasSuffix(name, ".pdf") {
		t.Errorf("NewStoredName() = %q, want .pdf suffix", name)
	}

	data := []byte("%PDF-1.4 test")
	if err := store.Save(name, data); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Read(name)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Read() = %q, want %q", got, data)
	}

	if err := store.Delete(name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// Deleting again is fine.
	if err := store.Delete(name); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if _, err := store.Read(name); err == nil {
		t.Error("expected Read() after Delete() to fail")
	}
}

func TestRejectsUnsafeNames(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, name := range []string{"", "../escape.pdf", "a/b.pdf", "..", "dir/../../x.pdf"} {
		if err := store.Save(name, []byte("x")); err == nil {
			t.Errorf("Save(%q) = nil, want error", name)
		}
		if _, err := store.Path(name); err == nil {
			t.Errorf("Path(%q) = nil error, want error", name)
		}
	}
}

func TestNewStoredNameUnique(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if store.NewStoredName() == store.NewStoredName() {
		t.Error("NewStoredName() returned the same name twice")
	}
}
