// Package storage keeps sheet PDFs on local disk.
//
// Uploaded originals stay untouched so annotation can always re-run from
// the source document; annotated copies live alongside them. Files are
// named by server-generated UUID, never by anything user-supplied.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store manages PDF files under a single base directory.
type Store struct {
	dir string
}

// New ensures the base directory exists and returns a store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// NewStoredName returns a fresh unique filename for a PDF.
func (s *Store) NewStoredName() string {
	return uuid.New().String() + ".pdf"
}

// Save writes data to name inside the store.
func (s *Store) Save(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Read returns the full contents of a stored file.
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Path returns the absolute-ish on-disk path for a stored name, for callers
// that hand the file to something path-based (pdfcpu, gin's file serving).
func (s *Store) Path(name string) (string, error) {
	return s.resolve(name)
}

// Delete removes a stored file. Deleting a file that is already gone is
// not an error.
func (s *Store) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// resolve joins name onto the base directory, rejecting anything that could
// escape it. Stored names are UUIDs we minted ourselves, so a separator or
// dot-dot here means corrupted state, not a legitimate file.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid stored filename %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
