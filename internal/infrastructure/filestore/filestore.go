package filestore

import (
	"os"
	"path/filepath"
)

// Store implements port.BlobStore on the local filesystem. Parent directories
// are created on first write.
type Store struct{}

// New returns a filesystem blob store.
func New() *Store {
	return &Store{}
}

// ReadText returns the document at path.
func (s *Store) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText writes the document at path, creating parent directories as
// needed.
func (s *Store) WriteText(path string, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0o600)
}
