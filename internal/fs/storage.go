package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage implements files.Storage using the local filesystem. Every blob
// lives directly under the objects directory, named by its identifier, so
// two uploads with the same original filename never collide on disk.
type Storage struct {
	dataDir string
}

// NewStorage creates a new filesystem storage rooted at dataDir
func NewStorage(dataDir string) *Storage {
	return &Storage{
		dataDir: dataDir,
	}
}

// Path returns the on-disk path for the given identifier.
func (s *Storage) Path(id string) string {
	return filepath.Join(s.dataDir, id)
}

// Save writes content to the path derived from id and returns that path
// together with the number of bytes written.
func (s *Storage) Save(id string, content io.Reader) (string, int64, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := s.Path(id)
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		// Clean up file if copy fails
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write file content: %w", err)
	}

	return path, size, nil
}

// Open returns a reader for the blob with the given identifier.
func (s *Storage) Open(id string) (io.ReadCloser, error) {
	file, err := os.Open(s.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the blob with the given identifier. A missing blob is a
// no-op so concurrent reclaims stay idempotent.
func (s *Storage) Delete(id string) error {
	if err := os.Remove(s.Path(id)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
