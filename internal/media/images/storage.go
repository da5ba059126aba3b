// Package images provides recipe image validation, processing, and storage.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage manages image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for recipe images.
// basePath should be the data directory (e.g., ~/Saucepan/data).
// Images will be stored in {basePath}/recipes/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "recipes")

	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recipes directory: %w", err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores image data under the given filename.
func (s *Storage) Save(filename string, imgData []byte) error {
	if err := validFilename(filename); err != nil {
		return err
	}
	if len(imgData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(filename), imgData, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Get retrieves image data for a filename.
func (s *Storage) Get(filename string) ([]byte, error) {
	if err := validFilename(filename); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found: %s: %w", filename, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists checks whether a stored image exists.
func (s *Storage) Exists(filename string) bool {
	if validFilename(filename) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Delete removes a stored image. Deleting a missing file is not an error.
func (s *Storage) Delete(filename string) error {
	if err := validFilename(filename); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Path returns the full filesystem path for a stored image.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// validFilename rejects empty names and anything that could escape basePath.
func validFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid filename: %s", filename)
	}
	return nil
}
