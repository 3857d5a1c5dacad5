package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage defines the interface for object storage operations
type Storage interface {
	// Save stores data under a key and returns the key it was stored at
	Save(key string, data []byte, contentType string) (string, error)

	// Get retrieves an object by key
	Get(key string) ([]byte, error)

	// Delete removes an object
	Delete(key string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// resolve maps a key to a path below the base directory
func (l *LocalStorage) resolve(key string) (string, error) {
	path := filepath.Join(l.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.basePath, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return path, nil
}

// Save writes an object to local storage, creating partition directories as needed
func (l *LocalStorage) Save(key string, data []byte, contentType string) (string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating partition directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return key, nil
}

// Get retrieves an object from local storage
func (l *LocalStorage) Get(key string) ([]byte, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an object from local storage
func (l *LocalStorage) Delete(key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
