package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

/*
DirectoryStore is a storage provider that stores objects in a local
directory, one file per key. Nested keys create subdirectories.
*/

////////////////////////////////////////////////////////////////////////////////

type DirectoryStore struct {
	root string
}

// NewDirectoryStore creates a new DirectoryStore.
func NewDirectoryStore(root string) *DirectoryStore {
	return &DirectoryStore{root: root}
}

func (d *DirectoryStore) path(id string) string {
	return filepath.Join(d.root, filepath.FromSlash(id))
}

// Put stores an object in the directory.
func (d *DirectoryStore) Put(_ context.Context, id string, data []byte) error {
	path := d.path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write failure: %w", err)
	}
	return nil
}

// Get retrieves an object from the directory.
func (d *DirectoryStore) Get(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(d.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes an object from the directory.
func (d *DirectoryStore) Delete(_ context.Context, id string) error {
	err := os.Remove(d.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) { // For conformance to S3 API
			return nil
		}
		return fmt.Errorf("deletion failure: %w", err)
	}
	return nil
}

func (d *DirectoryStore) String() string {
	return fmt.Sprintf("directory(%s)", d.root)
}
