package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps snapshots as local files; the key is the path.
type FileStore struct{}

// Put writes data atomically: to a temp file in the same directory, then
// renamed over key.
func (FileStore) Put(_ context.Context, key string, data []byte) error {
	dir := filepath.Dir(key)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), key); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get reads the file at key.
func (FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
