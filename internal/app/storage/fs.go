package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// VoicePathPrefix is the server-relative path voice references resolve under.
const VoicePathPrefix = "/voices/"

// FSStore stores voice blobs as files in a single local directory.
type FSStore struct {
	dir string
}

// newFSStore creates the storage directory if needed and returns the store.
func newFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create voice storage directory %q: %w", dir, err)
	}

	return &FSStore{dir: dir}, nil
}

// validateKey rejects keys that could escape the storage directory.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

// BlobPath returns the absolute filesystem path for a stored blob key.
func (s *FSStore) BlobPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	return filepath.Join(s.dir, key), nil
}

// Put writes the blob to disk. The content type is implied by the key's
// extension for filesystem storage.
func (s *FSStore) Put(ctx context.Context, key string, contentType string, data []byte) error {
	path, err := s.BlobPath(key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write voice blob %q: %w", key, err)
	}

	return nil
}

// DownloadURL returns the server-relative path the blob is served from.
func (s *FSStore) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	return VoicePathPrefix + key, nil
}

// Delete removes the blob file. A blob already gone is not an error.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	path, err := s.BlobPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete voice blob %q: %w", key, err)
	}

	return nil
}
