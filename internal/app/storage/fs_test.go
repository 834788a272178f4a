package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quickdrop/internal/configs"
)

func TestFSStore_PutDownloadDelete(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	store, err := newFSStore(dir)
	req.NoError(err)

	ctx := context.Background()
	data := []byte("audio bytes")

	req.NoError(store.Put(ctx, "clip-1.wav", "audio/wav", data))

	path, err := store.BlobPath("clip-1.wav")
	req.NoError(err)
	req.Equal(filepath.Join(dir, "clip-1.wav"), path)

	stored, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal(data, stored)

	url, err := store.DownloadURL(ctx, "clip-1.wav", time.Minute)
	req.NoError(err)
	req.Equal("/voices/clip-1.wav", url)

	req.NoError(store.Delete(ctx, "clip-1.wav"))
	_, err = os.Stat(path)
	req.True(os.IsNotExist(err))

	// Deleting again is a no-op.
	req.NoError(store.Delete(ctx, "clip-1.wav"))
}

func TestFSStore_CreatesDirectory(t *testing.T) {
	req := require.New(t)

	dir := filepath.Join(t.TempDir(), "nested", "voices")
	_, err := newFSStore(dir)
	req.NoError(err)

	info, err := os.Stat(dir)
	req.NoError(err)
	req.True(info.IsDir())
}

func TestFSStore_RejectsUnsafeKeys(t *testing.T) {
	req := require.New(t)

	store, err := newFSStore(t.TempDir())
	req.NoError(err)

	ctx := context.Background()
	for _, key := range []string{"", "../escape.wav", "a/b.wav", `a\b.wav`, "..", "x..y"} {
		req.Error(store.Put(ctx, key, "audio/wav", []byte("x")), "key %q", key)

		_, err := store.DownloadURL(ctx, key, time.Minute)
		req.Error(err, "key %q", key)

		req.Error(store.Delete(ctx, key), "key %q", key)
	}
}

func TestNewBlobStore_SelectsBackend(t *testing.T) {
	req := require.New(t)

	fsStore, err := NewBlobStore(&configs.AppConfig{
		VoiceStorageBackend: configs.StorageBackendFS,
		VoiceDir:            t.TempDir(),
	})
	req.NoError(err)
	req.IsType(&FSStore{}, fsStore)

	_, err = NewBlobStore(&configs.AppConfig{VoiceStorageBackend: "tape"})
	req.Error(err)
}
