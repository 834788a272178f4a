/*
Package storage provides the content store for voice recordings.

The core relay never keeps audio bytes in memory past the write; it hands them
to a BlobStore keyed by a generated name and broadcasts only the reference.
Two backends exist: a local filesystem directory and an S3-compatible bucket.
*/
package storage

import (
	"context"
	"fmt"
	"time"

	"quickdrop/internal/configs"
)

// BlobStore is the public interface of the voice content store.
type BlobStore interface {
	// Put writes a blob under the given key with the given content type.
	Put(ctx context.Context, key string, contentType string, data []byte) error

	// DownloadURL returns a URL the blob can be fetched from. Filesystem
	// blobs resolve to a server-relative path; S3 blobs to a presigned URL
	// valid for ttl.
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the blob with the given key.
	Delete(ctx context.Context, key string) error
}

// NewBlobStore constructs the BlobStore selected by the configuration.
func NewBlobStore(cfg *configs.AppConfig) (BlobStore, error) {
	switch cfg.VoiceStorageBackend {
	case configs.StorageBackendFS:
		return newFSStore(cfg.VoiceDir)

	case configs.StorageBackendS3:
		return newS3Store(s3Config{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})

	default:
		return nil, fmt.Errorf("unknown voice storage backend %q", cfg.VoiceStorageBackend)
	}
}
