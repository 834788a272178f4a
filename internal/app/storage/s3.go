package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"quickdrop/internal/pkg/logx"
)

// s3KeyPrefix namespaces voice blobs inside the bucket.
const s3KeyPrefix = "voices/"

// s3Config holds the connection settings for an S3-compatible bucket.
type s3Config struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// s3Store implements BlobStore against an S3-compatible bucket.
type s3Store struct {
	cfg      s3Config
	client   *s3.Client
	uploader *manager.Uploader
}

// newS3Store initializes the S3 client with a custom endpoint so that
// S3-compatible object stores work as well as AWS itself.
func newS3Store(cfg s3Config) (*s3Store, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &s3Store{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *s3Store) objectKey(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	return s3KeyPrefix + key, nil
}

// Put uploads the blob under the voices namespace.
func (s *s3Store) Put(ctx context.Context, key string, contentType string, data []byte) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.BucketName,
		Key:         &objectKey,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})

	if err != nil {
		logx.Error(err, "S3 upload failed", "key", objectKey)
		return fmt.Errorf("failed to upload voice blob %q", key)
	}

	return nil
}

// DownloadURL generates a presigned URL for downloading the blob, valid for ttl.
func (s *s3Store) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return "", err
	}

	presignClient := s3.NewPresignClient(s.client)

	resp, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.BucketName,
		Key:    &objectKey,
	}, s3.WithPresignExpires(ttl))

	if err != nil {
		logx.Error(err, "Failed to generate presigned URL", "key", objectKey)
		return "", fmt.Errorf("failed to generate presigned URL for %q", key)
	}

	return resp.URL, nil
}

// Delete removes the blob from the bucket.
func (s *s3Store) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.BucketName,
		Key:    &objectKey,
	})

	if err != nil {
		logx.Error(err, "S3 delete failed", "key", objectKey)
		return fmt.Errorf("failed to delete voice blob %q", key)
	}

	return nil
}
