package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignExpiry is how long generated image URLs remain fetchable.
// Completed records carry the object key, so URLs can be re-issued.
const PresignExpiry = 7 * 24 * time.Hour

// ObjectStore persists generated image assets and yields retrievable URLs
type ObjectStore interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) error
	ImageURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// MinioStore implements ObjectStore against MinIO or any S3-compatible
// endpoint
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the object storage endpoint and ensures the
// bucket exists
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// PutImage uploads an image asset under the given key
func (s *MinioStore) PutImage(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload image asset: %w", err)
	}
	return nil
}

// ImageURL returns a presigned GET URL for the asset
func (s *MinioStore) ImageURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign image url: %w", err)
	}
	return u.String(), nil
}

// Remove deletes the asset
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove image asset: %w", err)
	}
	return nil
}

// NewImageKey derives a unique object key for a generated image. The
// prompt prefix keeps keys recognizable when browsing the bucket.
func NewImageKey(prompt string) string {
	prefix := strings.ToLower(prompt)
	if len(prefix) > 24 {
		prefix = prefix[:24]
	}
	var b strings.Builder
	for _, r := range prefix {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return fmt.Sprintf("%s-%s.png", strings.Trim(b.String(), "-"), shortuuid.New())
}
