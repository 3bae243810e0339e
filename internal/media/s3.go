package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/oceaneye/oceaneye/internal/config"
)

// presignTTL bounds how long an object URL stays dereferenceable when the
// bucket has no public base URL configured. It must comfortably exceed the
// analysis call timeout.
const presignTTL = 24 * time.Hour

// S3Store persists media in a MinIO/S3 bucket. When cfg.S3PublicURL is set
// the bucket is assumed publicly readable and object URLs are built from it;
// otherwise Save returns a presigned GET URL.
type S3Store struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
	maxBytes  int64
}

// NewS3Store creates a MinIO client from the Config.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		publicURL: cfg.S3PublicURL,
		maxBytes:  cfg.MaxUploadBytes,
	}, nil
}

// EnsureBucket makes sure the media bucket exists before first use.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Save uploads the media under a collision-resistant object key and returns
// its URL.
func (s *S3Store) Save(ctx context.Context, r io.Reader, originalName, contentType string) (string, error) {
	key := uniqueName(originalName)
	reader := r
	if s.maxBytes > 0 {
		reader = io.LimitReader(r, s.maxBytes+1)
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload media object: %w", err)
	}
	if s.maxBytes > 0 && info.Size > s.maxBytes {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return "", ErrTooLarge
	}
	if info.Size == 0 {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return "", ErrEmptyMedia
	}
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign media object: %w", err)
	}
	return u.String(), nil
}
