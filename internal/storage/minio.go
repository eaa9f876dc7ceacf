// Package storage stores user uploads in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// MinioConfig holds the connection settings for a MinIO or S3 endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string

	// PublicURL is the externally reachable base URL of the endpoint. When
	// empty the endpoint itself is used.
	PublicURL string
}

// MinioAvatarStorage puts avatar images into a single bucket.
type MinioAvatarStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       logrus.FieldLogger
}

func NewMinioAvatarStorage(cfg MinioConfig, log logrus.FieldLogger) (*MinioAvatarStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinioAvatarStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		log:       log,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioAvatarStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.WithField("bucket", s.bucket).Info("Created avatar bucket")
	return nil
}

// Put uploads body under key and returns its public URL.
func (s *MinioAvatarStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.log.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
		"size":   info.Size,
	}).Debug("Object uploaded")
	return s.URL(key), nil
}

// URL returns the public URL of an object key.
func (s *MinioAvatarStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}
