package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/pkg/circuitbreaker"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type minioUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
	cb        *circuitbreaker.CircuitBreaker
}

func NewMinioUploader(ctx context.Context, cfg MinioConfig) (Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("connected to object storage")

	return &minioUploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "minio-upload",
			MaxFailures: 5,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}, nil
}

func (u *minioUploader) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	err := u.cb.Execute(func() error {
		_, err := u.client.PutObject(ctx, u.bucket, name, r, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", name, err)
	}
	return fmt.Sprintf("%s/%s/%s", u.publicURL, u.bucket, name), nil
}
