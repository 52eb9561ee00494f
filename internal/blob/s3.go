package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string // host[:port], no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base objects are served from, e.g. a Supabase
	// storage public URL or a CDN. Defaults to the endpoint and bucket.
	PublicURL string
}

// S3 stores blobs in an S3-compatible bucket.
type S3 struct {
	api       *minio.Client
	bucket    string
	publicURL string
}

// NewS3 creates an S3 store.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: creating client: %w", err)
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return &S3{api: api, bucket: cfg.Bucket, publicURL: base}, nil
}

// Upload puts data at path and returns its public URL.
func (s *S3) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.api.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("s3: uploading %s: %w", path, err)
	}
	return s.URL(path), nil
}

// URL returns the public URL of path.
func (s *S3) URL(path string) string {
	return s.publicURL + "/" + strings.TrimLeft(path, "/")
}
