package storage

import (
	"context"
	"io"
)

// Storage stores objects under caller-chosen keys.
type Storage interface {
	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public address of key.
	URL(key string) string
}

// Config holds S3-compatible storage settings.
type Config struct {
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	// Endpoint is set for MinIO and other S3-compatible services.
	Endpoint string `env:"S3_ENDPOINT"`
	Region   string `env:"S3_REGION" envDefault:"us-east-1"`
	// PublicURL is a CDN prefix used instead of the bucket URL.
	PublicURL string `env:"S3_PUBLIC_URL"`
	// PathStyle is required by MinIO.
	PathStyle bool `env:"S3_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether a bucket and credentials are configured.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// FileInfo describes a stored object.
type FileInfo struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
