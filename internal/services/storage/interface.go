package storage

import (
	"context"
	"io"
	"time"
)

// Storage archives finished downloads. Backends are S3 compatible
// object stores and a plain local directory.
type Storage interface {
	// Location identifies the backend target, bucket name or directory.
	Location() string
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	UploadWithMetadata(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) error
	// StoreFile archives a local file under key.
	StoreFile(ctx context.Context, key string, path string, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GeneratePresignedURL returns a time limited URL for uploading the
	// given key. Backends without URL support return an error.
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
