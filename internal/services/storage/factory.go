package storage

import (
	"fmt"

	"github.com/liveleaper/liveleaper/internal/config"
)

// NewStorage creates the archive backend selected by configuration.
func NewStorage(cfg *config.StorageConfig, localDir string) (Storage, error) {
	switch cfg.Backend {
	case "s3":
		storage, err := NewS3Storage(&cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return storage, nil
	case "", "local":
		return NewLocalStorage(localDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
