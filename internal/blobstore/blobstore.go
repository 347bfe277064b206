package blobstore

import (
	"context"
	"fmt"

	"github.com/ksred/purchase-orders-api/internal/config"
)

// Store is the object storage used for request files and CSV exports.
// Put overwrites any existing object under the same key.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// FromConfig builds the Store selected by BLOB_BACKEND
func FromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case "file":
		return NewFileStore(cfg.BlobDir)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSKeyID,
			SecretAccessKey: cfg.AWSSecret,
			Endpoint:        cfg.AWSEndpoint,
		})
	default:
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.BlobBackend)
	}
}
