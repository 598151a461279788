package archive

import (
	"context"
	"fmt"

	"github.com/agenthands/infoase/internal/config"
	"github.com/agenthands/infoase/internal/logger"
)

// Open builds the archive on the configured backend.
func Open(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) (*Archive, error) {
	var blobs BlobStore
	switch cfg.Backend {
	case "", "local":
		blobs = NewLocalStore(cfg.Dir)
	case "s3":
		s, err := NewS3Store(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		blobs = s
	case "gcs":
		s, err := NewGCSStore(ctx, cfg.Bucket, cfg.Prefix, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		blobs = s
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Backend)
	}

	logger.OrNop(log).Info("archive ready", "backend", cfg.Backend, "dir", cfg.Dir, "bucket", cfg.Bucket)
	return New(blobs, log), nil
}
