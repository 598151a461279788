package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsObjects is the part of a bucket handle the store uses.
type gcsObjects interface {
	NewReader(ctx context.Context, key string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, key, contentType string) io.WriteCloser
	Delete(ctx context.Context, key string) error
}

type bucketObjects struct {
	bucket *storage.BucketHandle
}

func (b bucketObjects) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b bucketObjects) NewWriter(ctx context.Context, key, contentType string) io.WriteCloser {
	w := b.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache, no-store, must-revalidate"
	return w
}

func (b bucketObjects) Delete(ctx context.Context, key string) error {
	return b.bucket.Object(key).Delete(ctx)
}

// GCSStore keeps objects under Prefix in one Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	objects gcsObjects
	bucket  string
	prefix  string
}

// NewGCSStore uses Application Default Credentials unless credentialsFile
// names a service account key.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{
		client:  client,
		objects: bucketObjects{bucket: client.Bucket(bucket)},
		bucket:  bucket,
		prefix:  prefix,
	}, nil
}

func (s *GCSStore) key(name string) (string, error) {
	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	return path.Join(s.prefix, name), nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	r, err := s.objects.NewReader(ctx, key)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: gs://%s/%s", ErrNotFound, s.bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", key, err)
	}
	return data, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	w := s.objects.NewWriter(ctx, key, contentType(name))
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write GCS object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	err = s.objects.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
