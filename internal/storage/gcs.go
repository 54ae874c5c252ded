package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
)

// GCSBackend stores objects in Google Cloud Storage using application
// default credentials.
type GCSBackend struct {
	client *storage.Client
}

// NewGCSBackend opens a Cloud Storage client.
func NewGCSBackend(ctx context.Context) (*GCSBackend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSBackend{client: client}, nil
}

func (g *GCSBackend) Scheme() string { return "gs" }

func (g *GCSBackend) Put(ctx context.Context, bucket, object, contentType string, data []byte) error {
	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSBackend) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Close releases the underlying client.
func (g *GCSBackend) Close() error {
	return g.client.Close()
}
