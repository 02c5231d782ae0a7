// Package gcs provides a Google Cloud Storage implementation of the storage
// adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// ProviderType defines the type identifier for this storage backend.
const ProviderType = "gcs"

// init registers the GCS factory. Importing this package for side effects
// makes "gcs" storage connections available.
func init() {
	storageadapter.RegisterFactory(ProviderType, func(cfg storageadapter.StorageConfig, name string) (storageadapter.Connection, error) {
		return NewGCSAdapter(context.Background(), cfg, name)
	})
}

// gcsAdapter implements storage.Connection on Google Cloud Storage.
type gcsAdapter struct {
	client *gcstorage.Client
	cfg    storageadapter.StorageConfig
	name   string
}

var _ storageadapter.Connection = (*gcsAdapter)(nil)

// NewGCSAdapter creates a new gcsAdapter. When CredentialsFile is empty the
// client falls back to application default credentials.
func NewGCSAdapter(ctx context.Context, cfg storageadapter.StorageConfig, name string) (storageadapter.Connection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage adapter '%s': BucketName must be specified in configuration", name)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}

	return &gcsAdapter{client: client, cfg: cfg, name: name}, nil
}

// Close closes the underlying GCS client.
func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

// Type returns "gcs".
func (a *gcsAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

// Upload writes data to the object in the configured bucket.
func (a *gcsAdapter) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	w := a.client.Bucket(a.cfg.BucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object 'gs://%s/%s': %w", a.cfg.BucketName, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object 'gs://%s/%s': %w", a.cfg.BucketName, objectName, err)
	}
	logger.Debugf("Uploaded data to 'gs://%s/%s' (gcs adapter '%s').", a.cfg.BucketName, objectName, a.name)
	return nil
}

// Download opens the object for reading. The returned io.ReadCloser must be
// closed by the caller.
func (a *gcsAdapter) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	r, err := a.client.Bucket(a.cfg.BucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object 'gs://%s/%s': %w", a.cfg.BucketName, objectName, err)
	}
	return r, nil
}

// ListObjects calls fn for each object under the prefix in the bucket.
func (a *gcsAdapter) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	it := a.client.Bucket(a.cfg.BucketName).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects under 'gs://%s/%s': %w", a.cfg.BucketName, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject deletes the object from the bucket.
func (a *gcsAdapter) DeleteObject(ctx context.Context, objectName string) error {
	if err := a.client.Bucket(a.cfg.BucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object 'gs://%s/%s': %w", a.cfg.BucketName, objectName, err)
	}
	return nil
}
