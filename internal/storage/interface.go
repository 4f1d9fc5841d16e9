package storage

import (
	"context"
	"io"
)

// ObjectStorage is the object store run reports are archived to
type ObjectStorage interface {
	// EnsureBucket creates the target bucket if it does not exist
	EnsureBucket(ctx context.Context) error

	// Upload writes an object
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL of an object
	GetURL(key string) string
}
