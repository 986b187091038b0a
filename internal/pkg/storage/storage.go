package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get when nothing is stored under the key.
var ErrObjectNotFound = errors.New("stored object not found")

// Storage is a flat key/value blob store for uploaded media.
type Storage interface {
	// Save writes content under key, replacing anything already there.
	Save(ctx context.Context, key string, content io.Reader) error

	// Get opens the object stored under key. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
