package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get and Stat when no object is stored under the key.
var ErrNotExist = errors.New("object does not exist")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	Location    string // filesystem path or object URL, backend specific
}

// Storage is a flat key/value blob store. Keys are single path segments;
// writing an existing key replaces it.
type Storage interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Name() string
}
