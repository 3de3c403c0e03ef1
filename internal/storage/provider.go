package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("invalid object key")

// Blobs is a flat object store addressed by slash separated keys.
type Blobs interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	// Stat reports whether key holds an object. Only a missing object is
	// (false, nil); any other failure is returned.
	Stat(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, body io.Reader) error
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object under prefix, succeeding when there are none.
	DeletePrefix(ctx context.Context, prefix string) error
}
