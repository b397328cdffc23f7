package photo

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("photo_not_found")

// Backend stores opaque objects under a key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
