package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrObjectNotFound is wrapped by StorageError when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// StorageError wraps any failure returned by an object store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ObjectStore is the capability set the ingestion pipeline needs from an
// object store. Implementations do not retry; callers decide.
type ObjectStore interface {
	// Put stores size bytes from r under key. The object is readable once Put returns nil.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens the object for reading. The caller closes the stream.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Sign returns a bearer URL valid for ttl. Existence of key is not checked.
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)
}
