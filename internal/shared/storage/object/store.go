package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves uploaded files. Keys returned by Save are
// relative to the store root and namespaced by a hash of the caller's namespace.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
