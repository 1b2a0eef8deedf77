package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists under the stored name.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects
// under a caller-chosen stored name.
type ObjectStore interface {
	Save(ctx context.Context, storedName, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	URL(ctx context.Context, storedName string) (string, error)
}
