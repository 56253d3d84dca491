// Package objectstore defines the narrow interface the gateway uses to
// fetch byte ranges of archive member bodies from backing storage, plus an
// AWS S3-backed implementation of it.
package objectstore

import (
	"context"
	"errors"
	"io"

	"github.com/3drobotics/zipstream/internal/byterange"
)

// Locator addresses one object in the store: a bucket, a key, and an
// optional version. Locator is a plain value so it can be copied freely
// into layout regions without aliasing concerns.
type Locator struct {
	Bucket  string
	Key     string
	Version string // empty means "latest"
}

// ErrShortRead is returned (wrapped) when a Get call returns fewer bytes
// than the requested range, which would otherwise produce a truncated or
// misaligned archive.
var ErrShortRead = errors.New("objectstore: short read")

// Client fetches byte ranges of objects from the backing store. A Client
// is safe for concurrent use by multiple request tasks and is expected to
// be a process-wide singleton owning its own connection pool.
type Client interface {
	// Get returns a reader over the bytes [r.Start, r.End) of the object
	// named by loc. The caller must close the returned ReadCloser. If the
	// returned stream yields fewer than r.Len() bytes before EOF, callers
	// must treat that as ErrShortRead.
	Get(ctx context.Context, loc Locator, r byterange.Range) (io.ReadCloser, error)
}
