// Package streamio defines the lazy, cancellable chunk-stream abstraction
// shared by every object the gateway can serve a byte range of: the
// in-memory buffer used in tests and the synthesized ZIP archive used in
// production.
package streamio

import (
	"context"

	"github.com/3drobotics/zipstream/internal/byterange"
)

// Chunk is one item of a chunk sequence: either a slice of bytes or a
// terminal error. Once Err is non-nil, no further chunks follow.
type Chunk struct {
	Data []byte
	Err  error
}

// StreamRange is implemented by anything that can report its total length
// and produce the bytes of an arbitrary sub-range as a lazy sequence of
// chunks. Implementations must not be shared between concurrent callers of
// StreamRange; each call owns its returned channel exclusively.
type StreamRange interface {
	// Len returns the total size in bytes of the logical object.
	Len() uint64

	// StreamRange returns a channel that yields the bytes of r in order.
	// The channel is closed after the final chunk (a successful read that
	// reaches r.End, or a chunk carrying a non-nil Err). Callers that stop
	// reading before the channel closes must cancel ctx to let the
	// producer release its resources; ctx is not retained after the
	// returned channel is closed or abandoned.
	StreamRange(ctx context.Context, r byterange.Range) <-chan Chunk
}

// Buffer is an in-memory StreamRange backed by a byte slice, used in tests
// as a stand-in for a whole served entity.
type Buffer []byte

// Len implements StreamRange.
func (b Buffer) Len() uint64 {
	return uint64(len(b))
}

// StreamRange implements StreamRange. A range ending past Len() yields a
// single error chunk. Otherwise the requested slice is delivered as a
// single chunk; Buffer has no reason to fragment output since it holds no
// I/O resources to pace.
func (b Buffer) StreamRange(ctx context.Context, r byterange.Range) <-chan Chunk {
	ch := make(chan Chunk, 1)
	full, _ := byterange.New(0, b.Len())
	effective, _ := r.Intersect(full)
	if r.End > b.Len() {
		ch <- Chunk{Err: errOutOfRange(r, b.Len())}
		close(ch)
		return ch
	}
	if ctx.Err() != nil {
		ch <- Chunk{Err: ctx.Err()}
		close(ch)
		return ch
	}
	if !effective.Empty() {
		ch <- Chunk{Data: b[effective.Start:effective.End]}
	}
	close(ch)
	return ch
}

type rangeError struct {
	r      byterange.Range
	length uint64
}

func errOutOfRange(r byterange.Range, length uint64) error {
	return &rangeError{r: r, length: length}
}

func (e *rangeError) Error() string {
	return "streamio: range " + e.r.String() + " exceeds length"
}

// Collect drains ch and concatenates every chunk's data, returning the
// first error encountered (if any) alongside whatever bytes were produced
// before it. It is intended for tests; production code should stream
// chunks to their destination as they arrive instead of buffering them.
func Collect(ch <-chan Chunk) ([]byte, error) {
	var out []byte
	for c := range ch {
		if c.Err != nil {
			return out, c.Err
		}
		out = append(out, c.Data...)
	}
	return out, nil
}
