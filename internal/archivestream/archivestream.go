// Package archivestream turns a ziplayout.Layout into a streamio.StreamRange:
// given a requested byte range of the virtual archive, it walks the
// layout's regions in order and emits a lazy sequence of chunks, mixing
// constant header/footer bytes with ranged reads from the object store.
package archivestream

import (
	"context"
	"fmt"
	"io"

	"github.com/3drobotics/zipstream/internal/byterange"
	"github.com/3drobotics/zipstream/internal/objectstore"
	"github.com/3drobotics/zipstream/internal/streamio"
	"github.com/3drobotics/zipstream/internal/ziplayout"
)

// readChunkSize bounds how many body bytes are read from the object store
// between channel sends, so that one member's body (which may be
// gigabytes under zip64) does not arrive as a single unbounded chunk.
const readChunkSize = 256 * 1024

// Provider streams byte ranges of the archive described by layout,
// fetching member bodies from store on demand. A Provider is built fresh
// per request and is not safe for concurrent calls to StreamRange.
type Provider struct {
	layout *ziplayout.Layout
	store  objectstore.Client
}

// New returns a Provider over layout, using store to read member bodies.
func New(layout *ziplayout.Layout, store objectstore.Client) *Provider {
	return &Provider{layout: layout, store: store}
}

// Len implements streamio.StreamRange.
func (p *Provider) Len() uint64 {
	return p.layout.TotalLength()
}

// StreamRange implements streamio.StreamRange. Chunks are delivered in
// strictly increasing archive-offset order. The channel has a single slot
// of lookahead: the producer blocks on send until the consumer accepts
// the previous chunk, so a slow reader directly throttles how fast the
// provider issues object-store GETs.
func (p *Provider) StreamRange(ctx context.Context, r byterange.Range) <-chan streamio.Chunk {
	ch := make(chan streamio.Chunk, 1)
	go p.produce(ctx, r, ch)
	return ch
}

func (p *Provider) produce(ctx context.Context, r byterange.Range, ch chan<- streamio.Chunk) {
	defer close(ch)

	full, _ := byterange.New(0, p.Len())
	if r.End > p.Len() {
		send(ctx, ch, streamio.Chunk{Err: fmt.Errorf("archivestream: range %s exceeds archive length %d", r, p.Len())})
		return
	}
	effective, ok := r.Intersect(full)
	if !ok {
		return
	}

	for _, region := range p.layout.Regions() {
		regionRange, err := byterange.New(region.Offset, region.End())
		if err != nil {
			send(ctx, ch, streamio.Chunk{Err: err})
			return
		}
		seg, ok := effective.Intersect(regionRange)
		if !ok {
			continue
		}

		switch region.Kind {
		case ziplayout.RegionHeader:
			start := seg.Start - region.Offset
			end := seg.End - region.Offset
			if !send(ctx, ch, streamio.Chunk{Data: region.Data[start:end]}) {
				return
			}
		case ziplayout.RegionBody:
			bodyRange, err := byterange.New(seg.Start-region.Offset, seg.End-region.Offset)
			if err != nil {
				send(ctx, ch, streamio.Chunk{Err: err})
				return
			}
			if !p.streamBody(ctx, region.Locator, bodyRange, ch) {
				return
			}
		}
	}
}

// streamBody issues one object-store GET for loc's bytes in bodyRange and
// forwards them as a sequence of chunks no larger than readChunkSize. It
// returns false if the caller should stop (an error was sent, or the
// consumer went away).
func (p *Provider) streamBody(ctx context.Context, loc objectstore.Locator, bodyRange byterange.Range, ch chan<- streamio.Chunk) bool {
	r, err := p.store.Get(ctx, loc, bodyRange)
	if err != nil {
		send(ctx, ch, streamio.Chunk{Err: fmt.Errorf("archivestream: fetching %s/%s: %w", loc.Bucket, loc.Key, err)})
		return false
	}
	defer r.Close()

	want := bodyRange.Len()
	var got uint64
	buf := make([]byte, readChunkSize)
	for got < want {
		n, readErr := r.Read(buf)
		if n > 0 {
			got += uint64(n)
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !send(ctx, ch, streamio.Chunk{Data: chunk}) {
				return false
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				if got < want {
					send(ctx, ch, streamio.Chunk{Err: fmt.Errorf("archivestream: %s/%s: %w: got %d of %d bytes", loc.Bucket, loc.Key, objectstore.ErrShortRead, got, want)})
					return false
				}
				return true
			}
			send(ctx, ch, streamio.Chunk{Err: fmt.Errorf("archivestream: reading %s/%s: %w", loc.Bucket, loc.Key, readErr)})
			return false
		}
	}
	return true
}

// send delivers c on ch, returning false if ctx was cancelled first (in
// which case c is dropped) or if c carries a terminal error.
func send(ctx context.Context, ch chan<- streamio.Chunk, c streamio.Chunk) bool {
	select {
	case ch <- c:
		return c.Err == nil
	case <-ctx.Done():
		return false
	}
}
