package archivestream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/3drobotics/zipstream/internal/byterange"
	"github.com/3drobotics/zipstream/internal/objectstore"
	"github.com/3drobotics/zipstream/internal/streamio"
	"github.com/3drobotics/zipstream/internal/ziplayout"
)

// fakeStore serves bytes out of an in-memory map keyed by Locator.Key. It
// also counts how many Get calls are outstanding at once, so tests can
// assert on backpressure.
type fakeStore struct {
	objects map[string][]byte

	mu          sync.Mutex
	outstanding int
	maxConcurr  int
	shortBy     map[string]int // key -> bytes to withhold from the end of the object
	failKey     string
}

func (s *fakeStore) Get(ctx context.Context, loc objectstore.Locator, r byterange.Range) (io.ReadCloser, error) {
	if loc.Key == s.failKey {
		return nil, errors.New("fakeStore: injected failure")
	}

	s.mu.Lock()
	s.outstanding++
	if s.outstanding > s.maxConcurr {
		s.maxConcurr = s.outstanding
	}
	s.mu.Unlock()

	body := s.objects[loc.Key]
	if r.End > uint64(len(body)) || r.Start > r.End {
		s.release()
		return nil, errors.New("fakeStore: range out of bounds")
	}
	slice := body[r.Start:r.End]
	if withhold, ok := s.shortBy[loc.Key]; ok && withhold > 0 && withhold <= len(slice) {
		slice = slice[:len(slice)-withhold]
	}

	return &fakeReadCloser{r: bytes.NewReader(slice), onClose: s.release}, nil
}

func (s *fakeStore) release() {
	s.mu.Lock()
	s.outstanding--
	s.mu.Unlock()
}

type fakeReadCloser struct {
	r       *bytes.Reader
	onClose func()
	closed  bool
}

func (f *fakeReadCloser) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *fakeReadCloser) Close() error {
	if !f.closed {
		f.closed = true
		f.onClose()
	}
	return nil
}

func buildTestLayout(t *testing.T, members map[string][]byte, order []string) (*ziplayout.Layout, map[string][]byte) {
	t.Helper()
	var manifestMembers []ziplayout.Member
	bodies := make(map[string][]byte)
	for _, name := range order {
		body := members[name]
		bodies[name] = body
		manifestMembers = append(manifestMembers, ziplayout.Member{
			Name:    name,
			Size:    uint64(len(body)),
			Locator: objectstore.Locator{Bucket: "bucket", Key: name},
		})
	}
	l, err := ziplayout.Build(ziplayout.Manifest{ArchiveName: "bundle.zip", Members: manifestMembers})
	if err != nil {
		t.Fatalf("ziplayout.Build: %v", err)
	}
	return l, bodies
}

func TestProvider_RangeFidelity(t *testing.T) {
	order := []string{"a.txt", "b.bin"}
	bodies := map[string][]byte{
		"a.txt": []byte("hello world, this is member a"),
		"b.bin": bytes.Repeat([]byte{0x42}, 5000),
	}
	l, objects := buildTestLayout(t, bodies, order)
	store := &fakeStore{objects: objects}
	p := New(l, store)

	full, err := fullStream(p)
	if err != nil {
		t.Fatalf("full stream: %v", err)
	}
	if uint64(len(full)) != l.TotalLength() {
		t.Fatalf("full stream length = %d, want %d", len(full), l.TotalLength())
	}

	cases := []struct {
		start, end uint64
	}{
		{0, 10},
		{5, l.TotalLength()},
		{100, 200},
		{l.TotalLength() - 1, l.TotalLength()},
	}
	for _, c := range cases {
		r, err := byterange.New(c.start, c.end)
		if err != nil {
			t.Fatalf("byterange.New(%d,%d): %v", c.start, c.end, err)
		}
		got, err := streamio.Collect(p.StreamRange(context.Background(), r))
		if err != nil {
			t.Fatalf("range [%d,%d): %v", c.start, c.end, err)
		}
		want := full[c.start:c.end]
		if !bytes.Equal(got, want) {
			t.Fatalf("range [%d,%d): got %d bytes, want %d bytes matching slice of full stream", c.start, c.end, len(got), len(want))
		}
	}
}

func fullStream(p *Provider) ([]byte, error) {
	r, err := byterange.New(0, p.Len())
	if err != nil {
		return nil, err
	}
	return streamio.Collect(p.StreamRange(context.Background(), r))
}

func TestProvider_RangeBeyondLengthErrors(t *testing.T) {
	bodies := map[string][]byte{"a.txt": []byte("hi")}
	l, objects := buildTestLayout(t, bodies, []string{"a.txt"})
	p := New(l, &fakeStore{objects: objects})

	r, err := byterange.New(0, l.TotalLength()+100)
	if err != nil {
		t.Fatalf("byterange.New: %v", err)
	}
	_, err = streamio.Collect(p.StreamRange(context.Background(), r))
	if err == nil {
		t.Fatal("expected an error for an out-of-bounds range")
	}
}

func TestProvider_ShortReadBecomesError(t *testing.T) {
	bodies := map[string][]byte{"a.txt": bytes.Repeat([]byte{0x01}, 1000)}
	l, objects := buildTestLayout(t, bodies, []string{"a.txt"})
	store := &fakeStore{objects: objects, shortBy: map[string]int{"a.txt": 10}}
	p := New(l, store)

	_, err := fullStream(p)
	if err == nil {
		t.Fatal("expected a short-read error")
	}
	if !errors.Is(err, objectstore.ErrShortRead) {
		t.Fatalf("got %v, want wrapped objectstore.ErrShortRead", err)
	}
}

func TestProvider_GetFailurePropagates(t *testing.T) {
	bodies := map[string][]byte{"a.txt": []byte("hello")}
	l, objects := buildTestLayout(t, bodies, []string{"a.txt"})
	store := &fakeStore{objects: objects, failKey: "a.txt"}
	p := New(l, store)

	_, err := fullStream(p)
	if err == nil {
		t.Fatal("expected the injected GET failure to surface as a stream error")
	}
}

// slowConsumer reads chunks one at a time with a delay, giving the
// producer every opportunity to race ahead if it ignored backpressure.
func slowConsumer(ch <-chan streamio.Chunk, delay time.Duration) (int, error) {
	n := 0
	for c := range ch {
		if c.Err != nil {
			return n, c.Err
		}
		n += len(c.Data)
		time.Sleep(delay)
	}
	return n, nil
}

func TestProvider_BoundedPrefetch(t *testing.T) {
	order := []string{"a.bin", "b.bin", "c.bin"}
	bodies := map[string][]byte{
		"a.bin": bytes.Repeat([]byte{1}, 300*1024),
		"b.bin": bytes.Repeat([]byte{2}, 300*1024),
		"c.bin": bytes.Repeat([]byte{3}, 300*1024),
	}
	l, objects := buildTestLayout(t, bodies, order)
	store := &fakeStore{objects: objects}
	p := New(l, store)

	r, err := byterange.New(0, l.TotalLength())
	if err != nil {
		t.Fatalf("byterange.New: %v", err)
	}
	ch := p.StreamRange(context.Background(), r)

	n, err := slowConsumer(ch, time.Millisecond)
	if err != nil {
		t.Fatalf("consuming stream: %v", err)
	}
	if uint64(n) != l.TotalLength() {
		t.Fatalf("consumed %d bytes, want %d", n, l.TotalLength())
	}

	store.mu.Lock()
	max := store.maxConcurr
	store.mu.Unlock()
	if max > 1 {
		t.Fatalf("observed %d concurrent object-store GETs, want at most 1", max)
	}
}

func TestProvider_ConsumerCancellationStopsProducer(t *testing.T) {
	bodies := map[string][]byte{"a.bin": bytes.Repeat([]byte{1}, 10*1024*1024)}
	l, objects := buildTestLayout(t, bodies, []string{"a.bin"})
	store := &fakeStore{objects: objects}
	p := New(l, store)

	ctx, cancel := context.WithCancel(context.Background())
	r, err := byterange.New(0, l.TotalLength())
	if err != nil {
		t.Fatalf("byterange.New: %v", err)
	}
	ch := p.StreamRange(ctx, r)

	var got int64
	<-ch // take exactly one chunk
	atomic.AddInt64(&got, 1)
	cancel()

	// Drain until closed; the producer must exit promptly once ctx is
	// cancelled rather than continuing to fetch and block forever.
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after context cancellation")
	}
}
