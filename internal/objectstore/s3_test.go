package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/3drobotics/zipstream/internal/byterange"
)

type fakeS3API struct {
	gotInput *s3.GetObjectInput
	body     string
	err      error
}

func (f *fakeS3API) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(stringReader(f.body))}, nil
}

type stringReader string

func (s stringReader) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func TestHTTPRangeHeader(t *testing.T) {
	tests := []struct {
		name string
		r    byterange.Range
		want string
	}{
		{name: "normal", r: byterange.Range{Start: 10, End: 20}, want: "bytes=10-19"},
		{name: "from start", r: byterange.Range{Start: 0, End: 1}, want: "bytes=0-0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := httpRangeHeader(test.r); got != test.want {
				t.Fatalf("httpRangeHeader() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestS3Client_GetWrapsTransportError(t *testing.T) {
	api := &fakeS3API{err: errors.New("boom")}
	c := &S3Client{api: api}
	_, err := c.Get(context.Background(), Locator{Bucket: "b", Key: "k"}, byterange.Range{Start: 0, End: 10})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestShortReadGuard(t *testing.T) {
	g := &shortReadGuard{r: io.NopCloser(newFixedReader("ab")), want: 5}
	buf := make([]byte, 5)
	n, err := io.ReadFull(g, buf)
	if n != 2 {
		t.Fatalf("expected 2 bytes read, got %d", n)
	}
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

type fixedReader struct {
	data []byte
	off  int
}

func newFixedReader(s string) *fixedReader {
	return &fixedReader{data: []byte(s)}
}

func (f *fixedReader) Read(p []byte) (int, error) {
	if f.off >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	if f.off >= len(f.data) {
		return n, io.EOF
	}
	return n, nil
}
