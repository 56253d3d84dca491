package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/3drobotics/zipstream/internal/byterange"
)

// s3API is the subset of the AWS SDK S3 client this package depends on. It
// exists so tests can substitute a fake without pulling in the real SDK's
// network stack.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ s3API = (*s3.Client)(nil)

// S3Client is a Client backed by an AWS S3 bucket (or an S3-compatible
// store, via a custom endpoint baked into the underlying SDK client).
type S3Client struct {
	api s3API
}

// NewS3Client wraps an AWS SDK S3 client as a Client.
func NewS3Client(api *s3.Client) *S3Client {
	return &S3Client{api: api}
}

// Get implements Client.
func (c *S3Client) Get(ctx context.Context, loc Locator, r byterange.Range) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Range:  aws.String(httpRangeHeader(r)),
	}
	if loc.Version != "" {
		input.VersionId = aws.String(loc.Version)
	}

	out, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("objectstore: GetObject %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	return &shortReadGuard{r: out.Body, want: r.Len()}, nil
}

// httpRangeHeader formats r as the value of an HTTP Range header, using
// the inclusive-end convention the wire protocol expects.
func httpRangeHeader(r byterange.Range) string {
	if r.Empty() {
		// S3 rejects zero-length ranges; the caller never has a reason to
		// ask for one since an empty segment produces no GET at all, but
		// guard against it rather than sending a malformed header.
		return fmt.Sprintf("bytes=%d-%d", r.Start, r.Start)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End-1)
}

// shortReadGuard wraps a response body and turns a read that reaches EOF
// before delivering the promised number of bytes into ErrShortRead.
type shortReadGuard struct {
	r    io.ReadCloser
	want uint64
	got  uint64
}

func (g *shortReadGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	g.got += uint64(n)
	if err == io.EOF && g.got < g.want {
		return n, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, g.got, g.want)
	}
	return n, err
}

func (g *shortReadGuard) Close() error {
	return g.r.Close()
}
