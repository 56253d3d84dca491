// Package rangehttp translates an incoming HTTP request plus a
// streamio.StreamRange into a fully formed HTTP response: it parses Range
// and If-Range, decides whether the response is partial or full, and
// writes status, headers, and body.
//
// Range parsing here is deliberately lenient and table-driven rather than
// delegating to net/http's built-in range handling: out-of-bounds ranges
// are treated as "ignore, serve the full entity" rather than 416, which
// net/http.ServeContent does not do.
package rangehttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/3drobotics/zipstream/internal/byterange"
	"github.com/3drobotics/zipstream/internal/streamio"
)

// ErrParse is returned when a Range header's bytes= unit is present but
// its syntax cannot be parsed (as opposed to merely being out of bounds,
// which is not an error — see ParseRange).
var ErrParse = errors.New("rangehttp: could not parse Range header")

// ParseRange parses the value of a Range header against an entity of the
// given total length, following the table:
//
//	"N-"      -> [N, total)           ; N >= total is out of range
//	"-N"      -> [total-N, total)     ; N >= total is out of range
//	"A-B"     -> [A, B+1)             ; B >= total or A > B is out of range
//
// Only the "bytes" unit is accepted; any other unit, an empty range spec,
// or an unparsable number is reported as ErrParse. Out-of-range results
// and comma-separated multi-range requests are reported by returning
// ok=false with a nil error: the caller is expected to serve the full
// entity in that case, exactly as if no Range header had been present at
// all.
func ParseRange(header string, total uint64) (r byterange.Range, ok bool, err error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byterange.Range{}, false, ErrParse
	}
	spec := strings.TrimPrefix(header, prefix)
	if spec == "" {
		return byterange.Range{}, false, ErrParse
	}
	if strings.Contains(spec, ",") {
		return byterange.Range{}, false, nil
	}

	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return byterange.Range{}, false, ErrParse
	}
	startStr, endStr := spec[:dash], spec[dash+1:]

	switch {
	case startStr == "" && endStr == "":
		return byterange.Range{}, false, ErrParse

	case startStr == "": // "-N": last N bytes
		n, err := strconv.ParseUint(endStr, 10, 64)
		if err != nil {
			return byterange.Range{}, false, ErrParse
		}
		if n >= total {
			return byterange.Range{}, false, nil
		}
		return byterange.Range{Start: total - n, End: total}, true, nil

	case endStr == "": // "N-": from N to the end
		n, err := strconv.ParseUint(startStr, 10, 64)
		if err != nil {
			return byterange.Range{}, false, ErrParse
		}
		if n >= total {
			return byterange.Range{}, false, nil
		}
		return byterange.Range{Start: n, End: total}, true, nil

	default: // "A-B"
		a, err := strconv.ParseUint(startStr, 10, 64)
		if err != nil {
			return byterange.Range{}, false, ErrParse
		}
		b, err := strconv.ParseUint(endStr, 10, 64)
		if err != nil {
			return byterange.Range{}, false, ErrParse
		}
		if b >= total || a > b {
			return byterange.Range{}, false, nil
		}
		return byterange.Range{Start: a, End: b + 1}, true, nil
	}
}

// Entity is the metadata ServeRange needs to write response headers for
// one archive, independent of how its bytes are produced.
type Entity struct {
	ArchiveName string
	ContentType string
	ETag        string
	Source      streamio.StreamRange
}

// ServeRange writes the response for r against entity to w: it resolves
// Range/If-Range, writes status and headers, then streams the selected
// body range chunk by chunk. Response headers are written before the
// first body chunk, so the Content-Length commitment is firm; a stream
// error after that point can only be surfaced by aborting the connection,
// which net/http does automatically when the handler returns early after
// writing fewer bytes than announced.
func ServeRange(ctx context.Context, w http.ResponseWriter, req *http.Request, entity Entity) error {
	total := entity.Source.Len()
	effective := byterange.Range{Start: 0, End: total}
	partial := false

	if rangeHeader := req.Header.Get("Range"); rangeHeader != "" {
		if ifRange := req.Header.Get("If-Range"); ifRange != "" && ifRange != entity.ETag {
			// Mismatch: drop Range, serve the full entity.
		} else {
			parsed, ok, err := ParseRange(rangeHeader, total)
			if err != nil {
				// A malformed Range header is ignored by design: serve
				// the full entity rather than reject the request.
			} else if ok {
				effective = parsed
				partial = true
			}
		}
	}

	header := w.Header()
	header.Set("Content-Type", entity.ContentType)
	header.Set("Accept-Ranges", "bytes")
	header.Set("ETag", entity.ETag)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entity.ArchiveName))
	header.Set("Content-Length", strconv.FormatUint(effective.Len(), 10))

	if partial {
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", effective.Start, effective.End-1, total))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if req.Method == http.MethodHead {
		return nil
	}

	for chunk := range entity.Source.StreamRange(ctx, effective) {
		if chunk.Err != nil {
			return chunk.Err
		}
		if _, err := w.Write(chunk.Data); err != nil {
			return err
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	return nil
}
