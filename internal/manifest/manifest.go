// Package manifest decodes the upstream JSON manifest — the description of
// an archive's members — into the types the layout planner consumes.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/3drobotics/zipstream/internal/objectstore"
	"github.com/3drobotics/zipstream/internal/ziplayout"
)

// ErrReadBody wraps any failure to obtain the upstream body in full (a
// transport error mid-read, or the body exceeding the configured size
// limit). Callers must distinguish this from a schema/parse error: the
// former is a 503 (the upstream connection or response misbehaved), the
// latter a 502 (the upstream sent a complete but malformed manifest).
var ErrReadBody = errors.New("manifest: reading upstream body")

// ErrSchema is wrapped with the offending field name when the upstream
// manifest is missing a required value.
type ErrSchema struct {
	Field string
}

func (e *ErrSchema) Error() string {
	return fmt.Sprintf("manifest: missing required field %q", e.Field)
}

// wireLocator mirrors spec.md §6's locator object: bucket, key, and an
// optional version.
type wireLocator struct {
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	Version string `json:"version,omitempty"`
}

// wireMember mirrors one entry of the manifest's member array. Extra JSON
// fields are ignored by encoding/json's default decoding behavior, exactly
// as spec.md §6 requires.
type wireMember struct {
	Name    string       `json:"name"`
	Size    *uint64      `json:"size"`
	CRC32   *uint32      `json:"crc32"`
	Locator *wireLocator `json:"locator"`
}

// wireManifest mirrors the top-level manifest object.
type wireManifest struct {
	ArchiveName string       `json:"archive_name"`
	Members     []wireMember `json:"members"`
}

// ReadBody reads r in full, up to limit bytes, wrapping any failure —
// transport error or exceeding the limit — in ErrReadBody so callers can
// map it to a 503 distinct from a schema/parse failure. It wraps r in an
// io.LimitReader at limit+1 bytes so it can tell an oversized body apart
// from one that happens to end exactly at the limit.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(r, limit+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadBody, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d byte limit", ErrReadBody, limit)
	}
	return body, nil
}

// Parse decodes an already-read manifest body. Every error it returns is
// a schema/parse failure (502), never a read failure.
func Parse(body []byte) (ziplayout.Manifest, error) {
	var wire wireManifest
	if err := json.Unmarshal(body, &wire); err != nil {
		return ziplayout.Manifest{}, fmt.Errorf("manifest: invalid JSON: %w", err)
	}
	if wire.ArchiveName == "" {
		return ziplayout.Manifest{}, &ErrSchema{Field: "archive_name"}
	}

	members := make([]ziplayout.Member, len(wire.Members))
	for i, wm := range wire.Members {
		member, err := wm.toMember()
		if err != nil {
			return ziplayout.Manifest{}, fmt.Errorf("manifest: member %d: %w", i, err)
		}
		members[i] = member
	}

	return ziplayout.Manifest{ArchiveName: wire.ArchiveName, Members: members}, nil
}

// Decode reads r (capped at limit bytes) and parses it as a manifest. It
// is a convenience wrapper over ReadBody followed by Parse; callers that
// need to distinguish a read failure (503) from a schema failure (502)
// should check errors.Is(err, ErrReadBody) on the returned error, or call
// ReadBody and Parse separately.
func Decode(r io.Reader, limit int64) (ziplayout.Manifest, error) {
	body, err := ReadBody(r, limit)
	if err != nil {
		return ziplayout.Manifest{}, err
	}
	return Parse(body)
}

func (wm wireMember) toMember() (ziplayout.Member, error) {
	if wm.Name == "" {
		return ziplayout.Member{}, &ErrSchema{Field: "name"}
	}
	if wm.Size == nil {
		return ziplayout.Member{}, &ErrSchema{Field: "size"}
	}
	if wm.CRC32 == nil {
		return ziplayout.Member{}, &ErrSchema{Field: "crc32"}
	}
	if wm.Locator == nil {
		return ziplayout.Member{}, &ErrSchema{Field: "locator"}
	}
	if wm.Locator.Bucket == "" {
		return ziplayout.Member{}, &ErrSchema{Field: "locator.bucket"}
	}
	if wm.Locator.Key == "" {
		return ziplayout.Member{}, &ErrSchema{Field: "locator.key"}
	}

	return ziplayout.Member{
		Name:  wm.Name,
		Size:  *wm.Size,
		CRC32: *wm.CRC32,
		Locator: objectstore.Locator{
			Bucket:  wm.Locator.Bucket,
			Key:     wm.Locator.Key,
			Version: wm.Locator.Version,
		},
	}, nil
}
