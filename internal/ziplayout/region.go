package ziplayout

import "github.com/3drobotics/zipstream/internal/objectstore"

// RegionKind distinguishes the two kinds of byte ranges a Layout is made
// of: bytes that exist only in memory (headers, directory, end records)
// and bytes that must be fetched from a member's body in the object
// store.
type RegionKind int

const (
	// RegionHeader is a constant, in-memory slice of bytes: a local file
	// header, the central directory, or the end-of-central-directory
	// records. It is a pure function of member metadata and never reads
	// any member body.
	RegionHeader RegionKind = iota

	// RegionBody is a member's body, to be read from the object store.
	RegionBody
)

// Region is one contiguous, non-overlapping slice of the archive's byte
// space. A Layout's regions, in order, partition [0, TotalLength())
// exactly: no gaps, no overlaps.
type Region struct {
	Kind RegionKind

	// Offset is this region's absolute starting offset within the
	// archive.
	Offset uint64

	// Length is the number of bytes this region covers.
	Length uint64

	// Data holds the region's bytes when Kind is RegionHeader.
	Data []byte

	// Locator addresses the member body to read when Kind is RegionBody.
	// The body occupies the region at its own offset 0: Region.Length
	// bytes starting at Locator's object, with no internal offset, since
	// a member is never split across more than one body region.
	Locator objectstore.Locator
}

// End returns the exclusive end offset of the region.
func (r Region) End() uint64 {
	return r.Offset + r.Length
}
