package ziplayout

import "github.com/3drobotics/zipstream/internal/objectstore"

// Member describes one declared entry of the archive to be synthesized.
// All fields must be populated by the manifest parser before the member
// reaches the layout planner; the planner never reads the member's body.
type Member struct {
	// Name is the file's path within the archive. It must be non-empty,
	// must not begin with "/", and must not contain a NUL byte.
	Name string

	// Size is the exact, uncompressed size of the member's body in
	// bytes. Members are always stored uncompressed, so this also equals
	// the compressed size written to the archive.
	Size uint64

	// CRC32 is the standard ZIP CRC-32 of the member's body, computed by
	// whatever produced the manifest.
	CRC32 uint32

	// Locator addresses the member's body in the backing object store.
	Locator objectstore.Locator
}

// Manifest is an ordered list of members plus the archive-level file name
// used for Content-Disposition. Order is preserved into the archive;
// duplicate names are not checked here.
type Manifest struct {
	ArchiveName string
	Members     []Member
}

func (m *Member) isZip64Size() bool {
	return m.Size >= uint32max
}
