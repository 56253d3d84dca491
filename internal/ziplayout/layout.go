// Package ziplayout computes the deterministic byte layout of a ZIP
// archive from a manifest of members, without ever reading a member's
// body: every region's length and position is a closed-form function of
// member metadata (name, size, CRC-32) and the offsets accumulated while
// walking the manifest in order.
package ziplayout

import "strings"

// Layout is the fully precomputed byte plan of one archive. It is
// immutable once built and owned by a single request; nothing in it is
// safe to mutate after Build returns.
type Layout struct {
	archiveName string
	totalLength uint64
	etag        string
	regions     []Region
}

// ArchiveName returns the file name to use in Content-Disposition.
func (l *Layout) ArchiveName() string {
	return l.archiveName
}

// TotalLength returns the total size of the archive in bytes.
func (l *Layout) TotalLength() uint64 {
	return l.totalLength
}

// ETag returns the layout's stable identifier, already quoted for use as
// an HTTP header value.
func (l *Layout) ETag() string {
	return l.etag
}

// Regions returns the ordered list of regions that partition
// [0, TotalLength()).
func (l *Layout) Regions() []Region {
	return l.regions
}

// Build computes the layout of the archive described by m. It validates
// every member name, checks for 64-bit arithmetic overflow while laying
// out regions, and never reads a member's body.
func Build(m Manifest) (*Layout, error) {
	if len(m.Members) == 0 {
		return nil, ErrEmptyManifest
	}
	for i := range m.Members {
		if err := validateName(m.Members[i].Name); err != nil {
			return nil, err
		}
	}

	var regions []Region
	var offset uint64
	localOffsets := make([]uint64, len(m.Members))

	for i := range m.Members {
		member := &m.Members[i]
		localOffsets[i] = offset

		header, err := buildLocalHeader(member)
		if err != nil {
			return nil, err
		}
		regions = append(regions, Region{Kind: RegionHeader, Offset: offset, Length: uint64(len(header)), Data: header})
		offset, err = addChecked(offset, uint64(len(header)))
		if err != nil {
			return nil, err
		}

		if member.Size > 0 {
			regions = append(regions, Region{Kind: RegionBody, Offset: offset, Length: member.Size, Locator: member.Locator})
		}
		offset, err = addChecked(offset, member.Size)
		if err != nil {
			return nil, err
		}
	}

	centralDirOffset := offset
	var centralDir []byte
	for i := range m.Members {
		entry, err := buildCentralEntry(&m.Members[i], localOffsets[i])
		if err != nil {
			return nil, err
		}
		centralDir = append(centralDir, entry...)
		offset, err = addChecked(offset, uint64(len(entry)))
		if err != nil {
			return nil, err
		}
	}
	centralDirSize := offset - centralDirOffset
	regions = append(regions, Region{Kind: RegionHeader, Offset: centralDirOffset, Length: centralDirSize, Data: centralDir})

	recordCount := uint64(len(m.Members))
	// The record-count fields in the non-zip64 end record are 16 bits
	// wide, so that is the threshold that forces the zip64 variant here,
	// even though the other two triggers are 32-bit fields.
	needZip64End := recordCount >= uint16max || centralDirSize >= uint32max || centralDirOffset >= uint32max

	var endBlock []byte
	endOffset := offset
	if needZip64End {
		zip64EndOffset := offset
		zip64End := buildZip64End(recordCount, centralDirSize, centralDirOffset)
		var err error
		offset, err = addChecked(offset, uint64(len(zip64End)))
		if err != nil {
			return nil, err
		}

		zip64Loc := buildZip64Loc(zip64EndOffset)
		offset, err = addChecked(offset, uint64(len(zip64Loc)))
		if err != nil {
			return nil, err
		}

		endBlock = append(endBlock, zip64End...)
		endBlock = append(endBlock, zip64Loc...)
	}

	endRecord := buildEndRecord(recordCount, centralDirSize, centralDirOffset, needZip64End)
	var err error
	offset, err = addChecked(offset, uint64(len(endRecord)))
	if err != nil {
		return nil, err
	}
	endBlock = append(endBlock, endRecord...)

	regions = append(regions, Region{Kind: RegionHeader, Offset: endOffset, Length: uint64(len(endBlock)), Data: endBlock})

	return &Layout{
		archiveName: m.ArchiveName,
		totalLength: offset,
		etag:        computeETag(m),
		regions:     regions,
	}, nil
}

func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") {
		return ErrInvalidName
	}
	if strings.IndexByte(name, 0) >= 0 {
		return ErrInvalidName
	}
	return nil
}

func addChecked(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrLayoutTooLarge
	}
	return sum, nil
}
