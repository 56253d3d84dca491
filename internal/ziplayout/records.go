package ziplayout

// buildLocalHeader encodes the local file header for member, placed at
// the offset the caller has already decided for it. CRC-32 and sizes are
// known from the manifest, so they are written directly here; no data
// descriptor follows, and general-purpose bit 3 is never set.
func buildLocalHeader(member *Member) ([]byte, error) {
	if len(member.Name) > uint16max {
		return nil, ErrInvalidName
	}

	zip64 := member.isZip64Size()
	versionNeeded := uint16(zipVersion20)
	var extra []byte
	if zip64 {
		versionNeeded = zipVersion45
		extra = make([]byte, zip64ExtraHeaderLen+16)
		eb := writeBuf(extra)
		eb.uint16(zip64ExtraID)
		eb.uint16(16)
		eb.uint64(member.Size) // uncompressed size
		eb.uint64(member.Size) // compressed size
	}

	buf := make([]byte, fileHeaderLen+len(member.Name)+len(extra))
	b := writeBuf(buf)
	b.uint32(fileHeaderSignature)
	b.uint16(versionNeeded)
	b.uint16(utf8NameFlag)
	b.uint16(0) // method: store
	b.uint16(fixedModTime)
	b.uint16(fixedModDate)
	b.uint32(member.CRC32)
	if zip64 {
		b.uint32(uint32max)
		b.uint32(uint32max)
	} else {
		b.uint32(uint32(member.Size))
		b.uint32(uint32(member.Size))
	}
	b.uint16(uint16(len(member.Name)))
	b.uint16(uint16(len(extra)))
	n := copy(b, member.Name)
	copy(b[n:], extra)

	return buf, nil
}

// buildCentralEntry encodes the central directory entry for member, whose
// local header sits at localOffset. Unlike the local header, the zip64
// extra field here may carry just the fields that individually exceed the
// 32-bit threshold: size and offset are independent conditions.
func buildCentralEntry(member *Member, localOffset uint64) ([]byte, error) {
	if len(member.Name) > uint16max {
		return nil, ErrInvalidName
	}

	sizeZip64 := member.isZip64Size()
	offsetZip64 := localOffset >= uint32max
	anyZip64 := sizeZip64 || offsetZip64

	versionNeeded := uint16(zipVersion20)
	if anyZip64 {
		versionNeeded = zipVersion45
	}

	var payload []byte
	if sizeZip64 {
		var sizes [16]byte
		sb := writeBuf(sizes[:])
		sb.uint64(member.Size) // uncompressed size
		sb.uint64(member.Size) // compressed size
		payload = append(payload, sizes[:]...)
	}
	if offsetZip64 {
		var off [8]byte
		ob := writeBuf(off[:])
		ob.uint64(localOffset)
		payload = append(payload, off[:]...)
	}
	var extra []byte
	if anyZip64 {
		extra = make([]byte, zip64ExtraHeaderLen+len(payload))
		eb := writeBuf(extra)
		eb.uint16(zip64ExtraID)
		eb.uint16(uint16(len(payload)))
		copy(extra[zip64ExtraHeaderLen:], payload)
	}

	compressedSize := uint32(member.Size)
	uncompressedSize := uint32(member.Size)
	if sizeZip64 {
		compressedSize = uint32max
		uncompressedSize = uint32max
	}
	offsetField := uint32(localOffset)
	if offsetZip64 {
		offsetField = uint32max
	}

	buf := make([]byte, directoryHeaderLen+len(member.Name)+len(extra))
	b := writeBuf(buf)
	b.uint32(directoryHeaderSignature)
	b.uint16(versionNeeded) // version made by
	b.uint16(versionNeeded) // version needed to extract
	b.uint16(utf8NameFlag)
	b.uint16(0) // method: store
	b.uint16(fixedModTime)
	b.uint16(fixedModDate)
	b.uint32(member.CRC32)
	b.uint32(compressedSize)
	b.uint32(uncompressedSize)
	b.uint16(uint16(len(member.Name)))
	b.uint16(uint16(len(extra)))
	b.uint16(0) // comment length
	b.uint16(0) // disk number start
	b.uint16(0) // internal file attributes
	b.uint32(0) // external file attributes
	b.uint32(offsetField)
	n := copy(b, member.Name)
	copy(b[n:], extra)

	return buf, nil
}

// buildZip64End encodes the zip64 end-of-central-directory record.
func buildZip64End(records, centralDirSize, centralDirOffset uint64) []byte {
	buf := make([]byte, directory64EndLen)
	b := writeBuf(buf)
	b.uint32(directory64EndSignature)
	b.uint64(directory64EndLen - 12) // record size, excludes signature and this field
	b.uint16(zipVersion45)           // version made by
	b.uint16(zipVersion45)           // version needed to extract
	b.uint32(0)                      // number of this disk
	b.uint32(0)                      // disk with start of central directory
	b.uint64(records)                // entries on this disk
	b.uint64(records)                // total entries
	b.uint64(centralDirSize)
	b.uint64(centralDirOffset)
	return buf
}

// buildZip64Loc encodes the zip64 end-of-central-directory locator, which
// points at the zip64 end record placed at zip64EndOffset.
func buildZip64Loc(zip64EndOffset uint64) []byte {
	buf := make([]byte, directory64LocLen)
	b := writeBuf(buf)
	b.uint32(directory64LocSignature)
	b.uint32(0) // disk with the zip64 end record
	b.uint64(zip64EndOffset)
	b.uint32(1) // total number of disks
	return buf
}

// buildEndRecord encodes the (non-zip64) end-of-central-directory record.
// When zip64 is true, the three fields it would otherwise carry are
// replaced with their sentinel max values, signaling that the real values
// live in the zip64 end record that precedes this one.
func buildEndRecord(records, centralDirSize, centralDirOffset uint64, zip64 bool) []byte {
	recordsField := uint16(records)
	cdSizeField := uint32(centralDirSize)
	cdOffsetField := uint32(centralDirOffset)
	if zip64 {
		recordsField = uint16max
		cdSizeField = uint32max
		cdOffsetField = uint32max
	}

	buf := make([]byte, directoryEndLen)
	b := writeBuf(buf)
	b.uint32(directoryEndSignature)
	b.uint16(0) // number of this disk
	b.uint16(0) // disk with start of central directory
	b.uint16(recordsField)
	b.uint16(recordsField)
	b.uint32(cdSizeField)
	b.uint32(cdOffsetField)
	b.uint16(0) // comment length
	return buf
}
