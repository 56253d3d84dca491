package ziplayout

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// computeETag derives a stable identifier for m such that any change to
// member identity, order, size, CRC, or storage locator yields a
// different value. Every field is length-prefixed before hashing so that
// no combination of field boundaries can collide with another.
func computeETag(m Manifest) string {
	h := sha256.New()
	writeField(h, m.ArchiveName)
	for _, member := range m.Members {
		writeField(h, member.Name)
		writeUint64(h, member.Size)
		writeUint32(h, member.CRC32)
		writeField(h, member.Locator.Bucket)
		writeField(h, member.Locator.Key)
		writeField(h, member.Locator.Version)
	}
	return fmt.Sprintf("%q", hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, s string) {
	writeUint64(h, uint64(len(s)))
	io.WriteString(h, s)
}

func writeUint64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

func writeUint32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}
