package ziplayout

import "encoding/binary"

// writeBuf is a small cursor over a fixed-size byte buffer, used to lay
// out fixed-width ZIP fields without per-field bounds checks. Each method
// advances the cursor past the field it writes.
type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) uint64(v uint64) {
	binary.LittleEndian.PutUint64(*b, v)
	*b = (*b)[8:]
}
