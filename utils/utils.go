package utils

import (
	"encoding/binary"
)

func BytesToLength(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

// BitsAt extracts a width-bit sample starting at bitOffset, most significant
// bit first. width must be 1, 2, 4 or 8.
func BitsAt(data []byte, bitOffset int, width int) uint8 {
	b := data[bitOffset>>3]
	shift := 8 - width - bitOffset&7
	mask := byte(1)<<width - 1
	return (b >> shift) & mask
}

// PutUint32 appends v big-endian to dst.
func PutUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}
