// Package varint implements unsigned LEB128 encoding, the variable-length
// integer format used throughout Imprint's wire layout: directory entry
// counts, and the length prefixes of bytes/string/array/map values.
package varint

import "github.com/streamforge/imprint/pkg/imprinterr"

// MaxBytesU32 is the maximum number of bytes a LEB128-encoded uint32 can
// occupy: ceil(32/7) = 5.
const MaxBytesU32 = 5

// MaxBytesU64 is the maximum number of bytes a LEB128-encoded uint64 can
// occupy: ceil(64/7) = 10.
const MaxBytesU64 = 10

// AppendU32 appends the LEB128 encoding of v to buf and returns the result.
func AppendU32(buf []byte, v uint32) []byte {
	return appendU64(buf, uint64(v))
}

// AppendU64 appends the LEB128 encoding of v to buf and returns the result.
func AppendU64(buf []byte, v uint64) []byte {
	return appendU64(buf, v)
}

func appendU64(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// SizeU32 returns the number of bytes AppendU32 would produce for v.
func SizeU32(v uint32) int {
	return sizeU64(uint64(v))
}

// SizeU64 returns the number of bytes AppendU64 would produce for v.
func SizeU64(v uint64) int {
	return sizeU64(v)
}

func sizeU64(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeU32 decodes a LEB128-encoded uint32 from the start of buf, returning
// the value and the number of bytes consumed. It fails with
// imprinterr.KindMalformedVarint if buf ends before a terminating byte, if
// more than MaxBytesU32 bytes are consumed, or if the decoded value does not
// fit in 32 bits.
func DecodeU32(buf []byte) (uint32, int, error) {
	v, n, err := decodeU64(buf, MaxBytesU32)
	if err != nil {
		return 0, 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, 0, imprinterr.NewAt(imprinterr.KindMalformedVarint, 0, "value %d overflows 32 bits", v)
	}
	return uint32(v), n, nil
}

// DecodeU64 decodes a LEB128-encoded uint64 from the start of buf, returning
// the value and the number of bytes consumed.
func DecodeU64(buf []byte) (uint64, int, error) {
	return decodeU64(buf, MaxBytesU64)
}

func decodeU64(buf []byte, maxBytes int) (uint64, int, error) {
	var v uint64
	for i := 0; i < maxBytes; i++ {
		if i >= len(buf) {
			return 0, 0, imprinterr.NewAt(imprinterr.KindMalformedVarint, int64(len(buf)), "unterminated varint")
		}
		b := buf[i]
		v |= uint64(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, imprinterr.NewAt(imprinterr.KindMalformedVarint, int64(maxBytes), "varint exceeds %d bytes", maxBytes)
}
