// Package header implements the fixed 15-byte Imprint record header:
// magic, version, flags, fieldspace id, schema hash, and payload size.
package header

import (
	"encoding/binary"

	"github.com/streamforge/imprint/pkg/imprinterr"
)

// Size is the fixed byte length of an encoded header.
const Size = 15

// Magic is the single byte that must open every Imprint record.
const Magic byte = 0x49

// Version is the only wire version this package understands.
const Version byte = 0x01

// FlagDirectoryPresent is bit 0 of the flags byte: set iff a field
// directory follows the header. Bits 1-7 are reserved and must be zero.
const FlagDirectoryPresent byte = 0x01

const reservedFlagsMask byte = 0xFE

// Header is the decoded form of the 15-byte fixed layout.
type Header struct {
	Flags        byte
	FieldspaceID uint32
	SchemaHash   uint32
	PayloadSize  uint32
}

// HasDirectory reports whether FlagDirectoryPresent is set.
func (h Header) HasDirectory() bool {
	return h.Flags&FlagDirectoryPresent != 0
}

// Encode writes the 15-byte header for h into buf, which must be at least
// Size bytes long, and returns the number of bytes written (always Size).
func Encode(buf []byte, h Header) int {
	buf[0] = Magic
	buf[1] = Version
	buf[2] = h.Flags
	binary.LittleEndian.PutUint32(buf[3:7], h.FieldspaceID)
	binary.LittleEndian.PutUint32(buf[7:11], h.SchemaHash)
	binary.LittleEndian.PutUint32(buf[11:15], h.PayloadSize)
	return Size
}

// Append is a convenience wrapper around Encode that grows buf as needed.
func Append(buf []byte, h Header) []byte {
	out := make([]byte, len(buf)+Size)
	copy(out, buf)
	Encode(out[len(buf):], h)
	return out
}

// Decode parses the 15-byte header at the start of buf.
//
// Decode fails with imprinterr.KindTruncated if buf is shorter than Size,
// KindBadMagic if the first byte is not Magic, KindUnsupportedVersion if the
// second byte is not Version, or KindReservedFlagSet if any of flag bits
// 1-7 are set.
func Decode(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for header, have %d", Size, len(buf))
	}
	if buf[0] != Magic {
		return Header{}, imprinterr.NewAt(imprinterr.KindBadMagic, 0, "expected 0x%02x, got 0x%02x", Magic, buf[0])
	}
	if buf[1] != Version {
		return Header{}, imprinterr.NewAt(imprinterr.KindUnsupportedVersion, 1, "expected version 0x%02x, got 0x%02x", Version, buf[1])
	}
	flags := buf[2]
	if flags&reservedFlagsMask != 0 {
		return Header{}, imprinterr.NewAt(imprinterr.KindReservedFlagSet, 2, "reserved flag bits set: 0x%02x", flags)
	}
	return Header{
		Flags:        flags,
		FieldspaceID: binary.LittleEndian.Uint32(buf[3:7]),
		SchemaHash:   binary.LittleEndian.Uint32(buf[7:11]),
		PayloadSize:  binary.LittleEndian.Uint32(buf[11:15]),
	}, nil
}
