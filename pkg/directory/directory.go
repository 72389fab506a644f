// Package directory implements the Imprint field directory: a varint
// entry count followed by N fixed 9-byte entries
// (field_id u32 LE | type u8 | offset u32 LE), strictly ascending by
// field_id. Lookup is O(log N) binary search directly over the raw bytes;
// no entry objects are allocated for a point lookup.
package directory

import (
	"encoding/binary"
	"sort"

	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/varint"
)

// EntrySize is the fixed byte length of one directory entry.
const EntrySize = 9

// Entry is the decoded form of one directory entry.
type Entry struct {
	FieldID uint32
	Type    byte
	Offset  uint32
}

// Directory is a parsed, lazily-indexed view over the raw directory bytes
// of a record. It borrows its backing slice; no entries are copied out
// until Entries or At is called.
type Directory struct {
	raw   []byte // the N*EntrySize entry bytes, not including the leading count varint
	count int
}

// EncodedSize returns the number of bytes Encode would produce for n
// entries: the varint count plus n*EntrySize.
func EncodedSize(n int) int {
	return varint.SizeU32(uint32(n)) + n*EntrySize
}

// Encode appends the directory wire form of entries (which must already be
// sorted ascending by FieldID; Encode does not sort) to buf and returns the
// result.
func Encode(buf []byte, entries []Entry) []byte {
	buf = varint.AppendU32(buf, uint32(len(entries)))
	for _, e := range entries {
		var eb [EntrySize]byte
		binary.LittleEndian.PutUint32(eb[0:4], e.FieldID)
		eb[4] = e.Type
		binary.LittleEndian.PutUint32(eb[5:9], e.Offset)
		buf = append(buf, eb[:]...)
	}
	return buf
}

// Parse reads the varint count and the following N*EntrySize raw bytes from
// the start of buf, validates strict ascending field_id ordering, and
// returns the parsed Directory plus the number of bytes consumed.
//
// Parse fails with KindMalformedVarint on a bad count varint,
// KindTruncated if buf is shorter than the claimed entry region, or
// KindDirectoryUnsorted / KindDuplicateFieldID if ordering is violated.
func Parse(buf []byte) (Directory, int, error) {
	n, countLen, err := varint.DecodeU32(buf)
	if err != nil {
		return Directory{}, 0, err
	}
	need := int(n) * EntrySize
	if len(buf)-countLen < need {
		return Directory{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(countLen), "need %d bytes for %d directory entries, have %d", need, n, len(buf)-countLen)
	}
	raw := buf[countLen : countLen+need]

	var prevID uint32
	for i := 0; i < int(n); i++ {
		id := binary.LittleEndian.Uint32(raw[i*EntrySize : i*EntrySize+4])
		if i > 0 {
			if id == prevID {
				return Directory{}, 0, imprinterr.NewAt(imprinterr.KindDuplicateFieldID, int64(countLen+i*EntrySize), "duplicate field id %d", id)
			}
			if id < prevID {
				return Directory{}, 0, imprinterr.NewAt(imprinterr.KindDirectoryUnsorted, int64(countLen+i*EntrySize), "field id %d follows %d out of order", id, prevID)
			}
		}
		prevID = id
	}

	return Directory{raw: raw, count: int(n)}, countLen + need, nil
}

// Count returns the number of entries in the directory.
func (d Directory) Count() int { return d.count }

// At decodes and returns the entry at index i.
func (d Directory) At(i int) Entry {
	off := i * EntrySize
	return Entry{
		FieldID: binary.LittleEndian.Uint32(d.raw[off : off+4]),
		Type:    d.raw[off+4],
		Offset:  binary.LittleEndian.Uint32(d.raw[off+5 : off+9]),
	}
}

// Find performs a binary search for fieldID and returns (entry, index,
// true) on success, or (zero value, -1, false) if absent.
func (d Directory) Find(fieldID uint32) (Entry, int, bool) {
	lo, hi := 0, d.count
	for lo < hi {
		mid := (lo + hi) / 2
		id := binary.LittleEndian.Uint32(d.raw[mid*EntrySize : mid*EntrySize+4])
		switch {
		case id == fieldID:
			return d.At(mid), mid, true
		case id < fieldID:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Entry{}, -1, false
}

// Entries materializes all entries in ascending field_id order.
func (d Directory) Entries() []Entry {
	out := make([]Entry, d.count)
	for i := range out {
		out[i] = d.At(i)
	}
	return out
}

// Sort sorts entries ascending by FieldID in place, as required before
// Encode for builder-assembled entries. The sort is not stable: entries
// with equal ids end up in no defined relative order, so callers resolve
// duplicates (e.g. last-write-wins replacement) before calling Sort.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].FieldID < entries[j].FieldID })
}
