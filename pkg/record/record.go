// Package record implements the Imprint Reader and Builder: parsing an
// encoded record into a handle supporting field lookup, raw-byte access,
// and typed access, and accumulating (field id, type, value) triples into
// canonical encoded bytes.
package record

import (
	"sort"

	"github.com/streamforge/imprint/pkg/directory"
	"github.com/streamforge/imprint/pkg/header"
	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/value"
)

// Reader parses a byte slice into a handle exposing field lookup and
// access. A Reader borrows buf; every Value and raw slice it returns
// borrows from buf until the caller explicitly copies it out. Readers are
// safe for concurrent use by multiple goroutines.
type Reader struct {
	buf     []byte
	header  header.Header
	dir     directory.Directory
	payload []byte
}

// NewReader parses the header and, if present, the directory of buf.
// Parsing fails on a malformed header or directory; it does not validate
// individual field values, which are checked lazily on access.
func NewReader(buf []byte) (*Reader, error) {
	h, err := header.Decode(buf)
	if err != nil {
		return nil, err
	}
	rest := buf[header.Size:]

	var dir directory.Directory
	if h.HasDirectory() {
		d, n, err := directory.Parse(rest)
		if err != nil {
			return nil, err
		}
		dir = d
		rest = rest[n:]
	}

	if uint32(len(rest)) < h.PayloadSize {
		return nil, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d payload bytes, have %d", h.PayloadSize, len(rest))
	}

	return &Reader{buf: buf, header: h, dir: dir, payload: rest[:h.PayloadSize]}, nil
}

// FieldCount returns the number of fields present.
func (r *Reader) FieldCount() int { return r.dir.Count() }

// Schema returns the fieldspace id and schema hash carried by the header.
func (r *Reader) Schema() (fieldspaceID, schemaHash uint32) {
	return r.header.FieldspaceID, r.header.SchemaHash
}

// Bytes returns the complete encoded record this Reader was built from.
func (r *Reader) Bytes() []byte { return r.buf }

// FieldHandle identifies a located field: its directory entry plus the
// byte length of its value, determined without decoding the value.
type FieldHandle struct {
	Entry directory.Entry
	Len   int
}

// Find performs a binary-search lookup for fieldID, determining the
// value's byte length via the same logic GetRaw and FieldAt use. It
// returns ok=false if fieldID is absent or its length cannot be
// determined.
func (r *Reader) Find(fieldID uint32) (FieldHandle, bool) {
	entry, idx, ok := r.dir.Find(fieldID)
	if !ok {
		return FieldHandle{}, false
	}
	n, err := r.valueLen(idx, entry)
	if err != nil {
		return FieldHandle{}, false
	}
	return FieldHandle{Entry: entry, Len: n}, true
}

// valueLen determines the byte length of the value at directory index idx
// without decoding it: if idx is the last entry, the length is
// payload_size - offset; otherwise it is sized structurally.
func (r *Reader) valueLen(idx int, entry directory.Entry) (int, error) {
	if idx == r.dir.Count()-1 {
		if uint32(len(r.payload)) < entry.Offset {
			return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(entry.Offset), "field offset beyond payload")
		}
		return len(r.payload) - int(entry.Offset), nil
	}
	if entry.Offset > uint32(len(r.payload)) {
		return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(entry.Offset), "field offset beyond payload")
	}
	return value.SizeOf(r.payload[entry.Offset:], value.TypeCode(entry.Type))
}

// GetRaw returns the type code and the exact byte slice covering fieldID's
// value (the slice the value codec would consume; length prefixes for
// variable-width types are included, not stripped). ok is false if
// fieldID is absent.
func (r *Reader) GetRaw(fieldID uint32) (typ value.TypeCode, raw []byte, ok bool) {
	h, found := r.Find(fieldID)
	if !found {
		return 0, nil, false
	}
	return value.TypeCode(h.Entry.Type), r.payload[h.Entry.Offset : h.Entry.Offset+uint32(h.Len)], true
}

// GetValue decodes and returns the value of fieldID via the value codec.
// ok is false if fieldID is absent; err is non-nil if the field is present
// but malformed.
func (r *Reader) GetValue(fieldID uint32) (v value.Value, ok bool, err error) {
	entry, idx, found := r.dir.Find(fieldID)
	if !found {
		return value.Value{}, false, nil
	}
	if entry.Offset > uint32(len(r.payload)) {
		return value.Value{}, true, imprinterr.NewAt(imprinterr.KindTruncated, int64(entry.Offset), "field offset beyond payload")
	}
	v, _, err = value.Decode(r.payload[entry.Offset:], value.TypeCode(entry.Type))
	_ = idx
	if err != nil {
		return value.Value{}, true, err
	}
	return v, true, nil
}

// FieldView is one entry produced by Iter, in canonical (ascending field
// id) order.
type FieldView struct {
	FieldID uint32
	Type    value.TypeCode
	Raw     []byte
}

// EntryCount is an alias for FieldCount, named for callers iterating the
// directory positionally (e.g. project, compose).
func (r *Reader) EntryCount() int { return r.dir.Count() }

// EntryAt returns the directory entry at position i in canonical order,
// without sizing or touching its value bytes.
func (r *Reader) EntryAt(i int) directory.Entry { return r.dir.At(i) }

// FieldAt sizes and slices the value at directory position i, returning
// its canonical view. Unlike Iter, callers can use EntryAt to decide which
// positions are worth calling FieldAt on, so fields that are never
// selected (e.g. by project) never need a valid size at all -- this is
// what lets project and compose succeed on records holding
// reserved-but-unknown values at untouched fields.
func (r *Reader) FieldAt(i int) (FieldView, error) {
	e := r.dir.At(i)
	vlen, err := r.valueLen(i, e)
	if err != nil {
		return FieldView{}, err
	}
	if e.Offset+uint32(vlen) > uint32(len(r.payload)) {
		return FieldView{}, imprinterr.NewAt(imprinterr.KindTruncated, int64(e.Offset), "field %d value extends beyond payload", e.FieldID)
	}
	return FieldView{FieldID: e.FieldID, Type: value.TypeCode(e.Type), Raw: r.payload[e.Offset : e.Offset+uint32(vlen)]}, nil
}

// Iter returns every field in canonical order, without decoding values.
// Every field's length must be determinable for Iter to succeed; callers
// that only need a subset of fields (and want to tolerate unknown types on
// the rest) should use EntryAt/FieldAt directly instead.
func (r *Reader) Iter() ([]FieldView, error) {
	n := r.dir.Count()
	out := make([]FieldView, n)
	for i := 0; i < n; i++ {
		fv, err := r.FieldAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = fv
	}
	return out, nil
}

// AsNestedReader parses v's raw bytes (v.Type must be value.Row) as a
// complete nested record, recursively.
func AsNestedReader(v value.Value) (*Reader, error) {
	return NewReader(v.Bin)
}

// field is one accumulated (field id, type, bytes) triple held by Builder
// prior to finalize.
type field struct {
	id  uint32
	typ value.TypeCode
	enc []byte
}

// Builder accumulates (field id, type, value) triples and emits canonical
// bytes on Finalize. A Builder is a single-owner mutable accumulator and
// must not be shared across goroutines.
type Builder struct {
	fields          []field
	index           map[uint32]int
	rejectDuplicate bool
}

// NewBuilder returns a Builder with last-write-wins semantics for repeated
// field ids.
func NewBuilder() *Builder {
	return &Builder{index: make(map[uint32]int)}
}

// NewStrictBuilder returns a Builder that fails Finalize with
// KindDuplicateFieldID instead of replacing on a repeated Set of the same
// field id.
func NewStrictBuilder() *Builder {
	b := NewBuilder()
	b.rejectDuplicate = true
	return b
}

// Set accumulates a (field id, type, value) triple. If fieldID was set
// before, the new call's value replaces it (last write wins) unless the
// Builder was constructed with NewStrictBuilder, in which case the
// duplicate is recorded and later reported by Finalize.
func (b *Builder) Set(fieldID uint32, typ value.TypeCode, v value.Value) {
	enc := value.Encode(nil, typ, v)
	if idx, exists := b.index[fieldID]; exists {
		if b.rejectDuplicate {
			// Leave the original entry in place and append the conflicting
			// one too, so Finalize's adjacent-duplicate scan catches it.
			b.fields = append(b.fields, field{id: fieldID, typ: typ, enc: enc})
			return
		}
		b.fields[idx] = field{id: fieldID, typ: typ, enc: enc}
		return
	}
	b.index[fieldID] = len(b.fields)
	b.fields = append(b.fields, field{id: fieldID, typ: typ, enc: enc})
}

// SetRaw accumulates a field whose value is already encoded, e.g. a nested
// record's bytes for a Row field, or a value produced by another Reader
// without a decode/re-encode round trip.
func (b *Builder) SetRaw(fieldID uint32, typ value.TypeCode, encoded []byte) {
	if idx, exists := b.index[fieldID]; exists && !b.rejectDuplicate {
		b.fields[idx] = field{id: fieldID, typ: typ, enc: encoded}
		return
	}
	b.index[fieldID] = len(b.fields)
	b.fields = append(b.fields, field{id: fieldID, typ: typ, enc: encoded})
}

// Finalize sorts the accumulated fields ascending by field id, assigns
// offsets as the running sum of prior values' byte lengths, and emits the
// canonical header + directory + payload bytes.
//
// Finalize fails with KindDuplicateFieldID if the Builder was constructed
// with NewStrictBuilder and the same field id was Set more than once.
func (b *Builder) Finalize(fieldspaceID, schemaHash uint32) ([]byte, error) {
	fields := make([]field, len(b.fields))
	copy(fields, b.fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].id < fields[j].id })

	if b.rejectDuplicate {
		for i := 1; i < len(fields); i++ {
			if fields[i].id == fields[i-1].id {
				return nil, imprinterr.New(imprinterr.KindDuplicateFieldID, "field id %d set more than once", fields[i].id)
			}
		}
	}

	entries := make([]directory.Entry, len(fields))
	var offset uint32
	var payload []byte
	for i, f := range fields {
		entries[i] = directory.Entry{FieldID: f.id, Type: byte(f.typ), Offset: offset}
		payload = append(payload, f.enc...)
		offset += uint32(len(f.enc))
	}

	// A directory is always emitted, even for zero fields, so that
	// FieldCount()/Find() behave uniformly for empty records.
	flags := header.FlagDirectoryPresent

	out := make([]byte, 0, header.Size+directory.EncodedSize(len(entries))+len(payload))
	hdr := make([]byte, header.Size)
	header.Encode(hdr, header.Header{
		Flags:        flags,
		FieldspaceID: fieldspaceID,
		SchemaHash:   schemaHash,
		PayloadSize:  uint32(len(payload)),
	})
	out = append(out, hdr...)
	out = directory.Encode(out, entries)
	out = append(out, payload...)
	return out, nil
}
