// Package compose implements the Imprint composition operator: merging
// two records with the same fieldspace id into one, by a two-pointer merge
// of their sorted directories followed by a single linear copy of the
// selected payload bytes. Composition never decodes a value: each emitted
// field's length is determined structurally via value.SizeOf (or, for a
// record's last entry, as payload_size - offset), and in strict mode the
// type codes of a colliding field are read directly from each directory
// entry.
package compose

import (
	"github.com/streamforge/imprint/pkg/directory"
	"github.com/streamforge/imprint/pkg/header"
	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/record"
	"github.com/streamforge/imprint/pkg/value"
)

// Options controls composition behavior.
type Options struct {
	// PreserveSchemaHash mirrors project.Options.PreserveSchemaHash: when
	// true, A's schema hash is copied into the output; when false (the
	// default), the output schema hash is zeroed.
	PreserveSchemaHash bool
	// Lenient disables the strict type-mismatch check on collision: B's
	// colliding entry is dropped (A still wins) without comparing type
	// codes. Strict (the default) fails the whole operation with
	// KindTypeMismatch if a collision's type codes differ.
	Lenient bool
}

// Compose merges a and b, which must share a fieldspace id, into a new
// record containing the union of their fields. On a field id collision,
// a's entry wins and b's colliding value bytes are omitted from the
// output payload (the default "compact" behavior; this package does not
// implement a non-compacting dead-bytes alternative).
//
// Compose fails with KindFieldspaceMismatch if a and b carry different
// fieldspace ids, or (in strict mode, the default) KindTypeMismatch if a
// collision's two entries have different type codes.
func Compose(a, b []byte, opts Options) ([]byte, error) {
	ra, err := record.NewReader(a)
	if err != nil {
		return nil, err
	}
	rb, err := record.NewReader(b)
	if err != nil {
		return nil, err
	}

	fsA, hashA := ra.Schema()
	fsB, _ := rb.Schema()
	if fsA != fsB {
		return nil, imprinterr.New(imprinterr.KindFieldspaceMismatch, "fieldspace %d != %d", fsA, fsB)
	}

	entries := make([]directory.Entry, 0, ra.EntryCount()+rb.EntryCount())
	var payload []byte
	var offset uint32

	i, j := 0, 0
	for i < ra.EntryCount() && j < rb.EntryCount() {
		ea, eb := ra.EntryAt(i), rb.EntryAt(j)
		switch {
		case ea.FieldID < eb.FieldID:
			fv, err := ra.FieldAt(i)
			if err != nil {
				return nil, err
			}
			entries, payload, offset = appendField(entries, payload, offset, fv.FieldID, fv.Type, fv.Raw)
			i++
		case ea.FieldID > eb.FieldID:
			fv, err := rb.FieldAt(j)
			if err != nil {
				return nil, err
			}
			entries, payload, offset = appendField(entries, payload, offset, fv.FieldID, fv.Type, fv.Raw)
			j++
		default:
			if !opts.Lenient && ea.Type != eb.Type {
				return nil, imprinterr.New(imprinterr.KindTypeMismatch, "field %d: type 0x%x (A) != 0x%x (B)", ea.FieldID, ea.Type, eb.Type)
			}
			fv, err := ra.FieldAt(i)
			if err != nil {
				return nil, err
			}
			entries, payload, offset = appendField(entries, payload, offset, fv.FieldID, fv.Type, fv.Raw)
			i++
			j++
		}
	}
	for ; i < ra.EntryCount(); i++ {
		fv, err := ra.FieldAt(i)
		if err != nil {
			return nil, err
		}
		entries, payload, offset = appendField(entries, payload, offset, fv.FieldID, fv.Type, fv.Raw)
	}
	for ; j < rb.EntryCount(); j++ {
		fv, err := rb.FieldAt(j)
		if err != nil {
			return nil, err
		}
		entries, payload, offset = appendField(entries, payload, offset, fv.FieldID, fv.Type, fv.Raw)
	}

	schemaHash := uint32(0)
	if opts.PreserveSchemaHash {
		schemaHash = hashA
	}

	out := make([]byte, 0, header.Size+directory.EncodedSize(len(entries))+len(payload))
	hdr := make([]byte, header.Size)
	header.Encode(hdr, header.Header{
		Flags:        header.FlagDirectoryPresent,
		FieldspaceID: fsA,
		SchemaHash:   schemaHash,
		PayloadSize:  uint32(len(payload)),
	})
	out = append(out, hdr...)
	out = directory.Encode(out, entries)
	out = append(out, payload...)
	return out, nil
}

func appendField(entries []directory.Entry, payload []byte, offset uint32, id uint32, typ value.TypeCode, raw []byte) ([]directory.Entry, []byte, uint32) {
	entries = append(entries, directory.Entry{FieldID: id, Type: byte(typ), Offset: offset})
	payload = append(payload, raw...)
	return entries, payload, offset + uint32(len(raw))
}
