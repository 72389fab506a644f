// Package project implements the Imprint projection operator: producing a
// new record containing only a chosen subset of fields, by slicing the
// source record's payload. Projection never invokes the value codec;
// field lengths are determined structurally via value.SizeOf.
package project

import (
	"github.com/streamforge/imprint/pkg/directory"
	"github.com/streamforge/imprint/pkg/header"
	"github.com/streamforge/imprint/pkg/record"
)

// Options controls projection behavior.
type Options struct {
	// PreserveSchemaHash, when true, copies the source record's schema
	// hash into the output. When false (the default), the output schema
	// hash is zeroed; assigning a new one is the caller's responsibility.
	PreserveSchemaHash bool
}

// Project returns a new record containing exactly the entries of src whose
// field id is in fields, in the same ascending order, with offsets rebased
// to the new payload. Field ids in fields absent from src are silently
// ignored. The fieldspace id is inherited from src.
func Project(src []byte, fields map[uint32]struct{}, opts Options) ([]byte, error) {
	r, err := record.NewReader(src)
	if err != nil {
		return nil, err
	}

	entries := make([]directory.Entry, 0, len(fields))
	var payload []byte
	var offset uint32
	for i := 0; i < r.EntryCount(); i++ {
		// EntryAt only reads the directory entry (field id, type, offset);
		// it never sizes or touches the value bytes. Fields not in the
		// selection are skipped without ever needing a determinable size,
		// so a record with reserved-but-unknown values at untouched fields
		// still projects cleanly.
		e := r.EntryAt(i)
		if _, want := fields[e.FieldID]; !want {
			continue
		}
		fv, err := r.FieldAt(i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, directory.Entry{FieldID: fv.FieldID, Type: byte(fv.Type), Offset: offset})
		payload = append(payload, fv.Raw...)
		offset += uint32(len(fv.Raw))
	}

	fieldspaceID, schemaHash := r.Schema()
	if !opts.PreserveSchemaHash {
		schemaHash = 0
	}

	out := make([]byte, 0, header.Size+directory.EncodedSize(len(entries))+len(payload))
	hdr := make([]byte, header.Size)
	header.Encode(hdr, header.Header{
		Flags:        header.FlagDirectoryPresent,
		FieldspaceID: fieldspaceID,
		SchemaHash:   schemaHash,
		PayloadSize:  uint32(len(payload)),
	})
	out = append(out, hdr...)
	out = directory.Encode(out, entries)
	out = append(out, payload...)
	return out, nil
}

// ProjectIDs is a convenience wrapper over Project taking a field id slice
// instead of a set.
func ProjectIDs(src []byte, fieldIDs []uint32, opts Options) ([]byte, error) {
	set := make(map[uint32]struct{}, len(fieldIDs))
	for _, id := range fieldIDs {
		set[id] = struct{}{}
	}
	return Project(src, set, opts)
}
