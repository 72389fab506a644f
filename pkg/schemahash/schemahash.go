// Package schemahash computes a stable schema hash from a record's field
// ids and type codes, for callers that want a SchemaHash to put in a
// header without maintaining a schema registry themselves. It is not part
// of the core codec and the core never calls it.
package schemahash

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/streamforge/imprint/pkg/value"
)

// Field is one (field id, type code) pair contributing to a hash.
type Field struct {
	ID   uint32
	Type value.TypeCode
}

// Of returns a stable 32-bit hash of fields' (id, type) pairs. The result
// is independent of the order fields are passed in: they are sorted by id
// before hashing. Two schemas with the same field ids and types, added in
// any order, hash identically.
func Of(fields []Field) uint32 {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := xxhash.New()
	buf := make([]byte, 5)
	for _, f := range sorted {
		buf[0] = byte(f.ID)
		buf[1] = byte(f.ID >> 8)
		buf[2] = byte(f.ID >> 16)
		buf[3] = byte(f.ID >> 24)
		buf[4] = byte(f.Type)
		h.Write(buf)
	}
	return uint32(h.Sum64())
}

// OfDirectory is a convenience wrapper over Of for callers holding field
// ids and type codes as two parallel slices rather than schemahash.Field
// values; types[i] is the type of ids[i].
func OfDirectory(ids []uint32, types []value.TypeCode) uint32 {
	fields := make([]Field, len(ids))
	for i := range ids {
		fields[i] = Field{ID: ids[i], Type: types[i]}
	}
	return Of(fields)
}
