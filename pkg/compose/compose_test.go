package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/record"
	"github.com/streamforge/imprint/pkg/value"
)

func build(fieldspace uint32, fields map[uint32]value.Value, types map[uint32]value.TypeCode) []byte {
	b := record.NewBuilder()
	for id, v := range fields {
		b.Set(id, types[id], v)
	}
	encoded, err := b.Finalize(fieldspace, 0)
	if err != nil {
		panic(err)
	}
	return encoded
}

func TestS3ComposeDisjoint(t *testing.T) {
	a := build(1, map[uint32]value.Value{1: value.NewInt32(1)}, map[uint32]value.TypeCode{1: value.Int32})
	b := build(1, map[uint32]value.Value{2: value.NewInt32(2)}, map[uint32]value.TypeCode{2: value.Int32})

	out, err := Compose(a, b, Options{})
	require.NoError(t, err)

	r, err := record.NewReader(out)
	require.NoError(t, err)
	require.Equal(t, 2, r.FieldCount())

	_, raw, _ := r.GetRaw(1)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, raw)
	_, raw2, _ := r.GetRaw(2)
	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x00}, raw2)
}

func TestS4ComposeCollisionLeftBiased(t *testing.T) {
	a := build(0, map[uint32]value.Value{
		1: value.NewInt32(1),
		3: value.NewString("a"),
	}, map[uint32]value.TypeCode{1: value.Int32, 3: value.String})
	b := build(0, map[uint32]value.Value{
		1: value.NewInt32(9),
		2: value.NewInt32(2),
	}, map[uint32]value.TypeCode{1: value.Int32, 2: value.Int32})

	out, err := Compose(a, b, Options{})
	require.NoError(t, err)

	r, err := record.NewReader(out)
	require.NoError(t, err)
	require.Equal(t, 3, r.FieldCount())

	v, ok, err := r.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(1), v.I32, "field 1 should keep A's value")

	// B's colliding value for field 1 must not appear anywhere in the
	// output payload bytes (compact_on_collision=true, the default).
	bVal := []byte{0x09, 0x00, 0x00, 0x00}
	assert.NotContains(t, string(out), string(bVal))
}

func TestComposeIdentity(t *testing.T) {
	empty := build(3, nil, nil)
	a := build(3, map[uint32]value.Value{1: value.NewInt32(1)}, map[uint32]value.TypeCode{1: value.Int32})

	left, err := Compose(a, empty, Options{PreserveSchemaHash: true})
	require.NoError(t, err)
	assert.Equal(t, a, left, "compose(R, empty) must equal R")

	right, err := Compose(empty, a, Options{PreserveSchemaHash: true})
	require.NoError(t, err)
	assert.Equal(t, a, right, "compose(empty, R) must equal R")
}

func TestComposeCommutativeOnDisjoint(t *testing.T) {
	a := build(2, map[uint32]value.Value{1: value.NewInt32(1)}, map[uint32]value.TypeCode{1: value.Int32})
	b := build(2, map[uint32]value.Value{2: value.NewInt32(2)}, map[uint32]value.TypeCode{2: value.Int32})

	ab, err := Compose(a, b, Options{})
	require.NoError(t, err)
	ba, err := Compose(b, a, Options{})
	require.NoError(t, err)
	assert.Equal(t, ab, ba, "disjoint compose should be commutative after canonicalization")
}

func TestComposeFieldspaceMismatch(t *testing.T) {
	a := build(1, map[uint32]value.Value{1: value.NewInt32(1)}, map[uint32]value.TypeCode{1: value.Int32})
	b := build(2, map[uint32]value.Value{2: value.NewInt32(2)}, map[uint32]value.TypeCode{2: value.Int32})

	_, err := Compose(a, b, Options{})
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindFieldspaceMismatch))
}

func TestComposeStrictTypeMismatch(t *testing.T) {
	a := build(0, map[uint32]value.Value{1: value.NewInt32(1)}, map[uint32]value.TypeCode{1: value.Int32})
	b := build(0, map[uint32]value.Value{1: value.NewInt64(1)}, map[uint32]value.TypeCode{1: value.Int64})

	_, err := Compose(a, b, Options{})
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindTypeMismatch))

	out, err := Compose(a, b, Options{Lenient: true})
	require.NoError(t, err)

	r, err := record.NewReader(out)
	require.NoError(t, err)
	v, ok, err := r.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(1), v.I32, "lenient mode should still keep A's value")
}

func TestComposeNoDecodeOnUntouchedUnknownType(t *testing.T) {
	a := record.NewBuilder()
	a.Set(1, value.Int32, value.NewInt32(1))
	a.SetRaw(5, value.TypeCode(0x20), []byte{0xFF, 0xFF})
	aEncoded, err := a.Finalize(0, 0)
	require.NoError(t, err)

	b := build(0, map[uint32]value.Value{2: value.NewInt32(2)}, map[uint32]value.TypeCode{2: value.Int32})

	// Field 5 (unknown type) is the last entry in a's directory, so its
	// length is derived from payload_size - offset rather than a
	// structural sizer; compose must still be able to merge fields 1 and 2
	// around it without ever needing to decode or validate field 5's body.
	out, err := Compose(aEncoded, b, Options{})
	require.NoError(t, err, "compose must succeed even though field 5's type is never decoded")

	r, err := record.NewReader(out)
	require.NoError(t, err)
	assert.Equal(t, 3, r.FieldCount())
}
