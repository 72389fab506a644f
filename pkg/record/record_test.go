package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/value"
)

func TestS1PrimitiveRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.Set(1, value.Int32, value.NewInt32(42))
	b.Set(2, value.String, value.NewString("hi"))

	encoded, err := b.Finalize(7, 0)
	require.NoError(t, err)

	wantHeader := []byte{0x49, 0x01, 0x01, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00}
	assert.Equal(t, wantHeader, encoded[:15])

	wantPayload := []byte{0x2A, 0x00, 0x00, 0x00, 0x02, 0x68, 0x69}
	assert.Equal(t, wantPayload, encoded[len(encoded)-len(wantPayload):])

	r, err := NewReader(encoded)
	require.NoError(t, err)
	require.Equal(t, 2, r.FieldCount())

	fsID, hash := r.Schema()
	assert.Equal(t, uint32(7), fsID)
	assert.Equal(t, uint32(0), hash)

	v1, ok, err := r.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(42), v1.I32)

	v2, ok, err := r.GetValue(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", v2.Str)

	_, ok, err = r.GetValue(99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilderReplaceLastWriteWins(t *testing.T) {
	b := NewBuilder()
	b.Set(1, value.Int32, value.NewInt32(1))
	b.Set(1, value.Int32, value.NewInt32(99))

	encoded, err := b.Finalize(0, 0)
	require.NoError(t, err)

	r, err := NewReader(encoded)
	require.NoError(t, err)
	require.Equal(t, 1, r.FieldCount())

	v, ok, err := r.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(99), v.I32)
}

func TestStrictBuilderDuplicateFails(t *testing.T) {
	b := NewStrictBuilder()
	b.Set(1, value.Int32, value.NewInt32(1))
	b.Set(1, value.Int32, value.NewInt32(2))

	_, err := b.Finalize(0, 0)
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindDuplicateFieldID))
}

func TestCanonicalOrderingIsIndependentOfSetOrder(t *testing.T) {
	b1 := NewBuilder()
	b1.Set(2, value.Int32, value.NewInt32(2))
	b1.Set(1, value.Int32, value.NewInt32(1))

	b2 := NewBuilder()
	b2.Set(1, value.Int32, value.NewInt32(1))
	b2.Set(2, value.Int32, value.NewInt32(2))

	e1, err := b1.Finalize(5, 5)
	require.NoError(t, err)
	e2, err := b2.Finalize(5, 5)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestZeroFieldRecord(t *testing.T) {
	encoded, err := NewBuilder().Finalize(1, 1)
	require.NoError(t, err)

	r, err := NewReader(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, r.FieldCount())

	_, ok, err := r.GetValue(1)
	require.NoError(t, err)
	assert.False(t, ok, "GetValue on empty record should never find a field")
}

func TestIterCanonicalOrder(t *testing.T) {
	b := NewBuilder()
	b.Set(9, value.Bool, value.NewBool(true))
	b.Set(1, value.Int32, value.NewInt32(1))
	b.Set(2, value.String, value.NewString("x"))

	encoded, err := b.Finalize(0, 0)
	require.NoError(t, err)

	r, err := NewReader(encoded)
	require.NoError(t, err)

	views, err := r.Iter()
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []uint32{1, 2, 9}, []uint32{views[0].FieldID, views[1].FieldID, views[2].FieldID})
}

func TestGetRawPreservesLengthPrefix(t *testing.T) {
	b := NewBuilder()
	b.Set(1, value.String, value.NewString("hi"))
	encoded, err := b.Finalize(0, 0)
	require.NoError(t, err)

	r, err := NewReader(encoded)
	require.NoError(t, err)

	typ, raw, ok := r.GetRaw(1)
	require.True(t, ok)
	assert.Equal(t, value.String, typ)
	assert.Equal(t, []byte{0x02, 0x68, 0x69}, raw)
}

func TestS6NestedRow(t *testing.T) {
	inner := NewBuilder()
	inner.Set(1, value.Int32, value.NewInt32(99))
	innerEncoded, err := inner.Finalize(0, 0)
	require.NoError(t, err)

	outer := NewBuilder()
	outer.SetRaw(5, value.Row, innerEncoded)
	outerEncoded, err := outer.Finalize(0, 0)
	require.NoError(t, err)

	r, err := NewReader(outerEncoded)
	require.NoError(t, err)

	typ, raw, ok := r.GetRaw(5)
	require.True(t, ok)
	require.Equal(t, value.Row, typ)

	nested, err := NewReader(raw)
	require.NoError(t, err)
	v, ok, err := nested.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(99), v.I32)

	outerVal, ok, err := r.GetValue(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value.Row, outerVal.Type)

	nestedReader, err := AsNestedReader(outerVal)
	require.NoError(t, err)
	v2, ok, err := nestedReader.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(99), v2.I32)
}

func TestS5BadMagic(t *testing.T) {
	encoded, err := NewBuilder().Finalize(0, 0)
	require.NoError(t, err)

	bad := append([]byte{}, encoded...)
	bad[0] = 0x4A

	_, err = NewReader(bad)
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindBadMagic))
}

func TestDeepNestedRows(t *testing.T) {
	// depths 1, 2, and 5.
	var encoded []byte
	for depth := 0; depth < 5; depth++ {
		b := NewBuilder()
		if depth == 0 {
			b.Set(1, value.Int32, value.NewInt32(int32(depth)))
		} else {
			b.SetRaw(1, value.Row, encoded)
		}
		var err error
		encoded, err = b.Finalize(0, 0)
		require.NoErrorf(t, err, "Finalize at depth %d", depth)
	}

	r, err := NewReader(encoded)
	require.NoError(t, err)
	for depth := 4; depth > 0; depth-- {
		typ, raw, ok := r.GetRaw(1)
		require.Truef(t, ok, "depth %d", depth)
		require.Equalf(t, value.Row, typ, "depth %d", depth)
		r, err = NewReader(raw)
		require.NoErrorf(t, err, "depth %d", depth)
	}
	v, ok, err := r.GetValue(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(0), v.I32)
}
