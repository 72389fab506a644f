package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/imprint/pkg/imprinterr"
)

func sampleEntries() []Entry {
	return []Entry{
		{FieldID: 1, Type: 0x2, Offset: 0},
		{FieldID: 2, Type: 0x7, Offset: 4},
		{FieldID: 9, Type: 0x1, Offset: 11},
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	entries := sampleEntries()
	buf := Encode(nil, entries)
	require.Len(t, buf, EncodedSize(len(entries)))

	d, n, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	require.Equal(t, len(entries), d.Count())
	for i, want := range entries {
		assert.Equal(t, want, d.At(i))
	}
}

func TestFind(t *testing.T) {
	d, _, err := Parse(Encode(nil, sampleEntries()))
	require.NoError(t, err)

	e, idx, ok := d.Find(2)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, uint32(4), e.Offset)

	_, _, ok = d.Find(5)
	assert.False(t, ok)
}

func TestZeroEntries(t *testing.T) {
	d, n, err := Parse(Encode(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a single count byte for zero entries")
	assert.Equal(t, 0, d.Count())

	_, _, ok := d.Find(1)
	assert.False(t, ok, "Find on empty directory should never succeed")
}

func TestParseUnsorted(t *testing.T) {
	entries := []Entry{{FieldID: 2, Offset: 0}, {FieldID: 1, Offset: 4}}
	_, _, err := Parse(Encode(nil, entries))
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindDirectoryUnsorted))
}

func TestParseDuplicate(t *testing.T) {
	entries := []Entry{{FieldID: 1, Offset: 0}, {FieldID: 1, Offset: 4}}
	_, _, err := Parse(Encode(nil, entries))
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindDuplicateFieldID))
}

func TestParseTruncated(t *testing.T) {
	buf := Encode(nil, sampleEntries())
	_, _, err := Parse(buf[:len(buf)-1])
	require.Error(t, err)
	assert.True(t, imprinterr.Is(err, imprinterr.KindTruncated))
}

func TestSort(t *testing.T) {
	entries := []Entry{{FieldID: 9}, {FieldID: 1}, {FieldID: 2}}
	Sort(entries)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].FieldID, entries[i].FieldID)
	}
}
