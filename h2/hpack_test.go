package h2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHPACKEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewHPACKEncoder()
	dec := NewHPACKDecoder()

	fields := []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":path", Value: "/"},
		{Name: "x-custom", Value: "hello world"},
	}

	var block []byte
	for _, f := range fields {
		block = enc.WriteField(block, f, true)
	}

	got, err := dec.DecodeFragment(block)
	require.NoError(t, err)
	require.Equal(t, fields, got)
}

func TestHPACKSensitiveFieldNeverIndexed(t *testing.T) {
	enc := NewHPACKEncoder()
	dec := NewHPACKDecoder()

	f := HeaderField{Name: "authorization", Value: "secret", Sensitive: true}
	block := enc.WriteField(nil, f, true)

	got, err := dec.DecodeFragment(block)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "authorization", got[0].Name)
	require.Equal(t, "secret", got[0].Value)
	require.True(t, got[0].Sensitive)
}

func TestHPACKStaticTableIndexedField(t *testing.T) {
	dec := NewHPACKDecoder()
	// Index 2 in the static table is ":method: GET" (RFC 7541 Appendix A).
	block := []byte{0x82}

	got, err := dec.DecodeFragment(block)
	require.NoError(t, err)
	require.Equal(t, []HeaderField{{Name: ":method", Value: "GET"}}, got)
}

func TestHPACKDynamicTableEviction(t *testing.T) {
	table := newHPACKDynamicTable()
	table.setMaxSize(64)

	table.add(HeaderField{Name: "a", Value: "1"})  // size 2+32=34
	table.add(HeaderField{Name: "bb", Value: "22"}) // size 4+32=36, evicts "a"

	_, okOld := table.lookup(uint64(len(hpackStaticTable) + 2))
	require.False(t, okOld, "oldest entry should have been evicted")

	f, ok := table.lookup(uint64(len(hpackStaticTable) + 1))
	require.True(t, ok)
	require.Equal(t, "bb", f.Name)
}

func TestHPACKDecodeOutOfRangeIndexErrors(t *testing.T) {
	dec := NewHPACKDecoder()
	_, err := dec.DecodeFragment([]byte{0xFF, 0x00}) // indexed field 127
	require.Error(t, err)
	require.ErrorIs(t, err, ErrHPACKCompression)
}

func TestHPACKDynamicTableSizeUpdate(t *testing.T) {
	dec := NewHPACKDecoder()
	// Dynamic table size update to 0, then a literal-with-indexing field:
	// the update must not itself produce an output header field.
	block := append([]byte{0x20}, encodeLiteralNewName(t, "x", "y")...)

	got, err := dec.DecodeFragment(block)
	require.NoError(t, err)
	require.Equal(t, []HeaderField{{Name: "x", Value: "y"}}, got)
}

func encodeLiteralNewName(t *testing.T, name, value string) []byte {
	t.Helper()
	e := NewHPACKEncoder()
	return e.WriteField(nil, HeaderField{Name: name, Value: value}, true)
}

func TestHuffmanDecodeRejectsEOSSymbol(t *testing.T) {
	// RFC 7541 Appendix B fixes the EOS code as thirty 1-bits; decoding
	// it as a literal symbol is always an error.
	_, err := huffmanDecode(nil, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrHuffmanDecode)
}
