package bits

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint24RoundTrip(t *testing.T) {
	b := make([]byte, 3)
	Uint24ToBytes(b, 0xABCDEF)
	require.Equal(t, uint32(0xABCDEF), BytesToUint24(b))
}

func TestUint32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	Uint32ToBytes(b, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), BytesToUint32(b))
}

func TestBytesToStreamIDMasksReservedBit(t *testing.T) {
	b := make([]byte, 4)
	Uint32ToBytes(b, 0x80000063)
	require.Equal(t, uint32(0x63), BytesToStreamID(b))
}

func TestCutPadding(t *testing.T) {
	payload := append([]byte{13}, []byte("8971293nfasv7asnrnqw9bma 237urkf8KifgiMKFG98UIM8fgnb kifgnrA7JKLK")...)
	want := len(payload) - 1 - 13

	got, err := CutPadding(payload)
	require.NoError(t, err)
	require.Len(t, got, want)
}

func TestCutPaddingErrors(t *testing.T) {
	_, err := CutPadding(nil)
	require.ErrorIs(t, err, ErrMissingPadLength)

	_, err = CutPadding([]byte{5, 1, 2})
	require.ErrorIs(t, err, ErrPadTooLarge)
}

func TestAddPaddingRoundTrips(t *testing.T) {
	src := []byte("hello")
	padded := AddPadding(src)

	got, err := CutPadding(padded)
	require.NoError(t, err)
	require.Equal(t, src, got)
}
