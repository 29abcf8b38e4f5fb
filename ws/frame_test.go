package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// maskedFrameBytes builds the masked wire form a client would send;
// Append (this package's only serializer) never masks, since the
// server endpoint never needs to, so tests construct client frames by
// hand.
func maskedFrameBytes(f Frame, key [4]byte) []byte {
	var out []byte
	first := byte(0)
	if f.Fin {
		first = 0x80
	}
	first |= byte(f.Opcode) & 0x0f
	out = append(out, first)

	n := len(f.Payload)
	switch {
	case n < 126:
		out = append(out, 0x80|byte(n))
	case n <= 0xffff:
		out = append(out, 0x80|126, byte(n>>8), byte(n))
	default:
		out = append(out, 0x80|127, 0, 0, 0, 0, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
	out = append(out, key[:]...)

	masked := make([]byte, n)
	for i, b := range f.Payload {
		masked[i] = b ^ key[i%4]
	}
	out = append(out, masked...)
	return out
}

func TestParseUnmasksClientFrame(t *testing.T) {
	key := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	raw := maskedFrameBytes(Frame{Fin: true, Opcode: OpText, Payload: []byte("hello")}, key)

	res := Parse(raw)
	require.Nil(t, res.Err)
	require.NotNil(t, res.Frame)
	require.Equal(t, len(raw), res.Consumed)
	require.True(t, res.Frame.Fin)
	require.Equal(t, OpText, res.Frame.Opcode)
	require.Equal(t, []byte("hello"), res.Frame.Payload)
}

func TestParseSplittingInvariance(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	raw := maskedFrameBytes(Frame{Fin: true, Opcode: OpBinary, Payload: []byte("0123456789")}, key)

	for split := 0; split < len(raw); split++ {
		res := Parse(raw[:split])
		require.Nil(t, res.Frame)
		require.Greater(t, res.Need, 0)
	}

	res := Parse(raw)
	require.NotNil(t, res.Frame)
	require.Equal(t, len(raw), res.Consumed)
}

func TestParseExtended16BitLength(t *testing.T) {
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	key := [4]byte{9, 9, 9, 9}
	raw := maskedFrameBytes(Frame{Fin: true, Opcode: OpBinary, Payload: payload}, key)

	res := Parse(raw)
	require.Nil(t, res.Err)
	require.Equal(t, payload, res.Frame.Payload)
}

func TestParseRejectsFragmentedControlFrame(t *testing.T) {
	key := [4]byte{1, 1, 1, 1}
	raw := maskedFrameBytes(Frame{Fin: false, Opcode: OpPing, Payload: []byte("x")}, key)

	res := Parse(raw)
	require.ErrorIs(t, res.Err, ErrControlFragment)
}

func TestParseRejectsOversizedControlFrame(t *testing.T) {
	payload := make([]byte, 126)
	key := [4]byte{1, 1, 1, 1}
	raw := maskedFrameBytes(Frame{Fin: true, Opcode: OpPing, Payload: payload}, key)

	res := Parse(raw)
	require.ErrorIs(t, res.Err, ErrControlTooLarge)
}

func TestAppendNeverMasks(t *testing.T) {
	out := Append(nil, Frame{Fin: true, Opcode: OpText, Payload: []byte("hi")})
	require.Equal(t, byte(0x81), out[0]) // fin|text
	require.Equal(t, byte(2), out[1])    // no mask bit, length 2
	require.Equal(t, []byte("hi"), out[2:])
}

func TestParseRejectsUnmaskedClientFrame(t *testing.T) {
	f := Frame{Fin: true, Opcode: OpBinary, Payload: []byte("round trip")}
	raw := Append(nil, f) // Append never masks; server must reject this as a client frame.

	res := Parse(raw)
	require.ErrorIs(t, res.Err, ErrUnmaskedClient)
}
