// Package bits provides the low-level byte/integer helpers shared by the
// HTTP/2 and WebSocket codecs: big-endian packing for the fixed-width
// fields in frame headers, and the same randomized-padding trick the
// HTTP/2 side once used for HEADERS/DATA frames.
package bits

import (
	"crypto/rand"

	"github.com/valyala/fastrand"
)

// Uint24ToBytes writes the low 24 bits of n into b in big-endian order.
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2] // bound check hint
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a 24-bit big-endian unsigned integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes n into b in big-endian order.
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian uint32 from b.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// BytesToStreamID reads a big-endian uint32 from b and masks off the
// reserved top bit, as required for the 31-bit stream identifier field.
func BytesToStreamID(b []byte) uint32 {
	return BytesToUint32(b) & (1<<31 - 1)
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// Resize grows b so that len(b) == neededLen, reusing spare capacity.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// CutPadding strips a PADDED-flag payload's leading pad-length octet and
// trailing padding bytes, returning the remaining content.
func CutPadding(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrMissingPadLength
	}
	pad := int(payload[0])
	if pad > len(payload)-1 {
		return nil, ErrPadTooLarge
	}
	return payload[1 : len(payload)-pad], nil
}

// AddPadding prepends a random pad-length octet (1..255) and that many
// random trailing bytes to b, the way a server wishing to obscure frame
// sizes would pad an outgoing HEADERS or DATA frame.
func AddPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(255)) + 1
	out := make([]byte, 0, len(b)+n+1)
	out = append(out, byte(n))
	out = append(out, b...)
	padding := make([]byte, n)
	_, _ = rand.Read(padding)
	return append(out, padding...)
}
