package h2

import (
	"sync"

	"github.com/domsolutions/h2ws/bits"
)

// FrameType is the 8-bit frame type field (RFC 7540 §11.2).
type FrameType uint8

const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameRstStream    FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9
)

// FrameFlags is the 8-bit flags field; its meaning is frame-type specific.
type FrameFlags uint8

const (
	FlagAck        FrameFlags = 0x1
	FlagEndStream  FrameFlags = 0x1
	FlagEndHeaders FrameFlags = 0x4
	FlagPadded     FrameFlags = 0x8
	FlagPriority   FrameFlags = 0x20
)

func (f FrameFlags) Has(flag FrameFlags) bool { return f&flag == flag }

// FrameHeaderSize is the fixed 9-octet frame header size (RFC 7540 §4.1).
const FrameHeaderSize = 9

// DefaultMaxFrameSize is the protocol-mandated minimum/default value of
// SETTINGS_MAX_FRAME_SIZE (RFC 7540 §6.5.2), i.e. 2^14.
const DefaultMaxFrameSize = 1 << 14

// FrameHeader is the parsed 9-octet frame header plus its raw payload.
// Pooled the way the teacher pools its FrameHeader, since one is
// allocated per frame on a busy connection.
type FrameHeader struct {
	Length  int
	Type    FrameType
	Flags   FrameFlags
	Stream  uint32
	Payload []byte
}

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// AcquireFrameHeader gets a FrameHeader from the pool, ready for reuse.
func AcquireFrameHeader() *FrameHeader {
	fh := frameHeaderPool.Get().(*FrameHeader)
	fh.Reset()
	return fh
}

// ReleaseFrameHeader returns fh to the pool. The caller must not use fh
// afterward.
func ReleaseFrameHeader(fh *FrameHeader) {
	frameHeaderPool.Put(fh)
}

// Reset clears fh for reuse, retaining the Payload backing array.
func (fh *FrameHeader) Reset() {
	fh.Length = 0
	fh.Type = 0
	fh.Flags = 0
	fh.Stream = 0
	fh.Payload = fh.Payload[:0]
}

// ParseResult is the outcome of one Parse call.
type ParseResult struct {
	// Frame is non-nil only when Consumed > 0 and Err == nil.
	Frame *FrameHeader
	// Consumed is how many leading bytes of the input buffer were used.
	// Zero means the call made no progress and Need describes how many
	// additional bytes must be appended before calling again.
	Consumed int
	// Need is the number of bytes Parse would like buffered before it is
	// called again; only meaningful when Consumed == 0 and Err == nil.
	Need int
	// Err, when non-nil, is a ConnError: the connection must be torn
	// down. A short buffer is never an error, only Need.
	Err error
}

// Parse implements the frame codec's incremental-parser contract:
// parse(buf) -> {frame, consumed} | Need(n) | Error(kind).
//
// It never blocks and never retains buf; the caller owns buf's lifetime
// for the duration of the call only (Parse copies the payload into the
// returned FrameHeader). Calling Parse repeatedly as buf grows — one
// byte at a time or all at once — produces identical frames, which is
// what lets the connection's read loop stay agnostic to how the
// transport chooses to chunk reads.
func Parse(buf []byte, maxFrameSize uint32) ParseResult {
	if len(buf) < FrameHeaderSize {
		return ParseResult{Need: FrameHeaderSize - len(buf)}
	}

	length := int(bits.BytesToUint24(buf[:3]))
	typ := FrameType(buf[3])
	flags := FrameFlags(buf[4])
	stream := bits.BytesToStreamID(buf[5:9])

	if maxFrameSize != 0 && length > int(maxFrameSize) {
		return ParseResult{Err: NewConnError(ErrCodeFrameSize, 0,
			"frame length exceeds SETTINGS_MAX_FRAME_SIZE")}
	}

	total := FrameHeaderSize + length
	if len(buf) < total {
		return ParseResult{Need: total - len(buf)}
	}

	fh := AcquireFrameHeader()
	fh.Length = length
	fh.Type = typ
	fh.Flags = flags
	fh.Stream = stream
	fh.Payload = append(fh.Payload[:0], buf[FrameHeaderSize:total]...)

	return ParseResult{Frame: fh, Consumed: total}
}

// AppendHeader appends the 9-octet wire encoding of fh's header fields
// (not the payload) to dst.
func AppendHeader(dst []byte, fh *FrameHeader) []byte {
	var raw [FrameHeaderSize]byte
	bits.Uint24ToBytes(raw[:3], uint32(fh.Length))
	raw[3] = byte(fh.Type)
	raw[4] = byte(fh.Flags)
	bits.Uint32ToBytes(raw[5:], fh.Stream)
	return append(dst, raw[:]...)
}

// AppendFrame appends fh's full wire encoding (header + payload) to dst,
// setting Length from len(fh.Payload) first.
func AppendFrame(dst []byte, fh *FrameHeader) []byte {
	fh.Length = len(fh.Payload)
	dst = AppendHeader(dst, fh)
	return append(dst, fh.Payload...)
}

// connPreface is the fixed 24-octet client connection preface, RFC 7540
// §3.5, that must precede the first frame on every HTTP/2 connection.
const connPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// ParsePreface reports whether buf begins with the connection preface,
// mirroring Parse's Need-based contract so the caller can dribble bytes
// in before the first real frame arrives.
func ParsePreface(buf []byte) (consumed int, need int, ok bool) {
	if len(buf) < len(connPreface) {
		if string(buf) != connPreface[:len(buf)] {
			return 0, 0, false
		}
		return 0, len(connPreface) - len(buf), true
	}
	if string(buf[:len(connPreface)]) != connPreface {
		return 0, 0, false
	}
	return len(connPreface), 0, true
}
