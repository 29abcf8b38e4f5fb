package h2

import "github.com/domsolutions/h2ws/bits"

// DecodeRstStream parses a RST_STREAM frame payload (RFC 7540 §6.4),
// returning the error code the peer reported.
func DecodeRstStream(fh *FrameHeader) (ErrorCode, error) {
	if len(fh.Payload) != 4 {
		return 0, NewConnError(ErrCodeFrameSize, 0, "RST_STREAM payload must be 4 octets")
	}
	return ErrorCode(bits.BytesToUint32(fh.Payload)), nil
}

// EncodeRstStream builds a RST_STREAM frame for stream carrying code.
func EncodeRstStream(stream uint32, code ErrorCode) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameRstStream
	fh.Stream = stream
	fh.Payload = bits.AppendUint32(fh.Payload[:0], uint32(code))
	return fh
}
