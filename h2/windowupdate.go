package h2

import "github.com/domsolutions/h2ws/bits"

// DecodeWindowUpdate parses a WINDOW_UPDATE frame payload (RFC 7540
// §6.9), returning its window size increment.
func DecodeWindowUpdate(fh *FrameHeader) (uint32, error) {
	if len(fh.Payload) != 4 {
		return 0, NewConnError(ErrCodeFrameSize, 0, "WINDOW_UPDATE payload must be 4 octets")
	}
	increment := bits.BytesToUint32(fh.Payload) & (1<<31 - 1)
	if increment == 0 {
		if fh.Stream == 0 {
			return 0, NewConnError(ErrCodeProtocol, 0, "zero WINDOW_UPDATE increment")
		}
		return 0, NewStreamError(ErrCodeProtocol, fh.Stream, "zero WINDOW_UPDATE increment")
	}
	return increment, nil
}

// EncodeWindowUpdate builds a WINDOW_UPDATE frame for stream (0 for the
// connection-level window).
func EncodeWindowUpdate(stream uint32, increment uint32) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameWindowUpdate
	fh.Stream = stream
	fh.Payload = bits.AppendUint32(fh.Payload[:0], increment&(1<<31-1))
	return fh
}
