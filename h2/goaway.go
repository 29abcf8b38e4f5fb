package h2

import "github.com/domsolutions/h2ws/bits"

// GoAway is the humanized form of a GOAWAY frame payload (RFC 7540 §6.8):
// the highest stream id the sender has processed (or plans to), the
// error code explaining why, and optional opaque debug data.
type GoAway struct {
	LastStreamID uint32
	Code         ErrorCode
	Debug        []byte
}

// DecodeGoAway parses a GOAWAY frame payload.
func DecodeGoAway(fh *FrameHeader) (*GoAway, error) {
	if len(fh.Payload) < 8 {
		return nil, NewConnError(ErrCodeFrameSize, 0, "GOAWAY payload shorter than 8 octets")
	}
	ga := &GoAway{
		LastStreamID: bits.BytesToStreamID(fh.Payload[:4]),
		Code:         ErrorCode(bits.BytesToUint32(fh.Payload[4:8])),
	}
	if len(fh.Payload) > 8 {
		ga.Debug = append(ga.Debug, fh.Payload[8:]...)
	}
	return ga, nil
}

// EncodeGoAway builds the wire frame for ga. GOAWAY always travels on
// stream 0 (RFC 7540 §6.8).
func EncodeGoAway(ga *GoAway) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameGoAway
	fh.Payload = bits.AppendUint32(fh.Payload[:0], ga.LastStreamID&(1<<31-1))
	fh.Payload = bits.AppendUint32(fh.Payload, uint32(ga.Code))
	fh.Payload = append(fh.Payload, ga.Debug...)
	return fh
}
