package h2

import "github.com/domsolutions/h2ws/bits"

// Priority is the humanized form of a PRIORITY frame payload (RFC 7540
// §6.3): a stream dependency plus weight. The dependency's exclusive bit
// is folded into Exclusive instead of being left in the raw stream id.
type Priority struct {
	Exclusive    bool
	Dependency   uint32
	Weight       byte
}

// DecodePriority parses a PRIORITY frame payload.
func DecodePriority(fh *FrameHeader) (Priority, error) {
	if len(fh.Payload) != 5 {
		return Priority{}, NewStreamError(ErrCodeFrameSize, fh.Stream, "PRIORITY payload must be 5 octets")
	}
	raw := bits.BytesToUint32(fh.Payload[:4])
	return Priority{
		Exclusive:  raw&(1<<31) != 0,
		Dependency: raw & (1<<31 - 1),
		Weight:     fh.Payload[4],
	}, nil
}

// EncodePriority builds the wire frame for a PRIORITY on stream.
func EncodePriority(stream uint32, p Priority) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FramePriority
	fh.Stream = stream

	dep := p.Dependency & (1<<31 - 1)
	if p.Exclusive {
		dep |= 1 << 31
	}
	fh.Payload = bits.AppendUint32(fh.Payload[:0], dep)
	fh.Payload = append(fh.Payload, p.Weight)
	return fh
}
