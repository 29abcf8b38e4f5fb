package h2

// PingData is the 8 opaque octets carried by a PING frame (RFC 7540 §6.7).
type PingData [8]byte

// DecodePing reads the PING payload from fh into data, reporting whether
// the ACK flag was set.
func DecodePing(fh *FrameHeader) (data PingData, ack bool, err error) {
	if len(fh.Payload) != 8 {
		return data, false, NewConnError(ErrCodeFrameSize, 0, "PING payload must be 8 octets")
	}
	copy(data[:], fh.Payload)
	return data, fh.Flags.Has(FlagAck), nil
}

// EncodePing builds the wire frame for a PING (or PING ACK) carrying data.
func EncodePing(data PingData, ack bool) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FramePing
	fh.Payload = append(fh.Payload[:0], data[:]...)
	if ack {
		fh.Flags |= FlagAck
	}
	return fh
}
