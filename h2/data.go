package h2

import "github.com/domsolutions/h2ws/bits"

// DecodedData is the humanized form of a DATA frame (RFC 7540 §6.1):
// application bytes plus the stream-ending flag, with any padding
// already stripped.
type DecodedData struct {
	Bytes     []byte
	EndStream bool
}

// DecodeData strips padding (if the PADDED flag is set) and returns the
// remaining application bytes.
func DecodeData(fh *FrameHeader) (DecodedData, error) {
	payload := fh.Payload
	if fh.Flags.Has(FlagPadded) {
		var err error
		payload, err = bits.CutPadding(payload)
		if err != nil {
			return DecodedData{}, NewStreamError(ErrCodeProtocol, fh.Stream, err.Error())
		}
	}
	return DecodedData{
		Bytes:     payload,
		EndStream: fh.Flags.Has(FlagEndStream),
	}, nil
}

// EncodeData builds a DATA frame for stream carrying b. When pad is
// true the payload is padded with a random 1-255 byte pad, per RFC 7540
// §6.1 (used to defeat traffic-size fingerprinting, not by default).
func EncodeData(stream uint32, b []byte, endStream, pad bool) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameData
	fh.Stream = stream
	fh.Payload = append(fh.Payload[:0], b...)

	if endStream {
		fh.Flags |= FlagEndStream
	}
	if pad {
		fh.Flags |= FlagPadded
		fh.Payload = bits.AddPadding(fh.Payload)
	}

	return fh
}
