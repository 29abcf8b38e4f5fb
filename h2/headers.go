package h2

import "github.com/domsolutions/h2ws/bits"

// DecodedHeaders is the humanized form of a HEADERS frame (RFC 7540
// §6.2): the raw HPACK header block fragment plus the flags that
// control stream/header-block termination and an optional priority.
type DecodedHeaders struct {
	RawBlock       []byte
	EndStream      bool
	EndHeaders     bool
	HasPriority    bool
	PriorityWeight byte
	PriorityDep    uint32
	PriorityExcl   bool
}

// DecodeHeaders strips padding and any PRIORITY prefix, leaving the raw
// HPACK block fragment for the caller to feed into an HPACKDecoder (the
// block may be incomplete; CONTINUATION frames carry the remainder
// until EndHeaders is set, RFC 7540 §6.10).
func DecodeHeaders(fh *FrameHeader) (DecodedHeaders, error) {
	payload := fh.Payload
	var err error

	if fh.Flags.Has(FlagPadded) {
		payload, err = bits.CutPadding(payload)
		if err != nil {
			return DecodedHeaders{}, NewConnError(ErrCodeProtocol, fh.Stream, err.Error())
		}
	}

	dh := DecodedHeaders{
		EndStream:  fh.Flags.Has(FlagEndStream),
		EndHeaders: fh.Flags.Has(FlagEndHeaders),
	}

	if fh.Flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return DecodedHeaders{}, NewConnError(ErrCodeFrameSize, fh.Stream, "HEADERS priority prefix truncated")
		}
		raw := bits.BytesToUint32(payload[:4])
		dh.HasPriority = true
		dh.PriorityExcl = raw&(1<<31) != 0
		dh.PriorityDep = raw & (1<<31 - 1)
		dh.PriorityWeight = payload[4]
		payload = payload[5:]
	}

	dh.RawBlock = append(dh.RawBlock, payload...)
	return dh, nil
}

// EncodeHeaders builds a HEADERS frame carrying block (an already-HPACK
// -encoded fragment). pad adds RFC 7540 §6.1-style random padding.
func EncodeHeaders(stream uint32, block []byte, endStream, endHeaders, pad bool) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameHeaders
	fh.Stream = stream
	fh.Payload = append(fh.Payload[:0], block...)

	if endStream {
		fh.Flags |= FlagEndStream
	}
	if endHeaders {
		fh.Flags |= FlagEndHeaders
	}
	if pad {
		fh.Flags |= FlagPadded
		fh.Payload = bits.AddPadding(fh.Payload)
	}

	return fh
}

// DecodeContinuation strips nothing (CONTINUATION carries only HPACK
// bytes, RFC 7540 §6.10) and reports whether EndHeaders is set.
func DecodeContinuation(fh *FrameHeader) (block []byte, endHeaders bool) {
	return fh.Payload, fh.Flags.Has(FlagEndHeaders)
}

// EncodeContinuation builds a CONTINUATION frame carrying the next
// fragment of an HPACK block.
func EncodeContinuation(stream uint32, block []byte, endHeaders bool) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameContinuation
	fh.Stream = stream
	fh.Payload = append(fh.Payload[:0], block...)
	if endHeaders {
		fh.Flags |= FlagEndHeaders
	}
	return fh
}
