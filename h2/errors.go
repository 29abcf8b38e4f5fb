package h2

import (
	"errors"
	"fmt"
)

// ErrorCode is the 32-bit HTTP/2 error code space from RFC 7540 §7.
type ErrorCode uint32

const (
	ErrCodeNo                 ErrorCode = 0x0
	ErrCodeProtocol           ErrorCode = 0x1
	ErrCodeInternal           ErrorCode = 0x2
	ErrCodeFlowControl        ErrorCode = 0x3
	ErrCodeSettingsTimeout    ErrorCode = 0x4
	ErrCodeStreamClosed       ErrorCode = 0x5
	ErrCodeFrameSize          ErrorCode = 0x6
	ErrCodeRefusedStream      ErrorCode = 0x7
	ErrCodeCancel             ErrorCode = 0x8
	ErrCodeCompression        ErrorCode = 0x9
	ErrCodeConnect            ErrorCode = 0xa
	ErrCodeEnhanceYourCalm    ErrorCode = 0xb
	ErrCodeInadequateSecurity ErrorCode = 0xc
	ErrCodeHTTP11Required     ErrorCode = 0xd
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeNo:                 "NO_ERROR",
	ErrCodeProtocol:           "PROTOCOL_ERROR",
	ErrCodeInternal:           "INTERNAL_ERROR",
	ErrCodeFlowControl:        "FLOW_CONTROL_ERROR",
	ErrCodeSettingsTimeout:    "SETTINGS_TIMEOUT",
	ErrCodeStreamClosed:       "STREAM_CLOSED",
	ErrCodeFrameSize:          "FRAME_SIZE_ERROR",
	ErrCodeRefusedStream:      "REFUSED_STREAM",
	ErrCodeCancel:             "CANCEL",
	ErrCodeCompression:        "COMPRESSION_ERROR",
	ErrCodeConnect:            "CONNECT_ERROR",
	ErrCodeEnhanceYourCalm:    "ENHANCE_YOUR_CALM",
	ErrCodeInadequateSecurity: "INADEQUATE_SECURITY",
	ErrCodeHTTP11Required:     "HTTP_1_1_REQUIRED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_ERROR(0x%x)", uint32(c))
}

// ConnError is a connection-level error: the whole connection must be
// torn down with a GOAWAY carrying Code.
type ConnError struct {
	Code       ErrorCode
	LastStream uint32
	Msg        string
}

func (e *ConnError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("http2: connection error: %s", e.Code)
	}
	return fmt.Sprintf("http2: connection error: %s: %s", e.Code, e.Msg)
}

// NewConnError builds a ConnError, mirroring the teacher's NewGoAwayError.
func NewConnError(code ErrorCode, lastStream uint32, msg string) *ConnError {
	return &ConnError{Code: code, LastStream: lastStream, Msg: msg}
}

// StreamError is a stream-level error: only Stream needs to be reset
// with RST_STREAM carrying Code, the connection otherwise continues.
type StreamError struct {
	Code   ErrorCode
	Stream uint32
	Msg    string
}

func (e *StreamError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("http2: stream %d error: %s", e.Stream, e.Code)
	}
	return fmt.Sprintf("http2: stream %d error: %s: %s", e.Stream, e.Code, e.Msg)
}

// NewStreamError builds a StreamError, mirroring the teacher's
// NewResetStreamError.
func NewStreamError(code ErrorCode, stream uint32, msg string) *StreamError {
	return &StreamError{Code: code, Stream: stream, Msg: msg}
}

// Sentinel errors used by the frame/HPACK codecs. ErrHPACKCompression
// always maps to a connection-level COMPRESSION_ERROR GOAWAY (§4.3 step
// 5); the others are wrapped by callers into a ConnError or StreamError
// with the appropriate code once the failing stream (if any) is known.
var (
	ErrHPACKCompression = errors.New("hpack: compression error")
	ErrHuffmanDecode     = errors.New("hpack: invalid huffman code")

	ErrFrameTooLarge   = errors.New("http2: frame size exceeds SETTINGS_MAX_FRAME_SIZE")
	ErrBadPreface      = errors.New("http2: invalid connection preface")
	ErrBadStreamID     = errors.New("http2: invalid or unexpected stream identifier")
	ErrBadFrameSize    = errors.New("http2: frame has an invalid size for its type")
	ErrUnknownSettings = errors.New("http2: unknown settings parameter")
)

// NeedMoreData is returned by incremental parsers to signal that n more
// bytes must arrive before another parse attempt can make progress. It
// is not a failure: callers buffer and retry.
type NeedMoreData struct {
	N int
}

func (e *NeedMoreData) Error() string {
	return fmt.Sprintf("http2: need %d more bytes", e.N)
}
