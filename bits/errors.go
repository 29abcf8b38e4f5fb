package bits

import "errors"

var (
	// ErrMissingPadLength is returned when a PADDED-flagged frame has no
	// payload at all, so the pad-length octet itself is missing.
	ErrMissingPadLength = errors.New("bits: padded frame missing pad-length octet")
	// ErrPadTooLarge is returned when the declared pad length exceeds the
	// remaining payload.
	ErrPadTooLarge = errors.New("bits: pad length exceeds frame payload")
)
