package h2

import "github.com/domsolutions/h2ws/bits"

// Settings parameter identifiers, RFC 7540 §6.5.2.
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

const (
	DefaultHeaderTableSize      uint32 = 4096
	DefaultConcurrentStreams    uint32 = 100
	DefaultInitialWindowSize    uint32 = 1<<16 - 1
	MaxWindowSize               uint32 = 1<<31 - 1
	MaxSettingsFrameSize        uint32 = 1<<24 - 1
)

// Settings is the humanized form of a SETTINGS frame payload — the set
// of connection-wide parameters either side may advertise (RFC 7540
// §6.5). Zero-value DisablePush is false and every size field uses the
// RFC's defaults via NewSettings.
type Settings struct {
	HeaderTableSize      uint32
	DisablePush          bool
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32
}

// NewSettings returns a Settings populated with the protocol defaults.
func NewSettings() *Settings {
	return &Settings{
		HeaderTableSize:      DefaultHeaderTableSize,
		MaxConcurrentStreams: DefaultConcurrentStreams,
		InitialWindowSize:    DefaultInitialWindowSize,
		MaxFrameSize:         DefaultMaxFrameSize,
	}
}

// CopyTo copies st's values into other.
func (st *Settings) CopyTo(other *Settings) {
	*other = *st
}

// DecodeSettingsPayload parses a SETTINGS frame payload (a sequence of
// 6-byte [2-byte id][4-byte value] entries) into st, applying only the
// parameters present and leaving the rest untouched. Per RFC 7540 §6.5,
// an unrecognized parameter identifier is ignored, not an error.
func DecodeSettingsPayload(st *Settings, payload []byte) error {
	if len(payload)%6 != 0 {
		return NewConnError(ErrCodeFrameSize, 0, "settings payload not a multiple of 6")
	}

	for i := 0; i+6 <= len(payload); i += 6 {
		id := uint16(payload[i])<<8 | uint16(payload[i+1])
		value := bits.BytesToUint32(payload[i+2 : i+6])

		switch id {
		case SettingHeaderTableSize:
			st.HeaderTableSize = value
		case SettingEnablePush:
			if value > 1 {
				return NewConnError(ErrCodeProtocol, 0, "invalid ENABLE_PUSH value")
			}
			st.DisablePush = value == 0
		case SettingMaxConcurrentStreams:
			st.MaxConcurrentStreams = value
		case SettingInitialWindowSize:
			if value > MaxWindowSize {
				return NewConnError(ErrCodeFlowControl, 0, "initial window size too large")
			}
			st.InitialWindowSize = value
		case SettingMaxFrameSize:
			if value < DefaultMaxFrameSize || value > MaxSettingsFrameSize {
				return NewConnError(ErrCodeProtocol, 0, "invalid max frame size")
			}
			st.MaxFrameSize = value
		case SettingMaxHeaderListSize:
			st.MaxHeaderListSize = value
		}
	}

	return nil
}

// EncodeSettingsPayload appends the wire encoding of st to dst:
// HEADER_TABLE_SIZE, ENABLE_PUSH, MAX_CONCURRENT_STREAMS,
// INITIAL_WINDOW_SIZE and MAX_FRAME_SIZE are always written, whether or
// not they hold the RFC defaults, and MAX_HEADER_LIST_SIZE is written
// only when it is non-zero.
func EncodeSettingsPayload(dst []byte, st *Settings) []byte {
	dst = appendSetting(dst, SettingHeaderTableSize, st.HeaderTableSize)
	push := uint32(1)
	if st.DisablePush {
		push = 0
	}
	dst = appendSetting(dst, SettingEnablePush, push)
	dst = appendSetting(dst, SettingMaxConcurrentStreams, st.MaxConcurrentStreams)
	dst = appendSetting(dst, SettingInitialWindowSize, st.InitialWindowSize)
	dst = appendSetting(dst, SettingMaxFrameSize, st.MaxFrameSize)
	if st.MaxHeaderListSize != 0 {
		dst = appendSetting(dst, SettingMaxHeaderListSize, st.MaxHeaderListSize)
	}
	return dst
}

func appendSetting(dst []byte, id uint16, value uint32) []byte {
	dst = append(dst, byte(id>>8), byte(id))
	return bits.AppendUint32(dst, value)
}
