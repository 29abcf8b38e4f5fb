package ws

// Close codes from RFC 6455 §7.4.1, plus the handful this runtime emits
// itself for local conditions (§4.6 and §7 of the component design).
const (
	CloseNormal           = 1000
	CloseGoingAway        = 1001
	CloseProtocolError    = 1002
	CloseUnsupportedData  = 1003
	CloseNoStatus         = 1005 // never sent on the wire, only reported internally
	CloseAbnormal         = 1006 // written best-effort when the transport closes under an open connection
	CloseInvalidPayload   = 1007
	ClosePolicyViolation  = 1008
	CloseMessageTooBig    = 1009
	CloseInternalError    = 1011
)

// RewriteCloseCode applies RFC 6455 §7.4.1's table for the code we echo
// back to the peer in our own Close frame, given the code the peer sent
// us (or CloseNoStatus if they sent none). It is a pure function. Codes
// in the reserved ranges map to 1002 and every other code maps to 1000;
// since 1002 itself lies outside every reserved range, a second
// application turns a rewritten 1002 into 1000.
func RewriteCloseCode(received int) int {
	switch {
	case received >= 0 && received <= 999:
		return CloseProtocolError
	case received == 1004 || received == CloseNoStatus || received == CloseAbnormal:
		return CloseProtocolError
	case received >= 1012 && received <= 2999:
		return CloseProtocolError
	default:
		return CloseNormal
	}
}
