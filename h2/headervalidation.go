package h2

import "golang.org/x/net/http/httpguts"

// ValidateHeaderField reports whether a decoded header field's name and
// value are well-formed per RFC 7230, using the same validators the Go
// HTTP/1.1 and HTTP/2 stacks share. Pseudo-headers (":method" etc.) are
// checked only for value validity, since httpguts.ValidHeaderFieldName
// rejects the leading colon.
func ValidateHeaderField(f HeaderField) bool {
	if !f.IsPseudo() && !httpguts.ValidHeaderFieldName(f.Name) {
		return false
	}
	return httpguts.ValidHeaderFieldValue(f.Value)
}
