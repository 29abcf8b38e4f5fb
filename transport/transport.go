// Package transport defines the byte-oriented collaborator that both the
// HTTP/2 and WebSocket connection state machines drive: something that can
// hand back whatever bytes are currently available, accept a full write,
// and be closed. Neither state machine knows or cares whether the
// transport is backed by a plain TCP socket or one wrapped in TLS.
package transport

import "io"

// Conn is the minimal interface the core consumes from an accepted
// connection. *net.Conn and *tls.Conn both satisfy it; tests substitute an
// in-memory pipe.
type Conn interface {
	io.Reader
	io.Writer

	// Close closes the underlying connection. Safe to call more than
	// once; the second and further calls should be no-ops that return
	// the first close's error (net.Conn already behaves this way).
	Close() error
}

// Closer abstracts "close with a reason" for collaborators that want to
// log or categorize why a connection went away without reaching into the
// transport directly. No code in this module calls CloseWithReason. The
// WebSocket state machine returns a Command describing the desired close
// (see DESIGN.md on inverting the Connection/Socket reference) and its
// Serve loop calls the transport's plain Close; the HTTP/2 Conn leaves
// closing the transport to its caller.
type Closer interface {
	CloseWithReason(reason string) error
}
