package h2

import (
	"sort"
	"time"
)

// StreamState is a node in the stream lifecycle state machine (RFC 7540
// §5.1): idle -> open -> half_closed_{local,remote} -> closed.
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half_closed_local"
	case StreamHalfClosedRemote:
		return "half_closed_remote"
	case StreamClosed:
		return "closed"
	}
	return "unknown"
}

// Stream tracks one HTTP/2 stream's lifecycle state and flow-control
// window. The connection (conn.go) is the only mutator; Stream itself
// has no behavior beyond bookkeeping.
type Stream struct {
	ID    uint32
	State StreamState

	// SendWindow is this stream's outbound flow-control budget, as
	// constrained by the peer's SETTINGS_INITIAL_WINDOW_SIZE and
	// WINDOW_UPDATE frames (RFC 7540 §6.9.2).
	SendWindow int

	// HeaderBlock accumulates HPACK fragments across HEADERS and any
	// CONTINUATION frames until EndHeaders is seen.
	HeaderBlock []byte

	// Deadline, when non-zero, is when this stream's request must have
	// completed (END_STREAM received) by; a connection-level
	// StreamTimeout arms it when the stream opens.
	Deadline time.Time
}

// NewStream returns an idle Stream with the given initial send window.
func NewStream(id uint32, initialWindow int) *Stream {
	return &Stream{ID: id, State: StreamIdle, SendWindow: initialWindow}
}

// onOpen transitions an idle stream to open, as happens when the first
// HEADERS frame for id arrives.
func (s *Stream) onOpen() { s.State = StreamOpen }

// onEndStreamFromClient records that the client set END_STREAM, closing
// the remote half of the stream. The request is complete, so any
// request-timeout Deadline is cleared.
func (s *Stream) onEndStreamFromClient() {
	s.Deadline = time.Time{}
	switch s.State {
	case StreamOpen:
		s.State = StreamHalfClosedRemote
	case StreamHalfClosedLocal:
		s.State = StreamClosed
	}
}

// onEndStreamFromServer records that the response finished, closing the
// local half of the stream.
func (s *Stream) onEndStreamFromServer() {
	switch s.State {
	case StreamOpen:
		s.State = StreamHalfClosedLocal
	case StreamHalfClosedRemote:
		s.State = StreamClosed
	}
}

// Streams is a stream-id-ordered collection, mirroring the teacher's
// sorted-slice index (stream ids arrive in increasing order in
// practice, which keeps Insert/Del/Get near O(log n) with a plain
// binary search instead of needing a map).
type Streams struct {
	list []*Stream
}

func (s *Streams) search(id uint32) int {
	return sort.Search(len(s.list), func(i int) bool { return s.list[i].ID >= id })
}

// Insert adds st, keeping the list ordered by id.
func (s *Streams) Insert(st *Stream) {
	i := s.search(st.ID)
	s.list = append(s.list, nil)
	copy(s.list[i+1:], s.list[i:])
	s.list[i] = st
}

// Get returns the stream with id, or nil if it doesn't exist.
func (s *Streams) Get(id uint32) *Stream {
	i := s.search(id)
	if i < len(s.list) && s.list[i].ID == id {
		return s.list[i]
	}
	return nil
}

// Del removes and returns the stream with id, or nil if absent.
func (s *Streams) Del(id uint32) *Stream {
	i := s.search(id)
	if i < len(s.list) && s.list[i].ID == id {
		st := s.list[i]
		s.list = append(s.list[:i], s.list[i+1:]...)
		return st
	}
	return nil
}

// Len returns the number of tracked streams.
func (s *Streams) Len() int { return len(s.list) }

// CountOpen returns how many streams are neither idle nor closed, the
// figure MaxConcurrentStreams bounds (RFC 7540 §5.1.2).
func (s *Streams) CountOpen() int {
	n := 0
	for _, st := range s.list {
		if st.State != StreamIdle && st.State != StreamClosed {
			n++
		}
	}
	return n
}
